package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required=true"`
	APIPort     int    `env:"API_PORT,default=8080"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	CORSOrigins string `env:"CORS_ORIGINS,default=*"`

	UploadDir    string `env:"UPLOAD_DIR,default=./uploads/resumes"`
	MaxFileSize  int64  `env:"MAX_FILE_SIZE,default=5242880"` // 5MB
	DashboardURL string `env:"DASHBOARD_URL,default=http://localhost:3000"`

	SMTPHost      string `env:"SMTP_HOST,required=true"`
	SMTPPort      int    `env:"SMTP_PORT,default=587"`
	SMTPUser      string `env:"SMTP_USER"`
	SMTPPass      string `env:"SMTP_PASS"`
	FromEmail     string `env:"SMTP_FROM_EMAIL,required=true"`
	FromName      string `env:"SMTP_FROM_NAME,default=Ligue Leads"`
	TeamEmail     string `env:"TEAM_ALERT_EMAIL,required=true"`
	MailRetries   int    `env:"MAIL_MAX_RETRIES,default=3"`
	MailRetryBase int    `env:"MAIL_RETRY_BASE_MS,default=1000"`

	RabbitMQURL string `env:"RABBITMQ_URL"`

	AllowStatusReopen bool `env:"ALLOW_STATUS_REOPEN,default=false"`
}

func Load() (*Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MaxFileSize < 1<<20 || c.MaxFileSize > 50<<20 {
		return fmt.Errorf("MAX_FILE_SIZE must be between 1MB and 50MB, got %d", c.MaxFileSize)
	}
	if c.MailRetries < 1 {
		return fmt.Errorf("MAIL_MAX_RETRIES must be at least 1, got %d", c.MailRetries)
	}
	return nil
}

func (c *Config) MailRetryBaseDelay() time.Duration {
	return time.Duration(c.MailRetryBase) * time.Millisecond
}

func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
