package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Dialer is the transport boundary; gomail.Dialer satisfies it in production
// and tests swap in a fake.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type EmailSender struct {
	dialer    Dialer
	cfg       Config
	templates *template.Template
	logger    *zap.Logger
}

func NewEmailSender(cfg Config, logger *zap.Logger) (*EmailSender, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &EmailSender{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		cfg:       cfg,
		templates: templates,
		logger:    logger,
	}, nil
}

// SendProspectConfirmation emails the submitting prospect that their lead was
// received.
func (s *EmailSender) SendProspectConfirmation(ctx context.Context, to, prospectName, leadID string) error {
	body, err := s.render("prospect_confirmation.html", ProspectConfirmationData{
		ProspectName: prospectName,
		LeadID:       leadID,
		CompanyName:  s.cfg.FromName,
	})
	if err != nil {
		return err
	}

	return s.SendRaw(ctx, to, "Thank You for Your Submission", body, s.cfg.MaxRetries)
}

// SendTeamAlert emails the fixed internal recipient about a new lead,
// including a dashboard link.
func (s *EmailSender) SendTeamAlert(ctx context.Context, leadID, prospectName, prospectEmail, resumeKey string) error {
	body, err := s.render("team_alert.html", TeamAlertData{
		LeadID:         leadID,
		ProspectName:   prospectName,
		ProspectEmail:  prospectEmail,
		ResumeFilename: resumeKey,
		DashboardURL:   fmt.Sprintf("%s/leads/%s", s.cfg.DashboardURL, leadID),
	})
	if err != nil {
		return err
	}

	subject := "New Lead Submission: " + prospectName
	return s.SendRaw(ctx, s.cfg.TeamEmail, subject, body, s.cfg.MaxRetries)
}

// SendRaw delivers an already-rendered HTML body, retrying up to maxRetries
// attempts total with a linearly growing delay between them.
func (s *EmailSender) SendRaw(ctx context.Context, to, subject, htmlBody string, maxRetries int) error {
	if maxRetries <= 0 {
		maxRetries = s.cfg.MaxRetries
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.FromEmail, s.cfg.FromName))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			// Waits without holding anything; a cancelled context wins.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.RetryBaseDelay * time.Duration(attempt-1)):
			}
		}

		if err := s.dialer.DialAndSend(m); err != nil {
			lastErr = err
			s.logger.Warn("email delivery attempt failed",
				zap.String("to", to),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		return nil
	}

	return &DeliveryError{Attempts: maxRetries, Err: lastErr}
}

func (s *EmailSender) render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}
	return body.String(), nil
}
