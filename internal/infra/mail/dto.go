package mail

import (
	"errors"
	"fmt"
	"time"
)

// ErrRenderFailed marks a template rendering problem. Rendering is
// deterministic, so these are never retried.
var ErrRenderFailed = errors.New("failed to render email template")

// DeliveryError is returned after every delivery attempt has failed.
type DeliveryError struct {
	Attempts int
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to send email after %d attempts: %v", e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

type Config struct {
	Host           string
	Port           int
	User           string
	Password       string
	FromEmail      string
	FromName       string
	TeamEmail      string
	DashboardURL   string
	MaxRetries     int
	RetryBaseDelay time.Duration
}

type ProspectConfirmationData struct {
	ProspectName string
	LeadID       string
	CompanyName  string
}

type TeamAlertData struct {
	LeadID         string
	ProspectName   string
	ProspectEmail  string
	ResumeFilename string
	DashboardURL   string
}
