package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoOpTransition means the lead is already in the requested status.
	ErrNoOpTransition = errors.New("lead is already in the requested status")
	// ErrInvalidTransition means the requested transition is not allowed.
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// StatusPolicy controls which transitions the state machine accepts.
// AllowReopen permits CONTACTED_OUT -> PENDING for manual corrections;
// the default is forward-only.
type StatusPolicy struct {
	AllowReopen bool
}

// Transition applies newStatus to the lead after validating it against the
// policy. On PENDING -> CONTACTED_OUT the contacted timestamp is set only if
// it was never set before; it is never cleared, even when reopening.
func (l *Lead) Transition(newStatus LeadStatus, policy StatusPolicy, now time.Time) error {
	if !newStatus.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	if l.Status == newStatus {
		return ErrNoOpTransition
	}

	switch {
	case l.Status == StatusPending && newStatus == StatusContactedOut:
		if l.ContactedAt == nil {
			t := now
			l.ContactedAt = &t
		}
	case l.Status == StatusContactedOut && newStatus == StatusPending:
		if !policy.AllowReopen {
			return fmt.Errorf("%w: cannot move %s back to %s", ErrInvalidTransition, l.Status, newStatus)
		}
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, newStatus)
	}

	l.Status = newStatus
	l.UpdatedAt = now
	return nil
}
