package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	unsafePattern  = regexp.MustCompile(`[<>"'&;{}()\[\]]`)
	spacesPattern  = regexp.MustCompile(`\s+`)
	controlPattern = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

func ValidateCreateLeadInput(input CreateLeadInput, resume ResumeUpload) []ValidationError {
	var errs []ValidationError

	if err := validateName("first_name", input.FirstName); err != nil {
		errs = append(errs, *err)
	}
	if err := validateName("last_name", input.LastName); err != nil {
		errs = append(errs, *err)
	}

	if strings.TrimSpace(input.Email) == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(strings.TrimSpace(input.Email)); err != nil {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}

	if resume.Reader == nil || strings.TrimSpace(resume.Filename) == "" {
		errs = append(errs, ValidationError{"resume", "is required"})
	}

	return errs
}

func validateName(field, value string) *ValidationError {
	sanitized := SanitizeName(value)
	if sanitized == "" {
		return &ValidationError{field, "is required"}
	}
	if utf8.RuneCountInString(sanitized) > 100 {
		return &ValidationError{field, "must not exceed 100 characters"}
	}
	return nil
}

// SanitizeName strips markup, control characters and injection-friendly
// punctuation, then collapses whitespace.
func SanitizeName(name string) string {
	name = tagPattern.ReplaceAllString(name, "")
	name = unsafePattern.ReplaceAllString(name, "")
	name = controlPattern.ReplaceAllString(name, "")
	name = spacesPattern.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// NormalizeEmail reduces the input to a lowercased bare address. Name-addr
// forms like `Ada <ada@example.com>` collapse to the mailbox itself, so
// duplicate matching and the stored contact identifier never depend on how the
// client decorated the address.
func NormalizeEmail(email string) string {
	trimmed := strings.TrimSpace(email)
	if addr, err := mail.ParseAddress(trimmed); err == nil {
		trimmed = addr.Address
	}
	return strings.ToLower(trimmed)
}
