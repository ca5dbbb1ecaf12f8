// Package validation checks user input before it reaches a store: signup and
// login credentials, generation briefs, saved scripts and partial updates.
// Every failure is an *Error whose message is safe to show to the client.
package validation

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/hookline/hookline/internal/db/models"
)

// MinPasswordLength is the shortest password accepted at signup and login.
const MinPasswordLength = 6

// Error is a client-facing validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Message }

// IsValidationError reports whether err is or wraps an *Error.
func IsValidationError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

func fail(field, message string) error {
	return &Error{Field: field, Message: message}
}

// Field is a named input value for Required.
type Field struct {
	Name  string
	Value string
}

// blank treats whitespace-only input as missing.
func blank(s string) bool { return strings.TrimSpace(s) == "" }

// Required fails with message on the first blank field.
func Required(message string, fields ...Field) error {
	for _, f := range fields {
		if blank(f.Value) {
			return fail(f.Name, message)
		}
	}
	return nil
}

// ValidateEmail accepts a bare RFC 5322 address without a display name.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fail("email", "Invalid email address")
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fail("password", "Password must be at least 6 characters")
	}
	return nil
}

// ValidateSignup checks a signup request.
func ValidateSignup(email, password, username, fullName string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if blank(username) {
		return fail("username", "Username is required")
	}
	if blank(fullName) {
		return fail("fullName", "Full name is required")
	}
	return nil
}

// ValidateLogin checks a login request.
func ValidateLogin(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword(password)
}

// ValidateBrief checks a generation brief.
func ValidateBrief(niche, contentType, tone, length string) error {
	switch {
	case blank(niche):
		return fail("niche", "Niche is required")
	case blank(contentType):
		return fail("contentType", "Content type is required")
	case blank(tone):
		return fail("tone", "Tone is required")
	case blank(length):
		return fail("length", "Length is required")
	}
	return nil
}

// MissingScriptData is the message for a save with any required field blank.
const MissingScriptData = "Missing required script data"

// ValidateScript checks the required fields of a script about to be saved.
func ValidateScript(s *models.Script) error {
	return Required(MissingScriptData,
		Field{"title", s.Title},
		Field{"niche", s.Niche},
		Field{"contentType", s.ContentType},
		Field{"tone", s.Tone},
		Field{"length", s.Length},
		Field{"hook", s.Hook},
		Field{"body", s.Body},
		Field{"cta", s.CTA},
	)
}

// ValidatePatch rejects empty patches, blanking a required field, and
// isFavorite values other than 0 or 1.
func ValidatePatch(p *models.ScriptPatch) error {
	if p.IsEmpty() {
		return fail("", "No fields to update")
	}
	for _, f := range []struct {
		name string
		v    *string
	}{
		{"title", p.Title},
		{"niche", p.Niche},
		{"contentType", p.ContentType},
		{"tone", p.Tone},
		{"length", p.Length},
		{"hook", p.Hook},
		{"body", p.Body},
		{"cta", p.CTA},
	} {
		if f.v != nil && blank(*f.v) {
			return fail(f.name, "Field "+f.name+" cannot be empty")
		}
	}
	if p.IsFavorite != nil && *p.IsFavorite != 0 && *p.IsFavorite != 1 {
		return fail("isFavorite", "isFavorite must be 0 or 1")
	}
	return nil
}
