package webchat

import (
	"fmt"
	"regexp"
)

// Default contact patterns. Both are intentionally loose: any email-shaped
// token, and a Spanish number with optional +34/0034/34 prefix.
const (
	DefaultEmailPattern = `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`
	DefaultPhonePattern = `(\+34|0034|34)?[ -]*(6|7|8|9)[0-9]{2}[ -]*[0-9]{3}[ -]*[0-9]{3}`
)

// ContactMatch holds the first email and phone found in a message.
type ContactMatch struct {
	Email string
	Phone string
}

// Kind is "Email" when an email matched, else "Teléfono".
func (m ContactMatch) Kind() string {
	if m.Email != "" {
		return "Email"
	}
	return "Teléfono"
}

// Detector finds contact details in free text.
type Detector struct {
	email *regexp.Regexp
	phone *regexp.Regexp
}

// NewDetector compiles the patterns; empty patterns use the defaults.
func NewDetector(emailPattern, phonePattern string) (*Detector, error) {
	if emailPattern == "" {
		emailPattern = DefaultEmailPattern
	}
	if phonePattern == "" {
		phonePattern = DefaultPhonePattern
	}
	email, err := regexp.Compile(emailPattern)
	if err != nil {
		return nil, fmt.Errorf("webchat: email pattern: %w", err)
	}
	phone, err := regexp.Compile(phonePattern)
	if err != nil {
		return nil, fmt.Errorf("webchat: phone pattern: %w", err)
	}
	return &Detector{email: email, phone: phone}, nil
}

// Detect reports whether text contains an email or phone.
func (d *Detector) Detect(text string) (ContactMatch, bool) {
	m := ContactMatch{
		Email: d.email.FindString(text),
		Phone: d.phone.FindString(text),
	}
	return m, m.Email != "" || m.Phone != ""
}
