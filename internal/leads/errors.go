package leads

import "errors"

var (
	// ErrInvalidPhone is returned when a phone does not reduce to nine digits
	ErrInvalidPhone = errors.New("phone must contain exactly 9 digits")

	// ErrInvalidEmail is returned when the email is not a bare address
	ErrInvalidEmail = errors.New("email is not valid")

	// ErrMissingField is returned when a required form field is blank
	ErrMissingField = errors.New("required field is missing")

	// ErrPrivacyNotAccepted is returned when the privacy checkbox was not ticked
	ErrPrivacyNotAccepted = errors.New("privacy policy must be accepted")

	// ErrNoSink is reported when a lead arrives with no sink configured
	ErrNoSink = errors.New("no lead sink configured")

	// ErrArchiveUnavailable is returned by listing when no archive is configured
	ErrArchiveUnavailable = errors.New("lead archive not configured")
)
