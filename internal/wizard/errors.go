package wizard

import "errors"

var (
	// ErrStepIncomplete is returned by Advance when the current step's
	// required answers are missing. The step does not change.
	ErrStepIncomplete = errors.New("wizard: current step is incomplete")

	// ErrWrongStep is returned when an operation does not apply to the current step.
	ErrWrongStep = errors.New("wizard: operation not allowed at this step")

	// ErrContactIncomplete is returned when a required contact field is blank.
	ErrContactIncomplete = errors.New("wizard: contact details are incomplete")

	// ErrInvalidPhone is returned when the phone does not have nine digits.
	ErrInvalidPhone = errors.New("wizard: phone must contain exactly 9 digits")

	// ErrInvalidAnswer is returned for an answer outside its allowed values.
	ErrInvalidAnswer = errors.New("wizard: invalid answer")

	// ErrSubmissionInFlight is returned while a contact submission is running.
	ErrSubmissionInFlight = errors.New("wizard: submission already in progress")

	// ErrUnknownVariant is returned for a variant name that does not exist.
	ErrUnknownVariant = errors.New("wizard: unknown variant")
)
