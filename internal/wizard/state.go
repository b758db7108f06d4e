// Package wizard implements the two lead-qualification wizards: the quick
// case analysis and the compensation calculator. State is a plain value
// moved through a fixed step sequence; Service persists it per session and
// runs the contact submission.
package wizard

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/garanley/claims-intake/internal/conversation"
	"github.com/garanley/claims-intake/internal/leads"
)

// Variant selects the wizard shape.
type Variant string

const (
	VariantAnalysis   Variant = "analysis"
	VariantCalculator Variant = "calculator"
)

// ParseVariant validates a variant name from a URL.
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantAnalysis, VariantCalculator:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// Step is a position in a variant's sequence.
type Step string

const (
	StepDescription Step = "description"
	StepScanning    Step = "scanning"
	StepContact     Step = "contact"

	StepAccidentType       Step = "accident_type"
	StepDamagesAndInjuries Step = "damages_and_injuries"
	StepLegalDefense       Step = "legal_defense"
	StepContactAndReveal   Step = "contact_and_reveal"

	StepResult Step = "result"
)

var (
	analysisSteps   = []Step{StepDescription, StepScanning, StepContact, StepResult}
	calculatorSteps = []Step{StepAccidentType, StepDamagesAndInjuries, StepLegalDefense, StepContactAndReveal, StepResult}
)

// Steps returns the ordered sequence for v.
func (v Variant) Steps() []Step {
	if v == VariantCalculator {
		return calculatorSteps
	}
	return analysisSteps
}

func (v Variant) contactStep() Step {
	if v == VariantCalculator {
		return StepContactAndReveal
	}
	return StepContact
}

// AccidentTypes are the calculator's accident categories.
var AccidentTypes = []string{"Trafico", "Laboral", "Negligencia", "Caida", "Otro"}

// LegalDefenseStatuses are the answers offered when the user already has a lawyer.
var LegalDefenseStatuses = []string{
	"He contratado al abogado de mi aseguradora",
	"He contratado a un abogado externo",
	"No estoy conforme con mi defensa actual",
}

// Answers holds every question key of both variants. Unset booleans are nil.
type Answers struct {
	Description        string `json:"description,omitempty"`
	AccidentType       string `json:"accident_type,omitempty"`
	HasMaterialDamages *bool  `json:"has_material_damages"`
	HasInjuries        *bool  `json:"has_injuries"`
	DaysICU            int    `json:"days_icu"`
	DaysHospital       int    `json:"days_hospital"`
	DaysRehab          int    `json:"days_rehab"`
	HasLegalDefense    *bool  `json:"has_legal_defense"`
	LegalDefenseStatus string `json:"legal_defense_status,omitempty"`
}

// AnswersPatch updates only the fields that are present.
type AnswersPatch struct {
	Description        *string `json:"description"`
	AccidentType       *string `json:"accident_type"`
	HasMaterialDamages *bool   `json:"has_material_damages"`
	HasInjuries        *bool   `json:"has_injuries"`
	DaysICU            *int    `json:"days_icu"`
	DaysHospital       *int    `json:"days_hospital"`
	DaysRehab          *int    `json:"days_rehab"`
	HasLegalDefense    *bool   `json:"has_legal_defense"`
	LegalDefenseStatus *string `json:"legal_defense_status"`
}

// Contact is collected at the variant's contact step.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// State is one wizard instance.
type State struct {
	ID            string    `json:"id"`
	Variant       Variant   `json:"variant"`
	Step          Step      `json:"step"`
	Answers       Answers   `json:"answers"`
	Contact       Contact   `json:"contact"`
	PhoneError    bool      `json:"phone_error"`
	Submitting    bool      `json:"submitting"`
	SubmissionID  string    `json:"submission_id,omitempty"`
	SubmittedAt   time.Time `json:"submitted_at,omitempty"`
	ResultText    string    `json:"result_text"`
	ScanStartedAt time.Time `json:"scan_started_at,omitempty"`
}

// NewState returns a wizard at its first step.
func NewState(id string, variant Variant) State {
	return State{ID: id, Variant: variant, Step: variant.Steps()[0]}
}

// StepIndex is the zero-based position of the current step.
func (s *State) StepIndex() int {
	for i, step := range s.Variant.Steps() {
		if step == s.Step {
			return i
		}
	}
	return 0
}

// Apply merges a patch into the answers. Day counts clamp at zero.
func (s *State) Apply(p AnswersPatch) error {
	if s.Submitting {
		return ErrSubmissionInFlight
	}
	if p.AccidentType != nil && *p.AccidentType != "" && !slices.Contains(AccidentTypes, *p.AccidentType) {
		return fmt.Errorf("%w: accident_type %q", ErrInvalidAnswer, *p.AccidentType)
	}
	if p.LegalDefenseStatus != nil && *p.LegalDefenseStatus != "" && !slices.Contains(LegalDefenseStatuses, *p.LegalDefenseStatus) {
		return fmt.Errorf("%w: legal_defense_status %q", ErrInvalidAnswer, *p.LegalDefenseStatus)
	}

	a := &s.Answers
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.AccidentType != nil {
		a.AccidentType = *p.AccidentType
	}
	if p.HasMaterialDamages != nil {
		a.HasMaterialDamages = boolPtr(*p.HasMaterialDamages)
	}
	if p.HasInjuries != nil {
		a.HasInjuries = boolPtr(*p.HasInjuries)
	}
	if p.DaysICU != nil {
		a.DaysICU = max(0, *p.DaysICU)
	}
	if p.DaysHospital != nil {
		a.DaysHospital = max(0, *p.DaysHospital)
	}
	if p.DaysRehab != nil {
		a.DaysRehab = max(0, *p.DaysRehab)
	}
	if p.HasLegalDefense != nil {
		a.HasLegalDefense = boolPtr(*p.HasLegalDefense)
	}
	if p.LegalDefenseStatus != nil {
		a.LegalDefenseStatus = *p.LegalDefenseStatus
	}
	return nil
}

// Advance moves one step forward when the current step's gate passes.
// Leaving the description step starts the scan clock.
func (s *State) Advance(now time.Time) error {
	if s.Submitting {
		return ErrSubmissionInFlight
	}
	a := s.Answers
	switch s.Step {
	case StepDescription:
		if strings.TrimSpace(a.Description) == "" {
			return ErrStepIncomplete
		}
		s.Step = StepScanning
		s.ScanStartedAt = now
	case StepAccidentType:
		if a.AccidentType == "" {
			return ErrStepIncomplete
		}
		s.Step = StepDamagesAndInjuries
	case StepDamagesAndInjuries:
		if a.HasMaterialDamages == nil || a.HasInjuries == nil {
			return ErrStepIncomplete
		}
		s.Step = StepLegalDefense
	case StepLegalDefense:
		if a.HasLegalDefense == nil || (*a.HasLegalDefense && a.LegalDefenseStatus == "") {
			return ErrStepIncomplete
		}
		s.Step = StepContactAndReveal
	default:
		// scanning, contact and result are left by the timer or a submission
		return ErrWrongStep
	}
	return nil
}

// Retreat moves one step back, keeping every answer. It is a no-op at the
// first step. The analysis scan is never re-entered backwards.
func (s *State) Retreat() error {
	if s.Submitting {
		return ErrSubmissionInFlight
	}
	idx := s.StepIndex()
	if idx == 0 {
		return nil
	}
	prev := s.Variant.Steps()[idx-1]
	if prev == StepScanning {
		prev = StepDescription
	}
	s.Step = prev
	if prev == StepDescription {
		s.ScanStartedAt = time.Time{}
	}
	return nil
}

// Reset restores the initial value, keeping only identity.
func (s *State) Reset() {
	*s = NewState(s.ID, s.Variant)
}

// Refresh applies the timed scanning transition. It reports whether the
// state changed.
func (s *State) Refresh(now time.Time, scanDuration time.Duration) bool {
	if s.Step != StepScanning {
		return false
	}
	if now.Sub(s.ScanStartedAt) < scanDuration {
		return false
	}
	s.Step = StepContact
	return true
}

// ScanProgress reports percentage (in steps of 2) and label of the scan.
func (s *State) ScanProgress(now time.Time, scanDuration time.Duration) (int, string) {
	if s.Step != StepScanning {
		if s.StepIndex() > 1 && s.Variant == VariantAnalysis {
			return 100, scanLabel(100)
		}
		return 0, ""
	}
	pct := 100
	if scanDuration > 0 {
		pct = int(now.Sub(s.ScanStartedAt) * 100 / scanDuration)
	}
	pct = min(100, max(0, pct)) &^ 1
	return pct, scanLabel(pct)
}

func scanLabel(pct int) string {
	switch {
	case pct < 30:
		return "Analizando palabras clave..."
	case pct < 60:
		return "Buscando jurisprudencia..."
	case pct < 90:
		return "Calculando viabilidad..."
	default:
		return "Generando expediente..."
	}
}

// BeginSubmit validates contact details and marks the state as submitting.
// On a bad phone it sets PhoneError and leaves everything else untouched.
func (s *State) BeginSubmit(c Contact, submissionID string) error {
	if s.Submitting {
		return ErrSubmissionInFlight
	}
	if s.Step != s.Variant.contactStep() {
		return ErrWrongStep
	}
	c = Contact{
		Name:  strings.TrimSpace(c.Name),
		Phone: strings.TrimSpace(c.Phone),
		Email: strings.TrimSpace(c.Email),
	}
	if c.Phone == "" || c.Email == "" || (s.Variant == VariantAnalysis && c.Name == "") {
		return ErrContactIncomplete
	}
	s.Contact = c
	if !leads.ValidatePhone(c.Phone) {
		s.PhoneError = true
		return ErrInvalidPhone
	}
	s.PhoneError = false
	s.Submitting = true
	s.SubmissionID = submissionID
	return nil
}

// CompleteSubmit stores the result of submission id. It reports false when
// the state has moved on (reset, or another submission) in the meantime.
func (s *State) CompleteSubmit(submissionID, resultText string) bool {
	if !s.Submitting || s.SubmissionID != submissionID {
		return false
	}
	s.ResultText = resultText
	s.Step = StepResult
	s.Submitting = false
	s.SubmissionID = ""
	s.SubmittedAt = time.Time{}
	return true
}

// ExpireSubmission abandons a submission started at least timeout ago,
// leaving the wizard at its contact step so the user can submit again. A
// result that arrives afterwards no longer matches and is dropped.
func (s *State) ExpireSubmission(now time.Time, timeout time.Duration) bool {
	if !s.Submitting || now.Sub(s.SubmittedAt) < timeout {
		return false
	}
	s.Submitting = false
	s.SubmissionID = ""
	s.SubmittedAt = time.Time{}
	return true
}

// LeadRecord summarises the answers for the lead sinks.
func (s *State) LeadRecord() leads.Record {
	a := s.Answers
	if s.Variant == VariantCalculator {
		return leads.Record{
			Origin: leads.OriginCalculator,
			Name:   s.Contact.Name,
			Phone:  s.Contact.Phone,
			Email:  s.Contact.Email,
			Message: fmt.Sprintf("Estimación solicitada para: %s. Daños: %s. Lesiones: %s.",
				a.AccidentType, conversation.YesNo(a.HasMaterialDamages), conversation.YesNo(a.HasInjuries)),
			Extra: fmt.Sprintf("Días: ICU(%d) Hosp(%d) Rehab(%d) | Situación: %s",
				a.DaysICU, a.DaysHospital, a.DaysRehab, a.LegalDefenseStatus),
		}
	}
	return leads.Record{
		Origin:  leads.OriginHeroWizard,
		Name:    s.Contact.Name,
		Phone:   s.Contact.Phone,
		Email:   s.Contact.Email,
		Message: a.Description,
		Extra:   "Usuario ha completado el análisis de viabilidad",
	}
}

// CompensationInput maps the calculator answers for the estimate call.
func (s *State) CompensationInput() conversation.CompensationInput {
	a := s.Answers
	return conversation.CompensationInput{
		AccidentType:       a.AccidentType,
		HasMaterialDamages: a.HasMaterialDamages,
		HasInjuries:        a.HasInjuries,
		DaysICU:            a.DaysICU,
		DaysHospital:       a.DaysHospital,
		DaysRehab:          a.DaysRehab,
		HasLegalDefense:    a.HasLegalDefense,
		LegalDefenseStatus: a.LegalDefenseStatus,
	}
}

// SecondOpinionSuggested is true when the user's current defence is the
// insurer's lawyer or one they are unhappy with.
func (s *State) SecondOpinionSuggested() bool {
	status := s.Answers.LegalDefenseStatus
	return strings.Contains(status, "aseguradora") || strings.Contains(status, "No estoy conforme")
}

func boolPtr(b bool) *bool { return &b }
