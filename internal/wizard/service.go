package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garanley/claims-intake/internal/conversation"
	"github.com/garanley/claims-intake/internal/leads"
	"github.com/garanley/claims-intake/internal/observability/metrics"
	"github.com/garanley/claims-intake/internal/sessions"
	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LeadSubmitter records a lead without reporting delivery failures.
type LeadSubmitter interface {
	Submit(ctx context.Context, rec leads.Record)
}

// Inference produces the result text. Both calls always return text.
type Inference interface {
	AnalyzeCase(ctx context.Context, description string) string
	EstimateCompensation(ctx context.Context, in conversation.CompensationInput) string
}

// Config tunes the wizard timings and result links.
type Config struct {
	ScanDuration time.Duration
	ScheduleURL  string
	// SubmitTimeout bounds how long a submission may stay in flight.
	SubmitTimeout time.Duration
}

// View is the client-facing projection of a State.
type View struct {
	ID            string   `json:"id"`
	Variant       Variant  `json:"variant"`
	Step          Step     `json:"step"`
	StepIndex     int      `json:"step_index"`
	Steps         []Step   `json:"steps"`
	Answers       Answers  `json:"answers"`
	Contact       Contact  `json:"contact"`
	PhoneError    bool     `json:"phone_error"`
	Submitting    bool     `json:"submitting"`
	ResultText    string   `json:"result_text"`
	ScanProgress  int      `json:"scan_progress"`
	ScanLabel     string   `json:"scan_label,omitempty"`
	SecondOpinion bool     `json:"second_opinion_suggested,omitempty"`
	ScheduleURL   string   `json:"schedule_url,omitempty"`
	AccidentTypes []string `json:"accident_types,omitempty"`
	LegalStatuses []string `json:"legal_defense_statuses,omitempty"`
}

// Service runs wizards stored in a session store.
type Service struct {
	store     sessions.Store
	locker    *sessions.Locker
	leads     LeadSubmitter
	inference Inference
	cfg       Config
	now       func() time.Time
	newID     func() string
	logger    *logging.Logger
	metrics   *metrics.WizardMetrics
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithMetrics(m *metrics.WizardMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store sessions.Store, leadSubmitter LeadSubmitter, inference Inference, cfg Config, logger *logging.Logger, opts ...Option) *Service {
	if store == nil || leadSubmitter == nil || inference == nil {
		panic("wizard: store, lead submitter and inference are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ScanDuration <= 0 {
		cfg.ScanDuration = 2 * time.Second
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 5 * time.Minute
	}
	s := &Service{
		store:     store,
		locker:    sessions.NewLocker(),
		leads:     leadSubmitter,
		inference: inference,
		cfg:       cfg,
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
		logger:    logger.WithComponent("wizard"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new wizard of the given variant.
func (s *Service) Create(ctx context.Context, variant Variant) (View, error) {
	st := NewState(s.newID(), variant)
	if err := s.save(ctx, &st); err != nil {
		return View{}, err
	}
	return s.view(&st), nil
}

// Get returns the wizard, applying the scan auto-transition when due.
func (s *Service) Get(ctx context.Context, variant Variant, id string) (View, error) {
	return s.mutate(ctx, variant, id, func(*State) error { return nil })
}

// UpdateAnswers merges answers without moving the step.
func (s *Service) UpdateAnswers(ctx context.Context, variant Variant, id string, patch AnswersPatch) (View, error) {
	return s.mutate(ctx, variant, id, func(st *State) error { return st.Apply(patch) })
}

func (s *Service) Advance(ctx context.Context, variant Variant, id string) (View, error) {
	return s.mutate(ctx, variant, id, func(st *State) error { return st.Advance(s.now()) })
}

func (s *Service) Retreat(ctx context.Context, variant Variant, id string) (View, error) {
	return s.mutate(ctx, variant, id, func(st *State) error { return st.Retreat() })
}

// Reset always succeeds on an existing wizard. A submission still running
// is orphaned and its result discarded.
func (s *Service) Reset(ctx context.Context, variant Variant, id string) (View, error) {
	return s.mutate(ctx, variant, id, func(st *State) error {
		st.Reset()
		return nil
	})
}

// SubmitContact validates contact details, then records the lead and asks
// for the result text concurrently, waiting for both. External failures
// never fail the submission.
func (s *Service) SubmitContact(ctx context.Context, variant Variant, id string, contact Contact) (View, error) {
	submissionID := s.newID()

	var started State
	view, err := s.mutate(ctx, variant, id, func(st *State) error {
		if err := st.BeginSubmit(contact, submissionID); err != nil {
			return err
		}
		st.SubmittedAt = s.now()
		started = *st
		return nil
	})
	if err != nil {
		s.metrics.ObserveSubmission(string(variant), submissionStatus(err))
		return view, err
	}
	s.metrics.ObserveSubmission(string(variant), "accepted")

	// The request may go away; the calls still run to completion.
	runCtx := context.WithoutCancel(ctx)
	result := s.run(runCtx, &started)

	view, err = s.mutate(runCtx, variant, id, func(st *State) error {
		if !st.CompleteSubmit(submissionID, result) {
			s.logger.Info("wizard moved on before submission finished, discarding result", "wizard_id", id)
		}
		return nil
	})
	if err != nil {
		return View{}, fmt.Errorf("wizard: store result: %w", err)
	}
	return view, nil
}

func (s *Service) run(ctx context.Context, st *State) string {
	var (
		g      errgroup.Group
		result string
	)
	g.Go(func() error {
		s.leads.Submit(ctx, st.LeadRecord())
		return nil
	})
	g.Go(func() error {
		if st.Variant == VariantCalculator {
			result = s.inference.EstimateCompensation(ctx, st.CompensationInput())
		} else {
			result = s.inference.AnalyzeCase(ctx, st.Answers.Description)
		}
		return nil
	})
	_ = g.Wait()
	return result
}

// mutate loads the wizard under its lock, refreshes timed transitions,
// applies fn and saves. The state is saved even when fn fails so flags such
// as PhoneError persist; fn must leave the state consistent on error.
func (s *Service) mutate(ctx context.Context, variant Variant, id string, fn func(*State) error) (View, error) {
	unlock := s.locker.Lock(string(variant) + ":" + id)
	defer unlock()

	var st State
	if err := s.store.Load(ctx, kind(variant), id, &st); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return View{}, err
		}
		return View{}, fmt.Errorf("wizard: load: %w", err)
	}
	if st.Variant != variant {
		return View{}, sessions.ErrNotFound
	}

	before := st
	now := s.now()
	st.Refresh(now, s.cfg.ScanDuration)
	if st.ExpireSubmission(now, s.cfg.SubmitTimeout) {
		s.logger.Warn("wizard submission timed out, contact step open again", "wizard_id", id)
	}
	opErr := fn(&st)
	if st != before {
		if err := s.save(ctx, &st); err != nil {
			return View{}, err
		}
	}
	return s.view(&st), opErr
}

func (s *Service) save(ctx context.Context, st *State) error {
	if err := s.store.Save(ctx, kind(st.Variant), st.ID, st); err != nil {
		s.logger.Error("failed to save wizard", "error", err, "wizard_id", st.ID)
		return fmt.Errorf("wizard: save: %w", err)
	}
	return nil
}

func (s *Service) view(st *State) View {
	pct, label := st.ScanProgress(s.now(), s.cfg.ScanDuration)
	v := View{
		ID:           st.ID,
		Variant:      st.Variant,
		Step:         st.Step,
		StepIndex:    st.StepIndex(),
		Steps:        st.Variant.Steps(),
		Answers:      st.Answers,
		Contact:      st.Contact,
		PhoneError:   st.PhoneError,
		Submitting:   st.Submitting,
		ResultText:   st.ResultText,
		ScanProgress: pct,
		ScanLabel:    label,
	}
	if st.Variant == VariantCalculator {
		v.AccidentTypes = AccidentTypes
		v.LegalStatuses = LegalDefenseStatuses
	}
	if st.Step == StepResult {
		v.ScheduleURL = s.cfg.ScheduleURL
		v.SecondOpinion = st.Variant == VariantCalculator && st.SecondOpinionSuggested()
	}
	return v
}

func kind(v Variant) string {
	return "wizard_" + string(v)
}

func submissionStatus(err error) string {
	switch {
	case errors.Is(err, ErrInvalidPhone):
		return "invalid_phone"
	case errors.Is(err, ErrContactIncomplete):
		return "incomplete"
	case errors.Is(err, ErrSubmissionInFlight):
		return "in_flight"
	case errors.Is(err, ErrWrongStep):
		return "wrong_step"
	default:
		return "error"
	}
}
