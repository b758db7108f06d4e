package wizard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/garanley/claims-intake/internal/conversation"
	"github.com/garanley/claims-intake/internal/leads"
	"github.com/garanley/claims-intake/internal/sessions"
	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingLeads struct {
	mu      sync.Mutex
	records []leads.Record
}

func (r *recordingLeads) Submit(_ context.Context, rec leads.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recordingLeads) all() []leads.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]leads.Record(nil), r.records...)
}

type fakeInference struct {
	mu        sync.Mutex
	analyses  []string
	estimates []conversation.CompensationInput
	text      string
	started   chan struct{}
	release   chan struct{}
}

func (f *fakeInference) wait(ctx context.Context) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
}

func (f *fakeInference) AnalyzeCase(ctx context.Context, description string) string {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyses = append(f.analyses, description)
	return f.text
}

func (f *fakeInference) EstimateCompensation(ctx context.Context, in conversation.CompensationInput) string {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.estimates = append(f.estimates, in)
	return f.text
}

func (f *fakeInference) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.analyses) + len(f.estimates)
}

type harness struct {
	svc       *Service
	clock     *fakeClock
	leads     *recordingLeads
	inference *fakeInference
}

func newHarness(t *testing.T, inf *fakeInference) *harness {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)}
	rec := &recordingLeads{}
	svc := NewService(sessions.NewMemoryStore(time.Hour), rec, inf,
		Config{ScanDuration: 2 * time.Second, ScheduleURL: "https://cal.example/30min"},
		logging.Discard(), WithClock(clock.Now))
	return &harness{svc: svc, clock: clock, leads: rec, inference: inf}
}

func (h *harness) toContactStep(t *testing.T, description string) View {
	t.Helper()
	ctx := context.Background()
	view, err := h.svc.Create(ctx, VariantAnalysis)
	require.NoError(t, err)

	_, err = h.svc.Advance(ctx, VariantAnalysis, view.ID)
	require.ErrorIs(t, err, ErrStepIncomplete)

	_, err = h.svc.UpdateAnswers(ctx, VariantAnalysis, view.ID, AnswersPatch{Description: &description})
	require.NoError(t, err)
	view, err = h.svc.Advance(ctx, VariantAnalysis, view.ID)
	require.NoError(t, err)
	require.Equal(t, StepScanning, view.Step)

	h.clock.Advance(2 * time.Second)
	view, err = h.svc.Get(ctx, VariantAnalysis, view.ID)
	require.NoError(t, err)
	require.Equal(t, StepContact, view.Step)
	return view
}

func TestAnalysisSubmission_HappyPath(t *testing.T) {
	h := newHarness(t, &fakeInference{text: "Tu caso es claramente viable."})
	ctx := context.Background()
	view := h.toContactStep(t, "Choqué por detrás en un semáforo")

	view, err := h.svc.SubmitContact(ctx, VariantAnalysis, view.ID, Contact{Name: "Juan", Phone: "612345678", Email: "a@b.com"})
	require.NoError(t, err)

	assert.Equal(t, StepResult, view.Step)
	assert.Equal(t, "Tu caso es claramente viable.", view.ResultText)
	assert.False(t, view.Submitting)
	assert.False(t, view.PhoneError)
	assert.Equal(t, "https://cal.example/30min", view.ScheduleURL)

	recs := h.leads.all()
	require.Len(t, recs, 1)
	assert.Equal(t, leads.OriginHeroWizard, recs[0].Origin)
	assert.Equal(t, "Choqué por detrás en un semáforo", recs[0].Message)
	assert.Equal(t, []string{"Choqué por detrás en un semáforo"}, h.inference.analyses)

	stored, err := h.svc.Get(ctx, VariantAnalysis, view.ID)
	require.NoError(t, err)
	assert.Equal(t, StepResult, stored.Step)
}

func TestAnalysisSubmission_InvalidPhoneMakesNoCalls(t *testing.T) {
	h := newHarness(t, &fakeInference{text: "x"})
	ctx := context.Background()
	view := h.toContactStep(t, "Choqué por detrás en un semáforo")

	view, err := h.svc.SubmitContact(ctx, VariantAnalysis, view.ID, Contact{Name: "Juan", Phone: "12345", Email: "a@b.com"})
	require.ErrorIs(t, err, ErrInvalidPhone)
	assert.Equal(t, StepContact, view.Step)
	assert.True(t, view.PhoneError)

	assert.Empty(t, h.leads.all())
	assert.Zero(t, h.inference.calls())

	stored, err := h.svc.Get(ctx, VariantAnalysis, view.ID)
	require.NoError(t, err)
	assert.True(t, stored.PhoneError)
}

func TestCalculatorSubmission(t *testing.T) {
	h := newHarness(t, &fakeInference{text: "**Estimamos entre 1.000€ y 2.000€**"})
	ctx := context.Background()

	view, err := h.svc.Create(ctx, VariantCalculator)
	require.NoError(t, err)
	assert.Equal(t, AccidentTypes, view.AccidentTypes)
	id := view.ID

	_, err = h.svc.UpdateAnswers(ctx, VariantCalculator, id, AnswersPatch{
		AccidentType:       ptr("Negligencia"),
		HasMaterialDamages: ptr(false),
		HasInjuries:        ptr(true),
		DaysHospital:       ptr(3),
		DaysRehab:          ptr(-2),
		HasLegalDefense:    ptr(true),
		LegalDefenseStatus: ptr(LegalDefenseStatuses[2]),
	})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		view, err = h.svc.Advance(ctx, VariantCalculator, id)
		require.NoError(t, err)
	}
	require.Equal(t, StepContactAndReveal, view.Step)

	view, err = h.svc.SubmitContact(ctx, VariantCalculator, id, Contact{Phone: "680 885 637", Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, StepResult, view.Step)
	assert.Equal(t, "**Estimamos entre 1.000€ y 2.000€**", view.ResultText)
	assert.True(t, view.SecondOpinion)

	require.Len(t, h.inference.estimates, 1)
	assert.Equal(t, 0, h.inference.estimates[0].DaysRehab)
	recs := h.leads.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "Días: ICU(0) Hosp(3) Rehab(0) | Situación: No estoy conforme con mi defensa actual", recs[0].Extra)
}

func TestSubmission_InFlightAndResetDiscardsResult(t *testing.T) {
	inf := &fakeInference{text: "tarde", started: make(chan struct{}, 1), release: make(chan struct{})}
	h := newHarness(t, inf)
	ctx := context.Background()
	view := h.toContactStep(t, "me caí")
	contact := Contact{Name: "Ana", Phone: "699111222", Email: "ana@b.es"}

	type result struct {
		view View
		err  error
	}
	done := make(chan result, 1)
	go func() {
		v, err := h.svc.SubmitContact(ctx, VariantAnalysis, view.ID, contact)
		done <- result{v, err}
	}()
	<-inf.started

	current, err := h.svc.Get(ctx, VariantAnalysis, view.ID)
	require.NoError(t, err)
	assert.True(t, current.Submitting)

	_, err = h.svc.SubmitContact(ctx, VariantAnalysis, view.ID, contact)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	_, err = h.svc.Retreat(ctx, VariantAnalysis, view.ID)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	reset, err := h.svc.Reset(ctx, VariantAnalysis, view.ID)
	require.NoError(t, err)
	assert.Equal(t, StepDescription, reset.Step)

	close(inf.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, StepDescription, res.view.Step)
	assert.Empty(t, res.view.ResultText)
	assert.Len(t, h.leads.all(), 1)
}

func TestSubmission_StaleInFlightExpires(t *testing.T) {
	inf := &fakeInference{text: "resultado", started: make(chan struct{}, 1), release: make(chan struct{})}
	h := newHarness(t, inf)
	ctx := context.Background()
	view := h.toContactStep(t, "me caí")
	contact := Contact{Name: "Ana", Phone: "699111222", Email: "ana@b.es"}

	done := make(chan View, 1)
	go func() {
		v, _ := h.svc.SubmitContact(ctx, VariantAnalysis, view.ID, contact)
		done <- v
	}()
	<-inf.started

	h.clock.Advance(time.Minute)
	_, err := h.svc.Retreat(ctx, VariantAnalysis, view.ID)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	h.clock.Advance(24 * time.Hour)
	current, err := h.svc.Get(ctx, VariantAnalysis, view.ID)
	require.NoError(t, err)
	assert.False(t, current.Submitting)
	assert.Equal(t, StepContact, current.Step)

	close(inf.release)
	late := <-done
	assert.Equal(t, StepContact, late.Step, "late result is dropped")
	assert.Empty(t, late.ResultText)

	again, err := h.svc.SubmitContact(ctx, VariantAnalysis, view.ID, contact)
	require.NoError(t, err)
	assert.Equal(t, StepResult, again.Step)
	assert.Equal(t, "resultado", again.ResultText)
}

func TestSubmission_SurvivesRequestCancellation(t *testing.T) {
	h := newHarness(t, &fakeInference{text: "ok"})
	view := h.toContactStep(t, "me caí")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	view, err := h.svc.SubmitContact(ctx, VariantAnalysis, view.ID, Contact{Name: "Ana", Phone: "699111222", Email: "ana@b.es"})
	require.NoError(t, err)
	assert.Equal(t, StepResult, view.Step)
}

func TestService_UnknownAndMismatchedSessions(t *testing.T) {
	h := newHarness(t, &fakeInference{})
	ctx := context.Background()

	_, err := h.svc.Get(ctx, VariantAnalysis, "missing")
	assert.ErrorIs(t, err, sessions.ErrNotFound)

	view, err := h.svc.Create(ctx, VariantAnalysis)
	require.NoError(t, err)
	_, err = h.svc.Get(ctx, VariantCalculator, view.ID)
	assert.ErrorIs(t, err, sessions.ErrNotFound)
}
