package leads

import (
	"context"
	"time"

	"github.com/garanley/claims-intake/internal/observability/metrics"
	"github.com/garanley/claims-intake/pkg/logging"
)

// Recorder is the fire-and-forget front door to the lead sinks. It stamps
// the timestamp, delivers, and only logs failures.
type Recorder struct {
	sink    Sink
	loc     *time.Location
	now     func() time.Time
	logger  *logging.Logger
	metrics *metrics.LeadMetrics
}

// RecorderOption customizes a Recorder.
type RecorderOption func(*Recorder)

// WithLocation sets the zone used for the timestamp column.
func WithLocation(loc *time.Location) RecorderOption {
	return func(r *Recorder) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

func WithMetrics(m *metrics.LeadMetrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

func NewRecorder(sink Sink, logger *logging.Logger, opts ...RecorderOption) *Recorder {
	if logger == nil {
		logger = logging.Default()
	}
	r := &Recorder{
		sink:   sink,
		loc:    time.UTC,
		now:    time.Now,
		logger: logger.WithComponent("leads"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit delivers rec and waits for the sinks. Errors are logged, never returned.
func (r *Recorder) Submit(ctx context.Context, rec Record) {
	if rec.Timestamp == "" {
		rec.Timestamp = FormatTimestamp(r.now().In(r.loc))
	}
	if r.sink == nil {
		r.logger.Warn("no lead sink configured, dropping lead", "origin", rec.Origin)
		r.metrics.ObserveRecorded(rec.Origin, ErrNoSink)
		return
	}
	err := r.sink.Record(ctx, rec)
	r.metrics.ObserveRecorded(rec.Origin, err)
	if err != nil {
		r.logger.Error("lead delivery failed", "error", err, "origin", rec.Origin)
		return
	}
	r.logger.Info("lead recorded", "origin", rec.Origin, "has_phone", rec.Phone != "", "has_email", rec.Email != "")
}
