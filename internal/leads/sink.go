package leads

import (
	"context"
	"errors"
	"fmt"
)

// Sink durably records a lead somewhere outside this process.
type Sink interface {
	Name() string
	Record(ctx context.Context, rec Record) error
}

// MultiSink fans a record out to every configured sink in order. All sinks
// are attempted; failures are joined.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	out := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{sinks: out}
}

func (m *MultiSink) Name() string { return "multi" }

// Len returns the number of configured sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Record(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
