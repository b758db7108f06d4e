package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "claims_intake"

// LeadMetrics counts lead deliveries per origin.
type LeadMetrics struct {
	recordedTotal *prometheus.CounterVec
}

func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		recordedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "recorded_total",
			Help:      "Lead records handed to the lead sinks",
		}, []string{"origin", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.recordedTotal)
	return m
}

func (m *LeadMetrics) ObserveRecorded(origin string, err error) {
	if m == nil {
		return
	}
	m.recordedTotal.WithLabelValues(origin, statusLabel(err)).Inc()
}

// InferenceMetrics tracks calls to the hosted model per call shape.
type InferenceMetrics struct {
	callsTotal  *prometheus.CounterVec
	callLatency *prometheus.HistogramVec
}

func NewInferenceMetrics(reg prometheus.Registerer) *InferenceMetrics {
	m := &InferenceMetrics{
		callsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "calls_total",
			Help:      "Calls to the inference provider",
		}, []string{"kind", "outcome"}),
		callLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "call_latency_seconds",
			Help:      "Latency of inference provider calls",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.callsTotal, m.callLatency)
	return m
}

// ObserveCall records one call. outcome is "ok", "empty" or "error".
func (m *InferenceMetrics) ObserveCall(kind, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(kind, outcome).Inc()
	m.callLatency.WithLabelValues(kind).Observe(seconds)
}

// ChatMetrics covers the chat widget.
type ChatMetrics struct {
	messagesTotal   *prometheus.CounterVec
	contactDetected *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_total",
			Help:      "Chat messages appended to transcripts",
		}, []string{"role"}),
		contactDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "contact_detected_total",
			Help:      "User messages that contained contact details",
		}, []string{"kind", "captured"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.contactDetected)
	return m
}

func (m *ChatMetrics) ObserveMessage(role string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(role).Inc()
}

func (m *ChatMetrics) ObserveContact(kind string, captured bool) {
	if m == nil {
		return
	}
	label := "false"
	if captured {
		label = "true"
	}
	m.contactDetected.WithLabelValues(kind, label).Inc()
}

// WizardMetrics counts wizard submissions per variant.
type WizardMetrics struct {
	submissionsTotal *prometheus.CounterVec
}

func NewWizardMetrics(reg prometheus.Registerer) *WizardMetrics {
	m := &WizardMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wizard",
			Name:      "submissions_total",
			Help:      "Wizard contact submissions",
		}, []string{"variant", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal)
	return m
}

// ObserveSubmission status is "accepted" or a rejection reason such as "invalid_phone".
func (m *WizardMetrics) ObserveSubmission(variant, status string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(variant, status).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
