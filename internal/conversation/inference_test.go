package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/garanley/claims-intake/internal/observability/metrics"
	"github.com/garanley/claims-intake/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLLM struct {
	mu       sync.Mutex
	requests []LLMRequest
	text     string
	err      error
}

func (s *stubLLM) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return LLMResponse{}, s.err
	}
	return LLMResponse{Text: s.text}, nil
}

func (s *stubLLM) last() LLMRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func newTestService(llm LLMClient) *Service {
	return NewService(llm, Models{Reasoning: "pro", Fast: "flash"}, logging.Discard())
}

func TestAnalyzeCase(t *testing.T) {
	llm := &stubLLM{text: "  Tu caso es viable.  "}
	svc := newTestService(llm)

	got := svc.AnalyzeCase(context.Background(), "Choqué por detrás en un semáforo")

	assert.Equal(t, "Tu caso es viable.", got)
	req := llm.last()
	assert.Equal(t, "pro", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Choqué por detrás en un semáforo")
	assert.Contains(t, req.System[0], "jurisprudencia española")
}

func TestSingleTurnShapesFallBack(t *testing.T) {
	cases := []struct {
		name      string
		call      func(*Service) string
		empty     string
		errorText string
		model     string
	}{
		{"analyze", func(s *Service) string { return s.AnalyzeCase(context.Background(), "x") }, analysisEmptyFallback, analysisErrorFallback, "pro"},
		{"estimate", func(s *Service) string { return s.EstimateCompensation(context.Background(), CompensationInput{}) }, estimateEmptyFallback, estimateErrorFallback, "pro"},
		{"faq", func(s *Service) string { return s.AskFAQ(context.Background(), "¿Cuánto cobráis?") }, faqEmptyFallback, faqErrorFallback, "flash"},
		{"process", func(s *Service) string { return s.AskProcess(context.Background(), "¿Cuánto tarda?") }, processEmptyFallback, processErrorFallback, "flash"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			empty := &stubLLM{text: "   "}
			assert.Equal(t, tc.empty, tc.call(newTestService(empty)))
			assert.Equal(t, tc.model, empty.last().Model)

			failing := &stubLLM{err: errors.New("503")}
			assert.Equal(t, tc.errorText, tc.call(newTestService(failing)))
		})
	}
}

func TestEstimateCompensationPrompt(t *testing.T) {
	llm := &stubLLM{text: "**Estimamos entre 3.000€ y 5.000€**"}
	svc := newTestService(llm)
	yes, no := true, false

	got := svc.EstimateCompensation(context.Background(), CompensationInput{
		AccidentType:       "Trafico",
		HasMaterialDamages: &yes,
		HasInjuries:        &yes,
		DaysICU:            2,
		DaysHospital:       5,
		DaysRehab:          30,
		HasLegalDefense:    &no,
	})

	assert.Equal(t, "**Estimamos entre 3.000€ y 5.000€**", got)
	prompt := llm.last().Messages[0].Content
	assert.Contains(t, prompt, "- Tipo: Trafico")
	assert.Contains(t, prompt, "- Daños materiales: SÍ")
	assert.Contains(t, prompt, "- Días en UCI (Perjuicio Muy Grave): 2")
	assert.Contains(t, prompt, "- Días de Rehabilitación/Baja (Perjuicio Moderado): 30")
	assert.Contains(t, prompt, "- Tiene abogado: NO")
	assert.Contains(t, prompt, "- Detalle legal: N/A")
	assert.Contains(t, llm.last().System[0], "UCI ~128€/día")
}

func TestChat_MapsHistoryAndExtractsSchedule(t *testing.T) {
	llm := &stubLLM{text: "Perfecto Ana, ya tengo tus datos. [SCHEDULE]"}
	svc := newTestService(llm)

	reply, err := svc.Chat(context.Background(), "ana@b.es 699111222", []ChatMessage{
		{Role: ChatRoleAssistant, Content: "Hola"},
		{Role: ChatRoleUser, Content: "Hola, soy Ana"},
		{Role: ChatRoleSystem, Content: "ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, ChatReply{Text: "Perfecto Ana, ya tengo tus datos.", ShowSchedule: true}, reply)

	req := llm.last()
	require.Len(t, req.Messages, 3)
	assert.Equal(t, ChatRoleAssistant, req.Messages[0].Role)
	assert.Equal(t, ChatMessage{Role: ChatRoleUser, Content: "ana@b.es 699111222"}, req.Messages[2])
	assert.Contains(t, req.System[0], "Eres Eva")
}

func TestChat_PropagatesFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := newTestService(&stubLLM{err: boom})

	_, err := svc.Chat(context.Background(), "hola", nil)
	assert.ErrorIs(t, err, boom)

	_, err = newTestService(&stubLLM{text: ""}).Chat(context.Background(), "hola", nil)
	assert.ErrorIs(t, err, ErrEmptyReply)
}

func TestChat_SendsWholeTranscript(t *testing.T) {
	llm := &stubLLM{text: "ok"}
	svc := newTestService(llm)
	history := make([]ChatMessage, 50)
	for i := range history {
		role := ChatRoleUser
		if i%2 == 1 {
			role = ChatRoleAssistant
		}
		history[i] = ChatMessage{Role: role, Content: fmt.Sprintf("m%d", i)}
	}

	_, err := svc.Chat(context.Background(), "último", history)
	require.NoError(t, err)

	sent := llm.last().Messages
	require.Len(t, sent, 51)
	assert.Equal(t, "m0", sent[0].Content)
	assert.Equal(t, "m49", sent[49].Content)
	assert.Equal(t, ChatMessage{Role: ChatRoleUser, Content: "último"}, sent[50])
}

func TestService_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewInferenceMetrics(reg)
	svc := NewService(&stubLLM{err: errors.New("down")}, Models{}, logging.Discard(), WithInferenceMetrics(m))

	svc.AskFAQ(context.Background(), "¿?")

	count, err := testutil.GatherAndCount(reg, "claims_intake_inference_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExtractSchedule(t *testing.T) {
	text, ok := extractSchedule("Hola [SCHEDULE] adiós [SCHEDULE]")
	assert.True(t, ok)
	assert.Equal(t, "Hola  adiós", text)

	text, ok = extractSchedule(" sin marca ")
	assert.False(t, ok)
	assert.Equal(t, "sin marca", text)
}

func TestYesNo(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, "SÍ", YesNo(&yes))
	assert.Equal(t, "NO", YesNo(&no))
	assert.Equal(t, "NO", YesNo(nil))
}
