package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garanley/claims-intake/internal/observability/metrics"
	"github.com/garanley/claims-intake/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var inferenceTracer = otel.Tracer("claims-intake.internal.conversation.inference")

// ErrEmptyReply is returned by Chat when the model produced no text.
var ErrEmptyReply = errors.New("conversation: model returned an empty reply")

// Call kinds, used as metric labels and span names.
const (
	KindAnalyzeCase  = "analyze_case"
	KindEstimate     = "estimate_compensation"
	KindChat         = "chat"
	KindAskFAQ       = "ask_faq"
	KindAskProcess   = "ask_process"
	defaultMaxTokens = 1024
)

// Models names the model used for each call class. Empty values defer to
// the client's default model.
type Models struct {
	Reasoning string
	Fast      string
}

// ChatReply is an assistant turn with the schedule marker already removed.
type ChatReply struct {
	Text         string
	ShowSchedule bool
}

// Service is the inference front door. Every shape except Chat absorbs
// failures into a fixed fallback text.
type Service struct {
	client  LLMClient
	models  Models
	logger  *logging.Logger
	metrics *metrics.InferenceMetrics
}

type ServiceOption func(*Service)

func WithInferenceMetrics(m *metrics.InferenceMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func NewService(client LLMClient, models Models, logger *logging.Logger, opts ...ServiceOption) *Service {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		client: client,
		models: models,
		logger: logger.WithComponent("inference"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeCase returns an empathetic viability assessment of a free-text
// incident description.
func (s *Service) AnalyzeCase(ctx context.Context, description string) string {
	return s.textOrFallback(ctx, KindAnalyzeCase, LLMRequest{
		Model:       s.models.Reasoning,
		System:      []string{analysisSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: analysisPrompt(description)}},
		Temperature: -1,
	}, analysisEmptyFallback, analysisErrorFallback)
}

// EstimateCompensation returns a short estimate that is expected to carry
// a euro range.
func (s *Service) EstimateCompensation(ctx context.Context, in CompensationInput) string {
	return s.textOrFallback(ctx, KindEstimate, LLMRequest{
		Model:       s.models.Reasoning,
		System:      []string{estimateSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: estimatePrompt(in)}},
		Temperature: -1,
	}, estimateEmptyFallback, estimateErrorFallback)
}

// AskFAQ answers one question with the company context. No memory.
func (s *Service) AskFAQ(ctx context.Context, question string) string {
	return s.textOrFallback(ctx, KindAskFAQ, LLMRequest{
		Model:       s.models.Fast,
		System:      []string{faqSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: questionPrompt(question)}},
		Temperature: -1,
	}, faqEmptyFallback, faqErrorFallback)
}

// AskProcess answers one question about the claim timeline. No memory.
func (s *Service) AskProcess(ctx context.Context, question string) string {
	return s.textOrFallback(ctx, KindAskProcess, LLMRequest{
		Model:       s.models.Fast,
		System:      []string{processSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: questionPrompt(question)}},
		Temperature: -1,
	}, processEmptyFallback, processErrorFallback)
}

// Chat produces the next assistant turn. history is the whole transcript
// before message, oldest first, and is sent untrimmed. Unlike the other shapes, failures are returned so
// the caller can decide how the conversation reacts.
func (s *Service) Chat(ctx context.Context, message string, history []ChatMessage) (ChatReply, error) {
	messages := make([]ChatMessage, 0, len(history)+1)
	for _, m := range history {
		if m.Role != ChatRoleUser && m.Role != ChatRoleAssistant {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: message})

	text, err := s.complete(ctx, KindChat, LLMRequest{
		Model:       s.models.Reasoning,
		System:      []string{chatSystemPrompt},
		Messages:    messages,
		MaxTokens:   defaultMaxTokens,
		Temperature: -1,
	})
	if err != nil {
		return ChatReply{}, err
	}
	reply, schedule := extractSchedule(text)
	if reply == "" && !schedule {
		return ChatReply{}, ErrEmptyReply
	}
	return ChatReply{Text: reply, ShowSchedule: schedule}, nil
}

func (s *Service) textOrFallback(ctx context.Context, kind string, req LLMRequest, emptyText, errorText string) string {
	text, err := s.complete(ctx, kind, req)
	switch {
	case err != nil:
		s.logger.Error("inference call failed, using fallback", "kind", kind, "error", err)
		return errorText
	case text == "":
		s.logger.Warn("inference returned empty text, using fallback", "kind", kind)
		return emptyText
	default:
		return text
	}
}

func (s *Service) complete(ctx context.Context, kind string, req LLMRequest) (string, error) {
	ctx, span := inferenceTracer.Start(ctx, "conversation."+kind)
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Int("llm.messages", len(req.Messages)),
	)

	start := time.Now()
	resp, err := s.client.Complete(ctx, req)
	elapsed := time.Since(start)

	outcome := "ok"
	text := ""
	stopReason := ""
	if err != nil {
		outcome = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
	} else {
		text = strings.TrimSpace(resp.Text)
		stopReason = resp.StopReason
		if text == "" {
			outcome = "empty"
		}
		span.SetAttributes(
			attribute.Int("llm.tokens.input", int(resp.Usage.InputTokens)),
			attribute.Int("llm.tokens.output", int(resp.Usage.OutputTokens)),
		)
	}
	s.metrics.ObserveCall(kind, outcome, elapsed.Seconds())
	s.logger.Debug("inference call finished", "kind", kind, "outcome", outcome, "duration_ms", elapsed.Milliseconds(), "stop_reason", stopReason)

	if err != nil {
		return "", fmt.Errorf("conversation: %s: %w", kind, err)
	}
	return text, nil
}
