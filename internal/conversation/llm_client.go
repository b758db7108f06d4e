package conversation

import "context"

// Roles of a ChatMessage. Providers map them to their own vocabulary.
const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one provider-neutral turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenUsage is what the provider billed for one call. Input and output
// counts are recorded on the inference span.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is a single completion. Model may be empty, in which case the
// provider's default model is used. A negative Temperature leaves it unset.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMResponse carries the generated text. Text is empty when the provider
// produced nothing usable, which the Service treats as the "empty" outcome.
type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient is the hosted-model transport.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
