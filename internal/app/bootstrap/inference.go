package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/garanley/claims-intake/internal/config"
	"github.com/garanley/claims-intake/internal/conversation"
	"github.com/garanley/claims-intake/pkg/logging"
)

// Inference providers accepted in INFERENCE_PROVIDER.
const (
	ProviderGemini  = "gemini"
	ProviderBedrock = "bedrock"
	ProviderNone    = "none"
)

// errInferenceDisabled makes every call take its fallback path.
var errInferenceDisabled = errors.New("inference disabled")

type disabledLLM struct{}

func (disabledLLM) Complete(context.Context, conversation.LLMRequest) (conversation.LLMResponse, error) {
	return conversation.LLMResponse{}, errInferenceDisabled
}

// AWSConfigLoader defers AWS configuration until a provider needs it.
type AWSConfigLoader func(ctx context.Context) (aws.Config, error)

// BuildLLMClient selects the hosted model provider. A provider without its
// credentials degrades to a disabled client so the site keeps answering
// with canned fallbacks.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, loadAWS AWSConfigLoader, logger *logging.Logger) (conversation.LLMClient, conversation.Models, error) {
	if cfg == nil {
		return nil, conversation.Models{}, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.InferenceProvider {
	case "", ProviderGemini:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			logger.Warn("GEMINI_API_KEY not set; inference disabled, fallbacks only")
			return disabledLLM{}, conversation.Models{}, nil
		}
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.FastModel)
		if err != nil {
			return nil, conversation.Models{}, fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		logger.Info("inference provider ready", "provider", ProviderGemini, "reasoning_model", cfg.ReasoningModel, "fast_model", cfg.FastModel)
		return client, conversation.Models{Reasoning: cfg.ReasoningModel, Fast: cfg.FastModel}, nil

	case ProviderBedrock:
		if strings.TrimSpace(cfg.BedrockModelID) == "" {
			logger.Warn("BEDROCK_MODEL_ID not set; inference disabled, fallbacks only")
			return disabledLLM{}, conversation.Models{}, nil
		}
		if loadAWS == nil {
			return nil, conversation.Models{}, fmt.Errorf("bootstrap: bedrock needs an aws config loader")
		}
		awsCfg, err := loadAWS(ctx)
		if err != nil {
			return nil, conversation.Models{}, fmt.Errorf("bootstrap: load aws config: %w", err)
		}
		fast := cfg.BedrockFastModel
		if fast == "" {
			fast = cfg.BedrockModelID
		}
		client := conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
		logger.Info("inference provider ready", "provider", ProviderBedrock, "reasoning_model", cfg.BedrockModelID, "fast_model", fast)
		return client, conversation.Models{Reasoning: cfg.BedrockModelID, Fast: fast}, nil

	case ProviderNone:
		logger.Warn("inference disabled by configuration")
		return disabledLLM{}, conversation.Models{}, nil

	default:
		return nil, conversation.Models{}, fmt.Errorf("bootstrap: unknown inference provider %q", cfg.InferenceProvider)
	}
}
