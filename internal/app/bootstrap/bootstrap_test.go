package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/garanley/claims-intake/internal/config"
	"github.com/garanley/claims-intake/internal/conversation"
	"github.com/garanley/claims-intake/internal/notify"
	"github.com/garanley/claims-intake/internal/sessions"
	"github.com/garanley/claims-intake/pkg/logging"
)

func TestBuildRedisClient(t *testing.T) {
	ctx := context.Background()
	logger := logging.Discard()

	assert.Nil(t, BuildRedisClient(ctx, &appconfig.Config{}, logger, true))

	mr := miniredis.RunT(t)
	client := BuildRedisClient(ctx, &appconfig.Config{RedisAddr: mr.Addr()}, logger, true)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, BuildRedisClient(ctx, &appconfig.Config{RedisAddr: addr}, logger, true))
}

func TestBuildSessionStore(t *testing.T) {
	logger := logging.Discard()

	store, err := BuildSessionStore(&appconfig.Config{SessionBackend: "memory", SessionTTL: time.Hour}, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &sessions.MemoryStore{}, store)

	_, err = BuildSessionStore(&appconfig.Config{SessionBackend: "redis"}, nil, logger)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, false)
	store, err = BuildSessionStore(&appconfig.Config{SessionBackend: "redis", SessionTTL: time.Hour}, client, logger)
	require.NoError(t, err)
	assert.IsType(t, &sessions.RedisStore{}, store)

	_, err = BuildSessionStore(&appconfig.Config{SessionBackend: "etcd"}, nil, logger)
	assert.Error(t, err)
}

func TestBuildPostgresPoolDisabled(t *testing.T) {
	pool, err := BuildPostgresPool(context.Background(), "  ", logging.Discard())
	assert.NoError(t, err)
	assert.Nil(t, pool)
}

func TestBuildLLMClientDegradesWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	logger := logging.Discard()

	for _, cfg := range []*appconfig.Config{
		{InferenceProvider: "gemini"},
		{InferenceProvider: "bedrock"},
		{InferenceProvider: "none", GeminiAPIKey: "k"},
	} {
		client, _, err := BuildLLMClient(ctx, cfg, nil, logger)
		require.NoError(t, err, cfg.InferenceProvider)
		_, err = client.Complete(ctx, conversation.LLMRequest{})
		assert.ErrorIs(t, err, errInferenceDisabled)
	}

	_, _, err := BuildLLMClient(ctx, &appconfig.Config{InferenceProvider: "openai"}, nil, logger)
	assert.Error(t, err)
}

func TestBuildLLMClientBedrock(t *testing.T) {
	cfg := &appconfig.Config{InferenceProvider: "bedrock", BedrockModelID: "anthropic.claude-3-haiku", AWSRegion: "eu-west-1"}
	loader := func(context.Context) (aws.Config, error) { return aws.Config{Region: "eu-west-1"}, nil }

	client, models, err := BuildLLMClient(context.Background(), cfg, loader, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &conversation.BedrockLLMClient{}, client)
	assert.Equal(t, conversation.Models{Reasoning: "anthropic.claude-3-haiku", Fast: "anthropic.claude-3-haiku"}, models)

	failing := func(context.Context) (aws.Config, error) { return aws.Config{}, errors.New("no creds") }
	_, _, err = BuildLLMClient(context.Background(), cfg, failing, logging.Discard())
	assert.Error(t, err)
}

func TestBuildEmailSender(t *testing.T) {
	ctx := context.Background()
	logger := logging.Discard()

	sender, err := BuildEmailSender(ctx, &appconfig.Config{}, nil, logger)
	require.NoError(t, err)
	assert.Nil(t, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{SendGridAPIKey: "SG.x", EmailFromAddress: "leads@example.es"}, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &notify.SendGridSender{}, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: "sendgrid"}, nil, logger)
	require.NoError(t, err)
	assert.Nil(t, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: "stub"}, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &notify.StubEmailSender{}, sender)

	loader := func(context.Context) (aws.Config, error) { return aws.Config{Region: "eu-west-1"}, nil }
	sender, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: "ses", EmailFromAddress: "leads@example.es"}, loader, logger)
	require.NoError(t, err)
	assert.IsType(t, &notify.SESSender{}, sender)

	_, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: "pigeon"}, nil, logger)
	assert.Error(t, err)
}

func TestBuildLeadSinks(t *testing.T) {
	ctx := context.Background()
	logger := logging.Discard()

	out, err := BuildLeadSinks(ctx, &appconfig.Config{}, nil, nil, logger)
	require.NoError(t, err)
	assert.Zero(t, out.Sink.Len())
	assert.Nil(t, out.Archive)

	cfg := &appconfig.Config{LeadWebhookURL: "https://hooks.example/lead", LeadNotifyEmail: "intake@example.es"}
	out, err = BuildLeadSinks(ctx, cfg, nil, notify.NewStubEmailSender(logger), logger)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Sink.Len())

	// Without a recipient the email sink is skipped.
	cfg.LeadNotifyEmail = ""
	out, err = BuildLeadSinks(ctx, cfg, nil, notify.NewStubEmailSender(logger), logger)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Sink.Len())
}

func TestLeadTimeZone(t *testing.T) {
	assert.Equal(t, time.UTC, LeadTimeZone(nil, nil))
	assert.Equal(t, time.UTC, LeadTimeZone(&appconfig.Config{LeadTimeZone: "Mars/Olympus"}, logging.Discard()))
	assert.Equal(t, "Europe/Madrid", LeadTimeZone(&appconfig.Config{LeadTimeZone: "Europe/Madrid"}, nil).String())
}
