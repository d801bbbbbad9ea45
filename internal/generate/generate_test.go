package generate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lifelens/lifelens-cli/internal/resilience"
	"github.com/lifelens/lifelens-cli/pkg/anthropic"
	"github.com/lifelens/lifelens-cli/pkg/anthropic/mocks"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.PrimaryModel = "primary"
	cfg.FallbackModel = "fallback"
	cfg.Primary.InitialBackoff = time.Millisecond
	cfg.Primary.MaxBackoff = time.Millisecond
	cfg.Primary.Jitter = 0
	cfg.Fallback.InitialBackoff = time.Millisecond
	cfg.Fallback.MaxBackoff = time.Millisecond
	cfg.Fallback.Jitter = 0
	cfg.RatePerSec = 0
	return cfg
}

func forModel(name string) any {
	return mock.MatchedBy(func(r anthropic.MessageRequest) bool { return r.Model == name })
}

func textResp(s string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{Content: []anthropic.ContentBlock{{Type: "text", Text: s}}}
}

func transient() error {
	return resilience.NewTransientError(errors.New("503 overloaded"), 503)
}

func TestText_PrimarySucceeds(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return r.Model == "primary" &&
			len(r.System) == 1 && r.System[0].Text == "sys" &&
			len(r.Messages) == 1 && r.Messages[0].Content == "hello" &&
			r.Temperature != nil && *r.Temperature == 1 &&
			r.MaxTokens == 8192
	})).Return(textResp("ok"), nil).Once()

	g := New(client, fastConfig())
	out, err := g.Text(context.Background(), "test", "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestText_EmptySystemOmitted(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.MatchedBy(func(r anthropic.MessageRequest) bool {
		return len(r.System) == 0
	})).Return(textResp("ok"), nil).Once()

	_, err := New(client, fastConfig()).Text(context.Background(), "test", "", "hello")
	require.NoError(t, err)
}

func TestText_TransientPrimaryThenFallback(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, forModel("primary")).Return(nil, transient()).Times(3)
	client.On("CreateMessage", mock.Anything, forModel("fallback")).Return(textResp("from fallback"), nil).Once()

	out, err := New(client, fastConfig()).Text(context.Background(), "test", "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "from fallback", out)
}

func TestText_PermanentPrimaryNotRetried(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, forModel("primary")).Return(nil, errors.New("400 invalid request")).Once()
	client.On("CreateMessage", mock.Anything, forModel("fallback")).Return(textResp("fb"), nil).Once()

	out, err := New(client, fastConfig()).Text(context.Background(), "test", "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "fb", out)
}

func TestText_BothFail(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, forModel("primary")).Return(nil, transient()).Times(3)
	client.On("CreateMessage", mock.Anything, forModel("fallback")).Return(nil, transient()).Times(2)

	cfg := fastConfig()
	cfg.Circuit.FailureThreshold = 100
	_, err := New(client, cfg).Text(context.Background(), "test", "", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary and fallback failed")
}

func TestText_CircuitOpensAndShortCircuits(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, transient()).Times(2)

	cfg := fastConfig()
	cfg.Circuit = resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour}
	g := New(client, cfg)

	_, err := g.Text(context.Background(), "test", "", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, resilience.CircuitOpen, g.breaker.State())

	// Still open: no further client calls.
	_, err = g.Text(context.Background(), "test", "", "hello")
	require.Error(t, err)
}

func TestText_CancelledContextSkipsFallback(t *testing.T) {
	client := mocks.NewMockClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	client.On("CreateMessage", mock.Anything, forModel("primary")).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, transient()).Once()

	_, err := New(client, fastConfig()).Text(ctx, "test", "", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "primary model")
}

func TestNew_StateChangeHookChained(t *testing.T) {
	var seen []resilience.CircuitState
	cfg := fastConfig()
	cfg.Circuit = resilience.CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Hour,
		OnStateChange:    func(_, to resilience.CircuitState) { seen = append(seen, to) },
	}
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

	_, _ = New(client, cfg).Text(context.Background(), "test", "", "hello")
	assert.Equal(t, []resilience.CircuitState{resilience.CircuitOpen}, seen)
}
