//go:build e2e

package testutil

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mwhitfield/crosstalk/internal/agent"
	"github.com/mwhitfield/crosstalk/internal/eval"
	"github.com/mwhitfield/crosstalk/internal/transport"
)

// TestConfig holds configuration for end-to-end tests
type TestConfig struct {
	Model        anthropic.Model
	MaxTurns     int
	Timeout      time.Duration
	AnthropicKey string

	DialogueBaseURL      string
	DialogueTokenURL     string
	DialogueClientID     string
	DialogueClientSecret string
}

// LoadTestConfig loads test configuration from environment variables
func LoadTestConfig() TestConfig {
	config := TestConfig{
		Model:    anthropic.ModelClaudeSonnet4_0,
		MaxTurns: 20,
		Timeout:  300 * time.Second,
	}

	if model := os.Getenv("E2E_MODEL"); model != "" {
		config.Model = anthropic.Model(model)
	}

	if maxTurns := os.Getenv("E2E_MAX_TURNS"); maxTurns != "" {
		if val, err := strconv.Atoi(maxTurns); err == nil {
			config.MaxTurns = val
		}
	}

	if timeout := os.Getenv("E2E_TIMEOUT"); timeout != "" {
		if val, err := strconv.Atoi(timeout); err == nil {
			config.Timeout = time.Duration(val) * time.Second
		}
	}

	config.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	config.DialogueBaseURL = os.Getenv("DIALOGUE_BASE_URL")
	config.DialogueTokenURL = os.Getenv("DIALOGUE_TOKEN_URL")
	config.DialogueClientID = os.Getenv("DIALOGUE_CLIENT_ID")
	config.DialogueClientSecret = os.Getenv("DIALOGUE_CLIENT_SECRET")

	return config
}

// TestHarness provides utilities for end-to-end testing
type TestHarness struct {
	t               *testing.T
	config          TestConfig
	anthropicClient anthropic.Client
}

// NewTestHarness creates a new test harness
func NewTestHarness(t *testing.T) *TestHarness {
	config := LoadTestConfig()

	require.NotEmpty(t, config.AnthropicKey, "ANTHROPIC_API_KEY environment variable is required for e2e tests")
	require.NotEmpty(t, config.DialogueBaseURL, "DIALOGUE_BASE_URL environment variable is required for e2e tests")

	anthropicClient := anthropic.NewClient(
		option.WithHTTPClient(&http.Client{
			Transport: transport.WithRateLimiting(nil),
		}),
		option.WithAPIKey(config.AnthropicKey),
		option.WithMaxRetries(5),
	)

	return &TestHarness{
		t:               t,
		config:          config,
		anthropicClient: anthropicClient,
	}
}

// Config returns the test configuration
func (h *TestHarness) Config() TestConfig {
	return h.config
}

// AnthropicClient returns the Anthropic client
func (h *TestHarness) AnthropicClient() anthropic.Client {
	return h.anthropicClient
}

// CreateSimulator creates a completion agent with the configured settings
func (h *TestHarness) CreateSimulator() *agent.CompletionAgent {
	simulator, err := agent.NewCompletionAgent(agent.CompletionConfig{
		APIKey: h.config.AnthropicKey,
		HTTPClient: &http.Client{
			Transport: transport.WithRateLimiting(nil),
		},
		Model: h.config.Model,
	})
	require.NoError(h.t, err)
	return simulator
}

// CreateAdvisor creates a dialogue agent pointed at the configured platform.
// When a token URL is configured, requests authenticate with client
// credentials.
func (h *TestHarness) CreateAdvisor() *agent.DialogueAgent {
	var httpClient *http.Client
	if h.config.DialogueTokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     h.config.DialogueClientID,
			ClientSecret: h.config.DialogueClientSecret,
			TokenURL:     h.config.DialogueTokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{
			Transport: transport.WithRateLimiting(nil),
		})
		httpClient = cc.Client(ctx)
	}

	advisor, err := agent.NewDialogueAgent(agent.DialogueConfig{
		BaseURL:    h.config.DialogueBaseURL,
		HTTPClient: httpClient,
	})
	require.NoError(h.t, err)
	return advisor
}

// CreateJudge creates an evaluation judge with the configured settings
func (h *TestHarness) CreateJudge() *eval.Judge {
	return eval.NewJudge(h.anthropicClient, h.config.Model)
}

// WithTimeout runs a function with the configured timeout
func (h *TestHarness) WithTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	return fn(ctx)
}
