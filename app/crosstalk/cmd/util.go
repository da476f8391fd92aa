package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/mwhitfield/crosstalk/internal/agent"
	"github.com/mwhitfield/crosstalk/internal/telemetry"
	"github.com/mwhitfield/crosstalk/internal/transport"
)

func transportWithRateLimiting() http.RoundTripper {
	return transport.WithRateLimiting(nil)
}

func setupContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	// Setup graceful shutdown
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		log.Println("Interrupt signal detected, shutting down gracefully...")
		cancel()
		<-interrupt
		log.Fatal("Forcing shutdown")
	}()

	return ctx
}

func createAnthropicClient(apiKey string) anthropic.Client {
	rateLimitedHTTPClient := &http.Client{
		Transport: transportWithRateLimiting(),
	}
	return anthropic.NewClient(
		option.WithHTTPClient(rateLimitedHTTPClient),
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(5),
	)
}

// createDialogueAgent builds the advisor client. When token-endpoint settings
// are present, requests are authenticated with an oauth2 client-credentials
// flow; otherwise the platform is assumed to be unauthenticated (local stub).
func createDialogueAgent(ctx context.Context) (*agent.DialogueAgent, error) {
	base := &http.Client{Transport: transportWithRateLimiting()}

	httpClient := base
	if cfg.DialogueTokenURL != "" {
		creds := clientcredentials.Config{
			ClientID:     cfg.DialogueClientID,
			ClientSecret: cfg.DialogueClientSecret,
			TokenURL:     cfg.DialogueTokenURL,
		}
		// Route the token exchange and subsequent requests through the
		// rate-limited client
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		httpClient = creds.Client(ctx)
	}

	return agent.NewDialogueAgent(agent.DialogueConfig{
		BaseURL:    cfg.DialogueBaseURL,
		HTTPClient: httpClient,
	})
}

func createSimulatorAgent() (*agent.CompletionAgent, error) {
	return agent.NewCompletionAgent(agent.CompletionConfig{
		APIKey:       cfg.AnthropicAPIKey,
		HTTPClient:   &http.Client{Transport: transportWithRateLimiting()},
		Model:        anthropic.Model(cfg.SimulatorModel),
		SystemPrompt: cfg.SimulatorSystemPrompt,
	})
}

func createTelemetryProvider(ctx context.Context) (*telemetry.Provider, error) {
	return telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  telemetryEnabled,
		Endpoint: otlpEndpoint,
	})
}
