// Package agent implements the two conversational endpoints the harness
// drives against each other: a completion-backed simulator that keeps its own
// history client-side, and a dialogue platform client whose history lives
// server-side.
package agent

import (
	"context"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	anthropt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const completionAgentName = "simulator"

// defaultSimulatorPrompt steers the simulator toward short, in-character
// replies when the caller doesn't supply a system prompt of their own.
const defaultSimulatorPrompt = `You are a simulator agent having a structured conversation with another AI agent.
Ask questions, seek information, and engage in meaningful dialogue about the given topic.
Be conversational, ask follow-up questions based on responses, and maintain context throughout the conversation.
Keep your messages concise and focused.`

// Role tags for entries in the simulator's client-side history.
const (
	RoleReceived = "user"      // message received from the other agent
	RoleProduced = "assistant" // message produced by this agent
)

// HistoryEntry is one role-tagged message in the simulator's internal history.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Turn    int    `json:"turn"`
}

// CompletionConfig configures a CompletionAgent. The API key is mandatory;
// other zero values fall back to sensible defaults.
type CompletionConfig struct {
	// APIKey authenticates against the completion API.
	APIKey string
	// HTTPClient carries transport concerns such as rate-limit retries.
	// Defaults to the API client's own default.
	HTTPClient *http.Client

	Model           anthropic.Model
	SystemPrompt    string
	MaxOutputTokens int64
	// Temperature left unset means 0.7; an explicit 0 is respected.
	Temperature param.Opt[float64]
}

// CompletionAgent produces the next message in a conversation by replaying
// its accumulated history against a chat completion API. The remote service
// is stateless per call; all context lives in the agent's internal history,
// which the conversation loop never reads or mutates directly.
//
// A CompletionAgent is owned by a single conversation at a time; it is not
// safe to share across concurrently running conversations.
type CompletionAgent struct {
	sender MessageSender

	model           anthropic.Model
	systemPrompt    string
	maxOutputTokens int64
	temperature     param.Opt[float64]

	history []HistoryEntry
}

func NewCompletionAgent(cfg CompletionConfig) (*CompletionAgent, error) {
	if cfg.APIKey == "" {
		return nil, &ConfigurationError{Missing: "anthropic API key"}
	}
	if cfg.Model == "" {
		cfg.Model = anthropic.ModelClaudeSonnet4_0
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSimulatorPrompt
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = 500
	}
	if !cfg.Temperature.Valid() {
		cfg.Temperature = anthropic.Float(0.7)
	}

	opts := []anthropt.RequestOption{
		anthropt.WithAPIKey(cfg.APIKey),
		anthropt.WithMaxRetries(5),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, anthropt.WithHTTPClient(cfg.HTTPClient))
	}
	client := anthropic.NewClient(opts...)

	return &CompletionAgent{
		sender: NewStreamingMessageSender(client),

		model:           cfg.Model,
		systemPrompt:    cfg.SystemPrompt,
		maxOutputTokens: cfg.MaxOutputTokens,
		temperature:     cfg.Temperature,
	}, nil
}

// Initiate begins a new exchange about the given topic. Any prior internal
// history is discarded before the request is sent; a failed request leaves
// the history empty rather than partially populated.
func (ca *CompletionAgent) Initiate(ctx context.Context, topic string) (string, error) {
	ca.history = nil

	seed := fmt.Sprintf("Start a conversation about: %s", topic)
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(seed)),
	}

	text, err := ca.complete(ctx, messages)
	if err != nil {
		return "", &CommunicationError{Agent: completionAgentName, Op: "initiate", Err: err}
	}

	ca.history = append(ca.history,
		HistoryEntry{Role: RoleReceived, Content: seed, Turn: 1},
		HistoryEntry{Role: RoleProduced, Content: text, Turn: 1},
	)
	return text, nil
}

// Respond produces the next message given the other agent's latest message.
// The full internal history is replayed, followed by the incoming message and
// an explicit instruction naming the next turn. Both the incoming and the
// produced message are committed to history only if the remote call succeeds.
func (ca *CompletionAgent) Respond(ctx context.Context, incoming string, turnIndex int) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(ca.history)+1)
	for _, entry := range ca.history {
		if entry.Role == RoleProduced {
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(entry.Content)))
		} else {
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(entry.Content)))
		}
	}
	instruction := fmt.Sprintf("Continue the conversation based on the response above. This is turn %d of the conversation.", turnIndex+1)
	messages = append(messages, anthropic.NewUserMessage(
		anthropic.NewTextBlock(incoming),
		anthropic.NewTextBlock(instruction),
	))

	text, err := ca.complete(ctx, messages)
	if err != nil {
		return "", &CommunicationError{Agent: completionAgentName, Op: "respond", Err: err}
	}

	ca.history = append(ca.history,
		HistoryEntry{Role: RoleReceived, Content: incoming, Turn: turnIndex},
		HistoryEntry{Role: RoleProduced, Content: text, Turn: turnIndex + 1},
	)
	return text, nil
}

func (ca *CompletionAgent) complete(ctx context.Context, messages []anthropic.MessageParam) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       ca.model,
		MaxTokens:   ca.maxOutputTokens,
		Temperature: ca.temperature,
		System: []anthropic.TextBlockParam{
			{Text: ca.systemPrompt},
		},
		Messages: messages,
	}

	response, err := ca.sender.SendMessage(ctx, params)
	if err != nil {
		return "", err
	}
	return MessageText(response), nil
}

// History returns a copy of the internal history; mutating it does not affect
// the agent.
func (ca *CompletionAgent) History() []HistoryEntry {
	out := make([]HistoryEntry, len(ca.history))
	copy(out, ca.history)
	return out
}

// Reset clears the internal history without closing the underlying client.
func (ca *CompletionAgent) Reset() {
	ca.history = nil
}
