package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const dialogueAgentName = "advisor"

// ActivityType distinguishes the kinds of fragments a dialogue platform
// emits. Only message activities carry transcript text; everything else
// (typing indicators, conversation lifecycle markers) is ignored by callers
// assembling a reply.
type ActivityType string

const (
	ActivityTypeMessage           ActivityType = "message"
	ActivityTypeTyping            ActivityType = "typing"
	ActivityTypeEndOfConversation ActivityType = "endOfConversation"
)

// Activity is one fragment of a streamed dialogue response.
type Activity struct {
	Type ActivityType `json:"type"`
	Text string       `json:"text"`
}

// ActivityStream is a finite, ordered stream of activities produced in
// response to a single question. Iterate with Next/Current; once Next returns
// false, Err reports whether the stream ended cleanly.
type ActivityStream interface {
	Next() bool
	Current() Activity
	Err() error
}

// CollectText drains a stream, concatenating the text of message activities
// and discarding other kinds, then trims surrounding whitespace.
func CollectText(stream ActivityStream) (string, error) {
	var b strings.Builder
	for stream.Next() {
		if activity := stream.Current(); activity.Type == ActivityTypeMessage {
			b.WriteString(activity.Text)
		}
	}
	if err := stream.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

// DialogueConfig configures a DialogueAgent.
type DialogueConfig struct {
	// BaseURL is the root of the dialogue platform's REST API.
	BaseURL string
	// HTTPClient carries authentication, e.g. an oauth2 client-credentials
	// client. Defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// DialogueAgent is a client for a streaming dialogue platform. The platform
// keeps conversation history server-side; the client only tracks the
// conversation ID it was issued.
type DialogueAgent struct {
	baseURL    string
	httpClient *http.Client

	conversationID string
}

func NewDialogueAgent(cfg DialogueConfig) (*DialogueAgent, error) {
	if cfg.BaseURL == "" {
		return nil, &ConfigurationError{Missing: "dialogue platform base URL"}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &DialogueAgent{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// StartConversation opens a new server-side conversation and records its ID.
func (da *DialogueAgent) StartConversation(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, da.baseURL+"/conversations", nil)
	if err != nil {
		return &CommunicationError{Agent: dialogueAgentName, Op: "start conversation", Err: err}
	}

	resp, err := da.httpClient.Do(req)
	if err != nil {
		return &CommunicationError{Agent: dialogueAgentName, Op: "start conversation", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &CommunicationError{
			Agent: dialogueAgentName,
			Op:    "start conversation",
			Err:   fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	var started struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&started); err != nil {
		return &CommunicationError{Agent: dialogueAgentName, Op: "start conversation", Err: err}
	}
	if started.ConversationID == "" {
		return &CommunicationError{
			Agent: dialogueAgentName,
			Op:    "start conversation",
			Err:   fmt.Errorf("response contained no conversation ID"),
		}
	}

	da.conversationID = started.ConversationID
	return nil
}

// ConversationID returns the ID of the current server-side conversation, or
// "" if none has been started.
func (da *DialogueAgent) ConversationID() string {
	return da.conversationID
}

// Reset abandons the current conversation ID without closing the underlying
// HTTP client. The next Ask begins a fresh server-side history.
func (da *DialogueAgent) Reset() {
	da.conversationID = ""
}

// Ask sends a question to the platform and returns the response activity
// stream. The wire format is newline-delimited JSON over a streamed response
// body. A conversation is started implicitly if none is active.
func (da *DialogueAgent) Ask(ctx context.Context, text string) (ActivityStream, error) {
	if da.conversationID == "" {
		if err := da.StartConversation(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(Activity{Type: ActivityTypeMessage, Text: text})
	if err != nil {
		return nil, &CommunicationError{Agent: dialogueAgentName, Op: "ask", Err: err}
	}

	url := fmt.Sprintf("%s/conversations/%s/activities", da.baseURL, da.conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &CommunicationError{Agent: dialogueAgentName, Op: "ask", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := da.httpClient.Do(req)
	if err != nil {
		return nil, &CommunicationError{Agent: dialogueAgentName, Op: "ask", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &CommunicationError{
			Agent: dialogueAgentName,
			Op:    "ask",
			Err:   fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &httpActivityStream{body: resp.Body, scanner: scanner}, nil
}

// httpActivityStream decodes newline-delimited JSON activities from a
// streamed response body, closing the body once the stream is exhausted or
// fails.
type httpActivityStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner

	current Activity
	err     error
	done    bool
}

func (s *httpActivityStream) Next() bool {
	if s.done {
		return false
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var activity Activity
		if err := json.Unmarshal(line, &activity); err != nil {
			s.fail(fmt.Errorf("malformed activity: %w", err))
			return false
		}
		s.current = activity
		return true
	}
	if err := s.scanner.Err(); err != nil {
		s.fail(err)
		return false
	}
	s.close()
	return false
}

func (s *httpActivityStream) Current() Activity {
	return s.current
}

func (s *httpActivityStream) Err() error {
	return s.err
}

func (s *httpActivityStream) fail(err error) {
	s.err = &CommunicationError{Agent: dialogueAgentName, Op: "ask", Err: err}
	s.close()
}

func (s *httpActivityStream) close() {
	if !s.done {
		s.done = true
		_ = s.body.Close()
	}
}
