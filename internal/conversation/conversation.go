package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwhitfield/crosstalk/internal/agent"
)

// DefaultMaxTurns is the hard cap on conversation length when no override is
// given. Hitting the cap truncates the conversation; it is not an error.
const DefaultMaxTurns = 20

// Simulator is the completion-backed side of the exchange. Respond may block
// on network I/O and must observe ctx.
type Simulator interface {
	Respond(ctx context.Context, incoming string, turnIndex int) (string, error)
	Reset()
}

// Advisor is the dialogue-platform side of the exchange. Ask returns a finite
// stream of activities; only message activities contribute transcript text.
type Advisor interface {
	Ask(ctx context.Context, text string) (agent.ActivityStream, error)
}

type Option func(*Conversation)

// WithMaxTurns overrides the default turn cap.
func WithMaxTurns(n int) Option {
	return func(c *Conversation) { c.maxTurns = n }
}

// WithLabels sets the display names used in the rendered transcript. Labels
// are presentation only; sender identity is the Sender enum.
func WithLabels(simulator, advisor string) Option {
	return func(c *Conversation) {
		c.labels[SenderSimulator] = simulator
		c.labels[SenderAdvisor] = advisor
	}
}

// WithTurnDelay sets the pacing pause inserted after each simulator turn.
func WithTurnDelay(d time.Duration) Option {
	return func(c *Conversation) { c.turnDelay = d }
}

// Conversation drives alternating turns between a simulator and an advisor
// until a terminal state is reached. A Conversation owns its two agents for
// the duration of a run; sharing either agent across concurrently running
// conversations is not supported, since each agent's internal history is a
// single linear sequence.
type Conversation struct {
	simulator Simulator
	advisor   Advisor

	maxTurns  int
	turnDelay time.Duration
	labels    map[Sender]string

	turns       []Turn
	currentTurn int
}

func New(simulator Simulator, advisor Advisor, opts ...Option) *Conversation {
	c := &Conversation{
		simulator: simulator,
		advisor:   advisor,
		maxTurns:  DefaultMaxTurns,
		turnDelay: 100 * time.Millisecond,
		labels: map[Sender]string{
			SenderSimulator: "Simulator",
			SenderAdvisor:   "Advisor",
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	// The cap invariant must hold for any configuration; the seed turn alone
	// occupies one slot.
	if c.maxTurns < 1 {
		c.maxTurns = 1
	}
	return c
}

// Start runs one complete conversation seeded with topic and returns the
// turns once a terminal state is reached: either the turn cap, or an empty
// post-trim advisor reply, which is the advisor's natural end-of-conversation
// signal. Any state from a previous run is discarded; each call produces a
// fresh conversation, and the simulator's history is reset before turn 1.
//
// A failed remote call propagates immediately and is never retried. In that
// case the turns accumulated before the failure are not returned, but remain
// readable via Turns.
func (c *Conversation) Start(ctx context.Context, topic string) ([]Turn, error) {
	c.turns = nil
	c.currentTurn = 0
	c.simulator.Reset()

	// Turn 1 is the literal topic attributed to the simulator, not a
	// completion round-trip.
	c.appendTurn(SenderSimulator, topic)

	for c.currentTurn < c.maxTurns {
		lastMessage := c.turns[len(c.turns)-1].Message

		reply, err := c.askAdvisor(ctx, lastMessage)
		if err != nil {
			return nil, fmt.Errorf("advisor turn %d: %w", c.currentTurn+1, err)
		}
		c.appendTurn(SenderAdvisor, reply)

		// Termination is only ever checked after an advisor turn.
		if c.currentTurn >= c.maxTurns || reply == "" {
			break
		}

		next, err := c.simulator.Respond(ctx, reply, c.currentTurn)
		if err != nil {
			return nil, fmt.Errorf("simulator turn %d: %w", c.currentTurn+1, err)
		}
		c.appendTurn(SenderSimulator, next)

		// Pacing pause between rounds. No ordering guarantee beyond
		// happening before the next send.
		if c.turnDelay > 0 {
			time.Sleep(c.turnDelay)
		}
	}

	return c.Turns(), nil
}

// askAdvisor sends the latest message to the advisor and assembles its reply
// from the message-kind fragments of the response stream.
func (c *Conversation) askAdvisor(ctx context.Context, text string) (string, error) {
	stream, err := c.advisor.Ask(ctx, text)
	if err != nil {
		return "", err
	}
	return agent.CollectText(stream)
}

func (c *Conversation) appendTurn(sender Sender, message string) {
	c.currentTurn++
	c.turns = append(c.turns, Turn{Number: c.currentTurn, Sender: sender, Message: message})
}

// Turns returns a copy of the turns recorded so far, including any turns
// accumulated before a mid-conversation failure.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// FullText renders the conversation as a transcript with one labelled line
// per turn. The rendering is a pure function of the recorded turns and
// preserves their order exactly.
func (c *Conversation) FullText() string {
	var b strings.Builder
	for _, turn := range c.turns {
		fmt.Fprintf(&b, "Turn %d - %s: %s\n\n", turn.Number, c.labels[turn.Sender], turn.Message)
	}
	return b.String()
}

// Summary reports turn counts, per-sender participation, transcript length,
// and the ordered turn list. It has no side effects.
func (c *Conversation) Summary() Summary {
	summary := Summary{
		TotalTurns:       len(c.turns),
		CountsBySender:   make(map[Sender]int),
		TranscriptLength: len(c.FullText()),
	}
	for _, turn := range c.turns {
		summary.CountsBySender[turn.Sender]++
		summary.Turns = append(summary.Turns, TurnSummary{
			Number:  turn.Number,
			Sender:  turn.Sender,
			Message: turn.Message,
		})
	}
	return summary
}
