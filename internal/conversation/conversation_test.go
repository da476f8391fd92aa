package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwhitfield/crosstalk/internal/agent"
)

// sliceStream serves a fixed set of activities, then optionally fails.
type sliceStream struct {
	activities []agent.Activity
	err        error
	pos        int
	failed     bool
}

func (s *sliceStream) Next() bool {
	if s.pos < len(s.activities) {
		s.pos++
		return true
	}
	if s.err != nil {
		s.failed = true
	}
	return false
}

func (s *sliceStream) Current() agent.Activity {
	return s.activities[s.pos-1]
}

func (s *sliceStream) Err() error {
	if s.failed {
		return s.err
	}
	return nil
}

func messageStream(texts ...string) *sliceStream {
	activities := make([]agent.Activity, 0, len(texts))
	for _, text := range texts {
		activities = append(activities, agent.Activity{Type: agent.ActivityTypeMessage, Text: text})
	}
	return &sliceStream{activities: activities}
}

// fakeAdvisor replies with a scripted stream per call, or echoes its input.
type fakeAdvisor struct {
	streams []agent.ActivityStream
	askErr  error
	echo    bool
	calls   []string
}

func (a *fakeAdvisor) Ask(_ context.Context, text string) (agent.ActivityStream, error) {
	a.calls = append(a.calls, text)
	if a.askErr != nil {
		return nil, a.askErr
	}
	if a.echo {
		return messageStream("echo:" + text), nil
	}
	stream := a.streams[0]
	a.streams = a.streams[1:]
	return stream, nil
}

// fakeSimulator echoes its input, counting Reset calls.
type fakeSimulator struct {
	err    error
	resets int
	calls  []string
}

func (s *fakeSimulator) Respond(_ context.Context, incoming string, _ int) (string, error) {
	s.calls = append(s.calls, incoming)
	if s.err != nil {
		return "", s.err
	}
	return "echo:" + incoming, nil
}

func (s *fakeSimulator) Reset() { s.resets++ }

func newTestConversation(sim Simulator, adv Advisor, opts ...Option) *Conversation {
	opts = append([]Option{WithTurnDelay(0)}, opts...)
	return New(sim, adv, opts...)
}

func TestStartTruncatesAtMaxTurns(t *testing.T) {
	// Scenario: cap of 4 with an advisor that never goes quiet. The
	// conversation must run exactly 4 turns and end on an advisor turn.
	conv := newTestConversation(&fakeSimulator{}, &fakeAdvisor{echo: true}, WithMaxTurns(4))

	turns, err := conv.Start(context.Background(), "gloves")
	require.NoError(t, err)

	require.Len(t, turns, 4)
	assert.Equal(t, SenderAdvisor, turns[3].Sender)
}

func TestNewClampsNonPositiveMaxTurns(t *testing.T) {
	for _, limit := range []int{0, -3} {
		advisor := &fakeAdvisor{echo: true}
		conv := newTestConversation(&fakeSimulator{}, advisor, WithMaxTurns(limit))

		turns, err := conv.Start(context.Background(), "hello")
		require.NoError(t, err)

		// Only the seeded turn fits under the smallest valid cap
		require.Len(t, turns, 1)
		assert.Empty(t, advisor.calls)
	}
}

func TestStartEndsOnEmptyAdvisorReply(t *testing.T) {
	advisor := &fakeAdvisor{streams: []agent.ActivityStream{messageStream("")}}
	conv := newTestConversation(&fakeSimulator{}, advisor)

	turns, err := conv.Start(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, turns, 2)
	assert.Equal(t, SenderSimulator, turns[0].Sender)
	assert.Equal(t, "hello", turns[0].Message)
	assert.Equal(t, SenderAdvisor, turns[1].Sender)
	assert.Equal(t, "", turns[1].Message)
}

func TestStartTreatsWhitespaceReplyAsEmpty(t *testing.T) {
	advisor := &fakeAdvisor{streams: []agent.ActivityStream{messageStream("  \n\t ")}}
	conv := newTestConversation(&fakeSimulator{}, advisor)

	turns, err := conv.Start(context.Background(), "hello")
	require.NoError(t, err)

	require.Len(t, turns, 2)
	assert.Equal(t, "", turns[1].Message)
}

func TestStartThreadsContentStrictly(t *testing.T) {
	// Two echoing endpoints: each turn must be built from the previous one.
	conv := newTestConversation(&fakeSimulator{}, &fakeAdvisor{echo: true}, WithMaxTurns(5))

	turns, err := conv.Start(context.Background(), "Hello")
	require.NoError(t, err)

	require.Len(t, turns, 5)
	assert.Equal(t, "Hello", turns[0].Message)
	assert.Equal(t, "echo:Hello", turns[1].Message)
	assert.Equal(t, "echo:echo:Hello", turns[2].Message)
	assert.Equal(t, "echo:echo:echo:Hello", turns[3].Message)
	assert.Equal(t, "echo:echo:echo:echo:Hello", turns[4].Message)
}

func TestStartIgnoresNonMessageActivities(t *testing.T) {
	advisor := &fakeAdvisor{streams: []agent.ActivityStream{
		&sliceStream{activities: []agent.Activity{
			{Type: agent.ActivityTypeTyping, Text: "..."},
			{Type: agent.ActivityTypeMessage, Text: "  first part"},
			{Type: agent.ActivityTypeTyping, Text: "..."},
			{Type: agent.ActivityTypeMessage, Text: ", second part  "},
			{Type: agent.ActivityTypeEndOfConversation},
		}},
	}}
	conv := newTestConversation(&fakeSimulator{}, advisor, WithMaxTurns(2))

	turns, err := conv.Start(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, turns, 2)
	assert.Equal(t, "first part, second part", turns[1].Message)
}

func TestStartPropagatesAdvisorError(t *testing.T) {
	commErr := &agent.CommunicationError{Agent: "advisor", Op: "ask", Err: errors.New("boom")}
	conv := newTestConversation(&fakeSimulator{}, &fakeAdvisor{askErr: commErr})

	turns, err := conv.Start(context.Background(), "hello")
	require.Error(t, err)
	assert.Nil(t, turns)

	var ce *agent.CommunicationError
	require.ErrorAs(t, err, &ce)

	// The partial state is retained on the conversation, not returned: only
	// the seeded turn exists.
	partial := conv.Turns()
	require.Len(t, partial, 1)
	assert.Equal(t, SenderSimulator, partial[0].Sender)
}

func TestStartPropagatesAdvisorStreamError(t *testing.T) {
	stream := messageStream("partial reply")
	stream.err = &agent.CommunicationError{Agent: "advisor", Op: "ask", Err: errors.New("connection reset")}
	conv := newTestConversation(&fakeSimulator{}, &fakeAdvisor{streams: []agent.ActivityStream{stream}})

	turns, err := conv.Start(context.Background(), "hello")
	require.Error(t, err)
	assert.Nil(t, turns)
	require.Len(t, conv.Turns(), 1)
}

func TestStartPropagatesSimulatorError(t *testing.T) {
	commErr := &agent.CommunicationError{Agent: "simulator", Op: "respond", Err: errors.New("auth expired")}
	conv := newTestConversation(&fakeSimulator{err: commErr}, &fakeAdvisor{echo: true})

	turns, err := conv.Start(context.Background(), "hello")
	require.Error(t, err)
	assert.Nil(t, turns)

	// The advisor's reply landed before the simulator failed
	partial := conv.Turns()
	require.Len(t, partial, 2)
	assert.Equal(t, SenderAdvisor, partial[1].Sender)
}

func TestStartResetsStateBetweenRuns(t *testing.T) {
	simulator := &fakeSimulator{}
	advisor := &fakeAdvisor{echo: true}
	conv := newTestConversation(simulator, advisor, WithMaxTurns(4))

	first, err := conv.Start(context.Background(), "one")
	require.NoError(t, err)
	require.Len(t, first, 4)

	second, err := conv.Start(context.Background(), "two")
	require.NoError(t, err)
	require.Len(t, second, 4)

	// The second run starts fresh rather than accumulating
	assert.Equal(t, "two", second[0].Message)
	assert.Equal(t, 1, second[0].Number)
	assert.Equal(t, 2, simulator.resets)
}

func TestTurnsReturnsCopy(t *testing.T) {
	conv := newTestConversation(&fakeSimulator{}, &fakeAdvisor{echo: true}, WithMaxTurns(2))
	_, err := conv.Start(context.Background(), "hello")
	require.NoError(t, err)

	turns := conv.Turns()
	turns[0].Message = "mutated"

	assert.Equal(t, "hello", conv.Turns()[0].Message)
}

func TestFullTextFormatAndDeterminism(t *testing.T) {
	advisor := &fakeAdvisor{streams: []agent.ActivityStream{messageStream("Sure, happy to help.")}}
	conv := newTestConversation(&fakeSimulator{}, advisor,
		WithMaxTurns(2),
		WithLabels("Customer Bot", "Support Bot"),
	)

	_, err := conv.Start(context.Background(), "I need gloves")
	require.NoError(t, err)

	want := "Turn 1 - Customer Bot: I need gloves\n\n" +
		"Turn 2 - Support Bot: Sure, happy to help.\n\n"
	assert.Equal(t, want, conv.FullText())
	assert.Equal(t, conv.FullText(), conv.FullText())
}

func TestSummaryCountsAndShape(t *testing.T) {
	conv := newTestConversation(&fakeSimulator{}, &fakeAdvisor{echo: true}, WithMaxTurns(6))

	turns, err := conv.Start(context.Background(), "hello")
	require.NoError(t, err)

	summary := conv.Summary()
	assert.Equal(t, len(turns), summary.TotalTurns)
	assert.Equal(t, summary.TotalTurns,
		summary.CountsBySender[SenderSimulator]+summary.CountsBySender[SenderAdvisor])
	assert.Equal(t, len(conv.FullText()), summary.TranscriptLength)

	require.Len(t, summary.Turns, len(turns))
	for i, turn := range summary.Turns {
		assert.Equal(t, turns[i].Number, turn.Number)
		assert.Equal(t, turns[i].Sender, turn.Sender)
		assert.Equal(t, turns[i].Message, turn.Message)
	}
}

func TestSummaryOfEmptyConversation(t *testing.T) {
	conv := newTestConversation(&fakeSimulator{}, &fakeAdvisor{echo: true})

	summary := conv.Summary()
	assert.Equal(t, 0, summary.TotalTurns)
	assert.Equal(t, 0, summary.TranscriptLength)
	assert.Empty(t, summary.Turns)
}

func TestStartForwardsLatestMessage(t *testing.T) {
	simulator := &fakeSimulator{}
	advisor := &fakeAdvisor{echo: true}
	conv := newTestConversation(simulator, advisor, WithMaxTurns(5))

	_, err := conv.Start(context.Background(), "start")
	require.NoError(t, err)

	// The advisor always receives the most recent turn, the simulator always
	// receives the advisor's latest reply
	for i, call := range advisor.calls {
		if i == 0 {
			assert.Equal(t, "start", call)
		} else {
			assert.Equal(t, fmt.Sprintf("echo:%s", simulator.calls[i-1]), call)
		}
	}
}
