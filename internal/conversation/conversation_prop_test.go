package conversation

import (
	"context"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/mwhitfield/crosstalk/internal/agent"
)

// scriptedAdvisor replays generated replies, one stream per Ask.
type scriptedAdvisor struct {
	replies []string
	call    int
}

func (a *scriptedAdvisor) Ask(_ context.Context, _ string) (agent.ActivityStream, error) {
	reply := ""
	if a.call < len(a.replies) {
		reply = a.replies[a.call]
	}
	a.call++
	return messageStream(reply), nil
}

// TestConversationInvariants drives conversations with arbitrary advisor
// behavior and checks the structural guarantees every completed conversation
// must satisfy.
func TestConversationInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxTurns := rapid.IntRange(1, 24).Draw(t, "maxTurns")
		replies := rapid.SliceOfN(
			rapid.OneOf(
				rapid.Just(""),
				rapid.StringMatching(`[A-Za-z0-9,. ]{1,40}`),
			),
			maxTurns, maxTurns,
		).Draw(t, "replies")

		conv := New(&fakeSimulator{}, &scriptedAdvisor{replies: replies},
			WithMaxTurns(maxTurns),
			WithTurnDelay(0),
		)

		turns, err := conv.Start(context.Background(), "topic")
		if err != nil {
			t.Fatalf("conversation failed: %v", err)
		}

		// Turn cap is never exceeded
		if len(turns) > maxTurns {
			t.Fatalf("conversation has %d turns, cap is %d", len(turns), maxTurns)
		}

		for i, turn := range turns {
			// Numbering is 1-based and contiguous
			if turn.Number != i+1 {
				t.Fatalf("turn at index %d has number %d", i, turn.Number)
			}

			// Strict alternation: odd turns are the simulator's, even turns
			// the advisor's
			wantSender := SenderSimulator
			if turn.Number%2 == 0 {
				wantSender = SenderAdvisor
			}
			if turn.Sender != wantSender {
				t.Fatalf("turn %d sent by %s, want %s", turn.Number, turn.Sender, wantSender)
			}

			// Recorded advisor messages are trimmed, and an empty one is
			// always terminal
			if turn.Sender == SenderAdvisor {
				if turn.Message != strings.TrimSpace(turn.Message) {
					t.Fatalf("turn %d message not trimmed: %q", turn.Number, turn.Message)
				}
				if turn.Message == "" && i != len(turns)-1 {
					t.Fatalf("empty advisor reply at turn %d did not terminate the conversation", turn.Number)
				}
			}
		}

		// Summary agrees with the turn list
		summary := conv.Summary()
		if summary.TotalTurns != len(turns) {
			t.Fatalf("summary reports %d turns, conversation has %d", summary.TotalTurns, len(turns))
		}
		if got := summary.CountsBySender[SenderSimulator] + summary.CountsBySender[SenderAdvisor]; got != len(turns) {
			t.Fatalf("per-sender counts sum to %d, want %d", got, len(turns))
		}
	})
}
