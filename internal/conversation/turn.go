// Package conversation implements the agent-to-agent turn loop: it alternates
// messages between a simulator and an advisor endpoint, enforces turn limits
// and termination conditions, and produces the transcript downstream scoring
// depends on.
package conversation

// Sender identifies which of the two fixed roles produced a turn.
type Sender string

const (
	// SenderSimulator is the completion-backed agent driving the exchange.
	SenderSimulator Sender = "simulator"
	// SenderAdvisor is the dialogue-platform agent under test.
	SenderAdvisor Sender = "advisor"
)

// Turn is one message in an agent-to-agent exchange. Within a conversation,
// turns are append-only and numbered contiguously from 1.
type Turn struct {
	Number  int    `json:"turn"`
	Sender  Sender `json:"sender"`
	Message string `json:"message"`
	// Timestamp is an optional occurrence marker supplied by the caller; the
	// loop itself records 0.
	Timestamp float64 `json:"timestamp,omitempty"`
}

// TurnSummary is a turn reduced to the fields downstream tooling reads.
type TurnSummary struct {
	Number  int    `json:"turn"`
	Sender  Sender `json:"sender"`
	Message string `json:"message"`
}

// Summary is the stable shape reporting and export tooling depends on.
type Summary struct {
	TotalTurns       int            `json:"total_turns"`
	CountsBySender   map[Sender]int `json:"counts_by_sender"`
	TranscriptLength int            `json:"transcript_length"`
	Turns            []TurnSummary  `json:"turns"`
}
