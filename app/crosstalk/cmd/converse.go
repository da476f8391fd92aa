package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/crosstalk/internal/conversation"
	"github.com/mwhitfield/crosstalk/internal/eval"
	"github.com/mwhitfield/crosstalk/internal/report"
	"github.com/mwhitfield/crosstalk/internal/telemetry"
)

var converseCmd = &cobra.Command{
	Use:   "converse",
	Short: "Run one agent-to-agent conversation and score it",
	Long: `Drives a multi-turn conversation between the simulator agent and the dialogue
platform under test, seeded with the given topic, then scores the transcript
with the conversation quality rubric.`,
	RunE: runConverse,
}

func init() {
	converseCmd.Flags().StringVar(&converseTopic, "topic", "", "Initial conversation topic")
	converseCmd.Flags().StringSliceVar(&expectedThemes, "expected-themes", nil, "Themes a quality conversation should cover")
	converseCmd.Flags().IntVar(&maxTurnsFlag, "max-turns", 0, "Turn cap (overrides MAX_TURNS)")
	converseCmd.Flags().Float64Var(&qualityBar, "threshold", 0, "Minimum acceptable quality score (overrides the rubric default)")
	converseCmd.Flags().StringVar(&reportPath, "report", "", "Path to write the HTML report")

	_ = converseCmd.MarkFlagRequired("topic")

	rootCmd.AddCommand(converseCmd)
}

func runConverse(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	if err := cfg.Validate(); err != nil {
		return err
	}

	telemetryProvider, err := createTelemetryProvider(ctx)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer func() {
		if err := telemetryProvider.Shutdown(ctx); err != nil {
			log.Printf("Failed to shut down telemetry: %v", err)
		}
	}()

	simulator, err := createSimulatorAgent()
	if err != nil {
		return err
	}

	advisor, err := createDialogueAgent(ctx)
	if err != nil {
		return err
	}
	if err := advisor.StartConversation(ctx); err != nil {
		return err
	}
	log.Printf("Started dialogue platform conversation %s", advisor.ConversationID())

	maxTurns := cfg.MaxTurns
	if maxTurnsFlag > 0 {
		maxTurns = maxTurnsFlag
	}

	conv := conversation.New(simulator, advisor,
		conversation.WithMaxTurns(maxTurns),
		conversation.WithLabels(cfg.SimulatorLabel, cfg.AdvisorLabel),
	)

	conversationID := telemetry.NewConversationID()
	ctx, endSpan := telemetryProvider.StartConversationSpan(ctx, conversationID, converseTopic)

	log.Printf("Starting conversation %s on topic: %s", conversationID, converseTopic)
	_, convErr := conv.Start(ctx, converseTopic)
	for _, turn := range conv.Turns() {
		telemetryProvider.RecordTurn(ctx, telemetry.TurnEvent{
			Index:  turn.Number,
			Sender: string(turn.Sender),
			Chars:  len(turn.Message),
		})
	}
	if convErr != nil {
		endSpan(convErr)
		return fmt.Errorf("conversation failed: %w", convErr)
	}

	summary := conv.Summary()
	fullText := conv.FullText()
	log.Printf("Conversation finished: %d turns (%d simulator / %d advisor), %d transcript chars",
		summary.TotalTurns,
		summary.CountsBySender[conversation.SenderSimulator],
		summary.CountsBySender[conversation.SenderAdvisor],
		summary.TranscriptLength,
	)

	metric := eval.ConversationQuality()
	if qualityBar > 0 {
		metric.Threshold = qualityBar
	}

	expected := ""
	if len(expectedThemes) > 0 {
		expected = fmt.Sprintf("A meaningful multi-turn conversation about %s", strings.Join(expectedThemes, ", "))
	}

	anthropicClient := createAnthropicClient(cfg.AnthropicAPIKey)
	judge := eval.NewJudge(anthropicClient, "")
	result, err := judge.Measure(ctx, metric, eval.TestCase{
		Input:          fmt.Sprintf("Initial topic: %s", converseTopic),
		ActualOutput:   fullText,
		ExpectedOutput: expected,
	})
	if err != nil {
		endSpan(err)
		return err
	}
	telemetryProvider.RecordScore(ctx, metric.Name, result.Score, result.Passed)
	endSpan(nil)

	log.Printf("%s: score %.2f (threshold %.2f): %s", metric.Name, result.Score, metric.Threshold, result.Reason)

	if reportPath != "" {
		rep := report.Report{
			Title: "Agent-to-agent conversation report",
			Entries: []report.Entry{{
				Name:           "agent_to_agent_conversation",
				Input:          converseTopic,
				Expected:       expected,
				Actual:         fullText,
				Reason:         result.Reason,
				ConversationID: advisor.ConversationID(),
				Score:          result.Score,
				Passed:         result.Passed,
			}},
		}
		if err := report.WriteFile(reportPath, rep); err != nil {
			return err
		}
		log.Printf("Report written to %s", reportPath)
	}

	if !result.Passed {
		return fmt.Errorf("conversation quality score %.2f below threshold %.2f: %s",
			result.Score, metric.Threshold, result.Reason)
	}
	return nil
}
