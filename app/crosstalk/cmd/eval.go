package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mwhitfield/crosstalk/internal/agent"
	"github.com/mwhitfield/crosstalk/internal/eval"
	"github.com/mwhitfield/crosstalk/internal/fixtures"
	"github.com/mwhitfield/crosstalk/internal/report"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score CSV-driven cases or transcripts with a rubric",
	Long: `Reads {input_text, expected_output} cases from a CSV file, asks the dialogue
platform each question within a single conversation, and scores every answer
with the chosen rubric. With --transcripts, pre-recorded conversation
transcripts are read from the 'Conversation' column instead and each one is
scored with the transcript relevancy rubric; no live conversation is run.`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&casesPath, "cases", "", "Path to the CSV case fixture file")
	evalCmd.Flags().StringVar(&transcriptsPath, "transcripts", "", "Path to a CSV file of pre-recorded transcripts")
	evalCmd.Flags().StringVar(&metricName, "metric", "correctness", "Rubric to apply to cases: correctness or pii")
	evalCmd.Flags().StringVar(&reportPath, "report", "", "Path to write the HTML report")

	evalCmd.MarkFlagsOneRequired("cases", "transcripts")
	evalCmd.MarkFlagsMutuallyExclusive("cases", "transcripts")

	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	// Transcript scoring never talks to the dialogue platform, so only the
	// judge's credentials are required.
	if transcriptsPath != "" {
		if cfg.AnthropicAPIKey == "" {
			return fmt.Errorf("missing required environment variable: ANTHROPIC_API_KEY")
		}
		return runTranscriptEval(ctx)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	var metric eval.Metric
	switch metricName {
	case "correctness":
		metric = eval.Correctness()
	case "pii":
		metric = eval.PIILeakage()
	default:
		return fmt.Errorf("unknown metric %q, expected 'correctness' or 'pii'", metricName)
	}

	cases, err := fixtures.LoadCases(casesPath)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d cases from %s", len(cases), casesPath)

	advisor, err := createDialogueAgent(ctx)
	if err != nil {
		return err
	}
	// One platform conversation is reused across all cases, matching how a
	// human QA session would exercise the bot
	if err := advisor.StartConversation(ctx); err != nil {
		return err
	}
	log.Printf("Started dialogue platform conversation %s", advisor.ConversationID())

	anthropicClient := createAnthropicClient(cfg.AnthropicAPIKey)
	judge := eval.NewJudge(anthropicClient, "")

	entries := make([]report.Entry, 0, len(cases))
	failures := 0
	for i, c := range cases {
		stream, err := advisor.Ask(ctx, c.Input)
		if err != nil {
			return fmt.Errorf("case %d: %w", i+1, err)
		}
		answer, err := agent.CollectText(stream)
		if err != nil {
			return fmt.Errorf("case %d: %w", i+1, err)
		}

		result, err := judge.Measure(ctx, metric, eval.TestCase{
			Input:          c.Input,
			ActualOutput:   answer,
			ExpectedOutput: c.ExpectedOutput,
		})
		if err != nil {
			return fmt.Errorf("case %d: %w", i+1, err)
		}

		status := "PASS"
		if !result.Passed {
			status = "FAIL"
			failures++
		}
		log.Printf("Case %d/%d [%s] score %.2f: %s", i+1, len(cases), status, result.Score, result.Reason)

		entries = append(entries, report.Entry{
			Name:           fmt.Sprintf("case-%02d", i+1),
			Input:          c.Input,
			Expected:       c.ExpectedOutput,
			Actual:         answer,
			Reason:         result.Reason,
			ConversationID: advisor.ConversationID(),
			Score:          result.Score,
			Passed:         result.Passed,
		})
	}

	if reportPath != "" {
		rep := report.Report{
			Title:   fmt.Sprintf("%s evaluation report", metric.Name),
			Entries: entries,
		}
		if err := report.WriteFile(reportPath, rep); err != nil {
			return err
		}
		log.Printf("Report written to %s", reportPath)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d cases failed the %s rubric", failures, len(cases), metric.Name)
	}
	return nil
}

func runTranscriptEval(ctx context.Context) error {
	metric := eval.TranscriptRelevancy()

	transcripts, err := fixtures.LoadTranscripts(transcriptsPath)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d transcripts from %s", len(transcripts), transcriptsPath)

	anthropicClient := createAnthropicClient(cfg.AnthropicAPIKey)
	judge := eval.NewJudge(anthropicClient, "")

	entries := make([]report.Entry, 0, len(transcripts))
	failures := 0
	for i, transcript := range transcripts {
		result, err := judge.Measure(ctx, metric, eval.TestCase{
			ActualOutput: transcript,
		})
		if err != nil {
			return fmt.Errorf("transcript %d: %w", i+1, err)
		}

		status := "PASS"
		if !result.Passed {
			status = "FAIL"
			failures++
		}
		log.Printf("Transcript %d/%d [%s] score %.2f: %s", i+1, len(transcripts), status, result.Score, result.Reason)

		entries = append(entries, report.Entry{
			Name:   fmt.Sprintf("transcript-%02d", i+1),
			Actual: transcript,
			Reason: result.Reason,
			Score:  result.Score,
			Passed: result.Passed,
		})
	}

	if reportPath != "" {
		rep := report.Report{
			Title:   fmt.Sprintf("%s evaluation report", metric.Name),
			Entries: entries,
		}
		if err := report.WriteFile(reportPath, rep); err != nil {
			return err
		}
		log.Printf("Report written to %s", reportPath)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d transcripts failed the %s rubric", failures, len(transcripts), metric.Name)
	}
	return nil
}
