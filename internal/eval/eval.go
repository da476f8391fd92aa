// Package eval scores transcripts against rubrics using a judge model. The
// conversation core treats this package as an external collaborator: it
// consumes a finished transcript and produces a score and rationale.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/mwhitfield/crosstalk/internal/agent"
)

// Metric is a rubric: a named list of evaluation steps and a pass threshold.
type Metric struct {
	Name      string
	Steps     []string
	Threshold float64
}

// TestCase is the unit of evaluation.
type TestCase struct {
	Input          string
	ActualOutput   string
	ExpectedOutput string // optional
}

// Result is a judge verdict. Score is normalized to [0, 1]; Passed reflects
// the metric threshold.
type Result struct {
	Score  float64
	Passed bool
	Reason string
}

// Judge runs rubric evaluations against a judge model.
type Judge struct {
	sender          agent.MessageSender
	model           anthropic.Model
	maxOutputTokens int64
}

func NewJudge(client anthropic.Client, model anthropic.Model) *Judge {
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_0
	}
	return &Judge{
		sender:          agent.NewStreamingMessageSender(client),
		model:           model,
		maxOutputTokens: 1024,
	}
}

// Measure scores tc against the metric's rubric.
func (j *Judge) Measure(ctx context.Context, metric Metric, tc TestCase) (Result, error) {
	prompt := buildJudgePrompt(metric, tc)

	response, err := j.sender.SendMessage(ctx, anthropic.MessageNewParams{
		Model:     j.model,
		MaxTokens: j.maxOutputTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("judge request for metric %q failed: %w", metric.Name, err)
	}

	verdict, err := parseVerdict(agent.MessageText(response))
	if err != nil {
		return Result{}, fmt.Errorf("metric %q: %w", metric.Name, err)
	}

	score := clamp01(verdict.Score)
	return Result{
		Score:  score,
		Passed: score >= metric.Threshold,
		Reason: verdict.Reason,
	}, nil
}

func buildJudgePrompt(metric Metric, tc TestCase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are evaluating an AI system's output using the %q metric.\n\n", metric.Name)
	b.WriteString("Evaluation steps:\n")
	for i, step := range metric.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	b.WriteString("\n")
	if tc.Input != "" {
		fmt.Fprintf(&b, "Input:\n%s\n\n", tc.Input)
	}
	fmt.Fprintf(&b, "Actual output:\n%s\n\n", tc.ActualOutput)
	if tc.ExpectedOutput != "" {
		fmt.Fprintf(&b, "Expected output:\n%s\n\n", tc.ExpectedOutput)
	}
	b.WriteString("Apply the evaluation steps and respond with only a JSON object of the form ")
	b.WriteString(`{"score": <number between 0 and 1>, "reason": "<concise justification>"}.`)
	return b.String()
}

type verdict struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// parseVerdict extracts the verdict object from the judge's reply, tolerating
// surrounding prose or code fences.
func parseVerdict(text string) (verdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return verdict{}, fmt.Errorf("judge response contained no verdict object: %q", text)
	}
	var v verdict
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return verdict{}, fmt.Errorf("failed to parse judge verdict: %w", err)
	}
	return v, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
