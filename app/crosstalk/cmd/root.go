package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mwhitfield/crosstalk/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "crosstalk",
	Short: "QA harness for agent-to-agent conversations",
	Long: `Crosstalk drives scripted multi-turn conversations between a completion-backed
simulator agent and a dialogue platform under test, scores the transcripts
against rubrics with a judge model, and renders HTML reports.`,
	PersistentPreRun: loadRootConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(_ *cobra.Command, _ []string) {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg = config.Load()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&telemetryEnabled, "telemetry", false, "Enable OTLP trace export")
	rootCmd.PersistentFlags().StringVar(&otlpEndpoint, "otlp-endpoint", "", "OTLP/HTTP collector endpoint (host:port)")
}
