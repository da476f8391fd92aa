package cmd

import (
	"github.com/mwhitfield/crosstalk/internal/config"
)

// cfg is the environment-backed configuration, loaded before any subcommand
// runs. Flags layered on top of it are declared by the subcommands that use
// them.
var cfg config.Config

var (
	// Telemetry flags
	telemetryEnabled bool
	otlpEndpoint     string

	// Converse flags
	converseTopic  string
	expectedThemes []string
	maxTurnsFlag   int
	qualityBar     float64

	// Eval flags
	casesPath       string
	transcriptsPath string
	metricName      string

	// Shared output flag
	reportPath string
)
