// Package config provides configuration management for the crosstalk harness.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the configuration for the harness. All of it is consumed by
// the caller-facing layers; the conversation core only ever sees the values
// passed into it.
type Config struct {
	// Simulator (completion agent) settings
	AnthropicAPIKey       string
	SimulatorModel        string
	SimulatorSystemPrompt string

	// Advisor (dialogue platform) settings
	DialogueBaseURL      string
	DialogueTokenURL     string
	DialogueClientID     string
	DialogueClientSecret string

	// Conversation settings
	MaxTurns       int
	SimulatorLabel string
	AdvisorLabel   string
}

// Load loads configuration from environment variables.
func Load() Config {
	config := Config{
		AnthropicAPIKey:       os.Getenv("ANTHROPIC_API_KEY"),
		SimulatorModel:        os.Getenv("SIMULATOR_MODEL"),
		SimulatorSystemPrompt: os.Getenv("SIMULATOR_SYSTEM_PROMPT"),
		DialogueBaseURL:       os.Getenv("DIALOGUE_BASE_URL"),
		DialogueTokenURL:      os.Getenv("DIALOGUE_TOKEN_URL"),
		DialogueClientID:      os.Getenv("DIALOGUE_CLIENT_ID"),
		DialogueClientSecret:  os.Getenv("DIALOGUE_CLIENT_SECRET"),
		MaxTurns:              20, // Default
		SimulatorLabel:        "Simulator",
		AdvisorLabel:          "Advisor",
	}

	// Parse max turns if provided
	if maxTurns := os.Getenv("MAX_TURNS"); maxTurns != "" {
		if n, err := strconv.Atoi(maxTurns); err == nil && n > 0 {
			config.MaxTurns = n
		}
	}

	if label := os.Getenv("SIMULATOR_LABEL"); label != "" {
		config.SimulatorLabel = label
	}
	if label := os.Getenv("ADVISOR_LABEL"); label != "" {
		config.AdvisorLabel = label
	}

	return config
}

// Validate checks if the required configuration is present.
func (c Config) Validate() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("missing required environment variable: ANTHROPIC_API_KEY")
	}
	if c.DialogueBaseURL == "" {
		return fmt.Errorf("missing required environment variable: DIALOGUE_BASE_URL")
	}
	if c.DialogueTokenURL != "" && c.DialogueClientID == "" {
		return fmt.Errorf("DIALOGUE_TOKEN_URL is set but DIALOGUE_CLIENT_ID is missing")
	}
	return nil
}
