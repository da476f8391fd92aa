package agent

import "fmt"

// CommunicationError is returned when a remote agent call fails for any
// reason: network failure, authentication, or a malformed response. The
// conversation loop never retries one; a single failure ends the conversation.
type CommunicationError struct {
	Agent string // which endpoint failed
	Op    string // the operation that failed
	Err   error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("%s agent: %s failed: %v", e.Agent, e.Op, e.Err)
}

func (e *CommunicationError) Unwrap() error { return e.Err }

// ConfigurationError is returned at endpoint construction time when mandatory
// credentials or identifiers are absent. It is never returned mid-conversation.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", e.Missing)
}
