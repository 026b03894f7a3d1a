package discord

import "fmt"

// AuthorizationDeniedError reports a channel the token is not permitted to
// read. The orchestrator skips the channel and continues.
type AuthorizationDeniedError struct {
	ChannelID string
}

func (e *AuthorizationDeniedError) Error() string {
	return fmt.Sprintf("no permission to read channel %s", e.ChannelID)
}

// TransportError reports a network failure or unexpected status from the
// API. Per-channel it is non-fatal; on the initial guild resolution the
// caller escalates it to a fatal run error.
type TransportError struct {
	Operation string
	Status    int
	Err       error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
