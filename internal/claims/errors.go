package claims

import (
	"errors"
	"fmt"
)

// ErrStaleWrite is returned when a delayed mutation targets a session
// generation that a reset has since replaced.
var ErrStaleWrite = errors.New("claims: write targets a superseded session generation")

// ErrScenarioActive is returned when a scenario run is requested while one
// is already in flight for the same session.
var ErrScenarioActive = errors.New("claims: a scenario run is already in flight")

// UnknownAgentError reports an agent key outside the fixed pipeline set.
type UnknownAgentError struct {
	Agent string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("claims: unknown agent %q", e.Agent)
}

// UnknownStatusError reports a status value outside the known enum.
type UnknownStatusError struct {
	Value string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("claims: unknown status %q", e.Value)
}
