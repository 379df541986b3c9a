// Package assistant implements the claims-intake chat assistant. The
// decision logic behind it is fixture data, isolated behind Provider so a
// real inference backend could replace it without touching the session
// contract.
package assistant

import (
	"context"

	"github.com/jaypatwe/EMA/internal/claims"
	"github.com/jaypatwe/EMA/internal/session"
)

// Reply is what the assistant says back after a user message, plus any
// entities it pulled out of the text.
type Reply struct {
	Text      string
	Type      claims.MessageType
	Extracted *claims.ExtractedData
	Log       *claims.AgentAction
}

// Assessment is the outcome of the simulated damage-photo analysis.
type Assessment struct {
	Analysis claims.Analysis
	Status   claims.ClaimStatus
	Message  string
	Log      claims.AgentAction
}

// Provider produces assistant replies and photo assessments from a session
// snapshot. Implementations must not mutate the session themselves.
type Provider interface {
	// Reply decides the assistant's next message after the user said text.
	// The snapshot already contains the user's message.
	Reply(ctx context.Context, snap session.Snapshot, text string) (Reply, error)

	// AssessPhoto produces the analysis payload for the uploaded photo.
	AssessPhoto(ctx context.Context, snap session.Snapshot) (Assessment, error)
}
