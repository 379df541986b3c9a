// Package scenario plays scripted demo timelines against a claim session.
// Each timeline is fixture data: a fixed chat exchange, a pass over the
// seven-agent pipeline, and one literal analysis payload. No decision logic
// lives here.
package scenario

import (
	"fmt"
	"time"

	"github.com/jaypatwe/EMA/internal/claims"
	"gopkg.in/yaml.v3"
)

// Default pacing when a step doesn't name its own delay.
const (
	defaultStepDelay     = 450 * time.Millisecond
	defaultAnalysisDelay = 1200 * time.Millisecond
	leadInDelay          = 100 * time.Millisecond
)

// Duration wraps time.Duration so YAML fixtures can write "400ms".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse delay %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// ChatStep is one scripted message in the opening exchange.
type ChatStep struct {
	Role    claims.MessageRole `yaml:"role"`
	Content string             `yaml:"content"`
	Type    claims.MessageType `yaml:"type"`
	Delay   Duration           `yaml:"delay"`
}

// AgentStep advances one pipeline agent from waiting through running to its
// scripted outcome.
type AgentStep struct {
	Agent   claims.AgentKey    `yaml:"agent"`
	Outcome claims.AgentStatus `yaml:"outcome"`
	Delay   Duration           `yaml:"delay"`
}

// delay returns the time the agent stays in running state.
func (s AgentStep) delay() time.Duration {
	if s.Delay > 0 {
		return time.Duration(s.Delay)
	}
	return defaultStepDelay
}

// UploadStep is the simulated damage-photo upload and the audit entry that
// accompanies it.
type UploadStep struct {
	ImageURL string             `yaml:"imageUrl"`
	Log      claims.AgentAction `yaml:"log"`
	Delay    Duration           `yaml:"delay"`
}

func (s UploadStep) delay() time.Duration {
	if s.Delay > 0 {
		return time.Duration(s.Delay)
	}
	return defaultAnalysisDelay
}

// Result is the literal payload the timeline delivers at the end: one
// additive claim patch, the final status, and the closing message.
type Result struct {
	Extracted *claims.ExtractedData `yaml:"extracted"`
	Analysis  *claims.Analysis      `yaml:"analysis"`
	Status    claims.ClaimStatus    `yaml:"status"`
	Closing   string                `yaml:"closing"`
}

// Script is one complete demo timeline.
type Script struct {
	Name     string      `yaml:"name"`
	Label    string      `yaml:"label"`
	Opening  []ChatStep  `yaml:"opening"`
	Pipeline []AgentStep `yaml:"pipeline"`
	Upload   UploadStep  `yaml:"upload"`
	Result   Result      `yaml:"result"`
}

// Validate checks the fixture's enum fields so a bad timeline fails at load
// time rather than mid-playback.
func (s *Script) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("script has no name")
	}
	for i, step := range s.Opening {
		switch step.Role {
		case claims.RoleUser, claims.RoleAgent, claims.RoleSystem:
		default:
			return fmt.Errorf("script %q: opening step %d has unknown role %q", s.Name, i, step.Role)
		}
	}
	probe := claims.NewAgentWorkflow()
	for i, step := range s.Pipeline {
		if err := probe.Set(step.Agent, step.Outcome); err != nil {
			return fmt.Errorf("script %q: pipeline step %d: %w", s.Name, i, err)
		}
	}
	if !s.Result.Status.Valid() {
		return fmt.Errorf("script %q: unknown final status %q", s.Name, s.Result.Status)
	}
	return nil
}
