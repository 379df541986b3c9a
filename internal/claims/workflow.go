package claims

// AgentStatus is the pipeline state of one named agent.
type AgentStatus string

const (
	AgentWaiting   AgentStatus = "waiting"
	AgentRunning   AgentStatus = "running"
	AgentCompleted AgentStatus = "completed"
	AgentEscalated AgentStatus = "escalated"
	AgentFailed    AgentStatus = "failed"
)

// Valid reports whether s is one of the known agent statuses.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentWaiting, AgentRunning, AgentCompleted, AgentEscalated, AgentFailed:
		return true
	}
	return false
}

// AgentKey names one of the seven fixed pipeline agents.
type AgentKey string

const (
	AgentIntake              AgentKey = "intake"
	AgentDamageAnalysis      AgentKey = "damageAnalysis"
	AgentWeatherVerification AgentKey = "weatherVerification"
	AgentLocationMatching    AgentKey = "locationMatching"
	AgentFraudDetection      AgentKey = "fraudDetection"
	AgentAdjudication        AgentKey = "adjudication"
	AgentSettlement          AgentKey = "settlement"
)

// AgentKeys lists the pipeline agents in execution order.
var AgentKeys = []AgentKey{
	AgentIntake,
	AgentDamageAnalysis,
	AgentWeatherVerification,
	AgentLocationMatching,
	AgentFraudDetection,
	AgentAdjudication,
	AgentSettlement,
}

// AgentWorkflow maps each of the seven fixed agents to its current status.
// The set of agents is closed; updating one agent leaves the others intact.
type AgentWorkflow struct {
	Intake              AgentStatus `json:"intake"`
	DamageAnalysis      AgentStatus `json:"damageAnalysis"`
	WeatherVerification AgentStatus `json:"weatherVerification"`
	LocationMatching    AgentStatus `json:"locationMatching"`
	FraudDetection      AgentStatus `json:"fraudDetection"`
	Adjudication        AgentStatus `json:"adjudication"`
	Settlement          AgentStatus `json:"settlement"`
}

// NewAgentWorkflow returns a workflow with every agent waiting.
func NewAgentWorkflow() AgentWorkflow {
	return AgentWorkflow{
		Intake:              AgentWaiting,
		DamageAnalysis:      AgentWaiting,
		WeatherVerification: AgentWaiting,
		LocationMatching:    AgentWaiting,
		FraudDetection:      AgentWaiting,
		Adjudication:        AgentWaiting,
		Settlement:          AgentWaiting,
	}
}

func (w *AgentWorkflow) field(agent AgentKey) *AgentStatus {
	switch agent {
	case AgentIntake:
		return &w.Intake
	case AgentDamageAnalysis:
		return &w.DamageAnalysis
	case AgentWeatherVerification:
		return &w.WeatherVerification
	case AgentLocationMatching:
		return &w.LocationMatching
	case AgentFraudDetection:
		return &w.FraudDetection
	case AgentAdjudication:
		return &w.Adjudication
	case AgentSettlement:
		return &w.Settlement
	}
	return nil
}

// Get returns the status of the named agent, or empty for an unknown key.
func (w AgentWorkflow) Get(agent AgentKey) AgentStatus {
	if f := w.field(agent); f != nil {
		return *f
	}
	return ""
}

// Set replaces the status of the named agent, leaving the other six
// untouched. Unknown agents or statuses are rejected.
func (w *AgentWorkflow) Set(agent AgentKey, status AgentStatus) error {
	if !status.Valid() {
		return &UnknownStatusError{Value: string(status)}
	}
	f := w.field(agent)
	if f == nil {
		return &UnknownAgentError{Agent: string(agent)}
	}
	*f = status
	return nil
}
