// Package claims defines the domain model for a single insurance-claim
// session: the claim record, its chat transcript, the agent audit log, and
// the per-agent pipeline workflow.
package claims

// ClaimStatus is the top-level processing state of a claim.
type ClaimStatus string

const (
	StatusIntake         ClaimStatus = "intake"
	StatusAnalyzing      ClaimStatus = "analyzing"
	StatusReviewRequired ClaimStatus = "review_required"
	StatusApproved       ClaimStatus = "approved"
	StatusRejected       ClaimStatus = "rejected"
	StatusProcessing     ClaimStatus = "processing"
)

// Valid reports whether s is one of the known claim statuses.
func (s ClaimStatus) Valid() bool {
	switch s {
	case StatusIntake, StatusAnalyzing, StatusReviewRequired,
		StatusApproved, StatusRejected, StatusProcessing:
		return true
	}
	return false
}

// PolicyContext is static reference data for the session. It is seeded once
// and never mutated while the session is alive.
type PolicyContext struct {
	PolicyNumber string        `json:"policyNumber"`
	PolicyHolder string        `json:"policyHolder"`
	Vehicle      string        `json:"vehicle"`
	VIN          string        `json:"vin,omitempty"`
	Coverage     string        `json:"coverage"`
	Deductible   float64       `json:"deductible,omitempty"`
	ClaimHistory int           `json:"claimHistory"`
	Limits       *PolicyLimits `json:"limits,omitempty"`
	Tenure       string        `json:"tenure,omitempty"`
}

// PolicyLimits holds per-coverage payout ceilings.
type PolicyLimits struct {
	PropertyDamage float64 `json:"propertyDamage"`
	BodilyInjury   float64 `json:"bodilyInjury"`
}

// ExtractedData holds facts pulled out of the conversation by the intake
// pipeline. Fields are only ever added or overwritten, never removed.
type ExtractedData struct {
	IncidentDate      string `json:"incidentDate,omitempty" yaml:"incidentDate"`
	Location          string `json:"location,omitempty" yaml:"location"`
	VehicleDetails    string `json:"vehicleDetails,omitempty" yaml:"vehicleDetails"`
	DriverName        string `json:"driverName,omitempty" yaml:"driverName"`
	DamageDescription string `json:"damageDescription,omitempty" yaml:"damageDescription"`
	Weather           string `json:"weather,omitempty" yaml:"weather"`
}

// merge overwrites fields of d with any non-empty fields of patch.
func (d *ExtractedData) merge(patch ExtractedData) {
	if patch.IncidentDate != "" {
		d.IncidentDate = patch.IncidentDate
	}
	if patch.Location != "" {
		d.Location = patch.Location
	}
	if patch.VehicleDetails != "" {
		d.VehicleDetails = patch.VehicleDetails
	}
	if patch.DriverName != "" {
		d.DriverName = patch.DriverName
	}
	if patch.DamageDescription != "" {
		d.DamageDescription = patch.DamageDescription
	}
	if patch.Weather != "" {
		d.Weather = patch.Weather
	}
}

// DamageSeverity grades the vehicle damage found by the vision pipeline.
type DamageSeverity string

const (
	SeverityMinor     DamageSeverity = "minor"
	SeverityModerate  DamageSeverity = "moderate"
	SeveritySevere    DamageSeverity = "severe"
	SeverityTotalLoss DamageSeverity = "total_loss"
)

// FraudChecks is the individual signal breakdown behind the fraud risk score.
type FraudChecks struct {
	WeatherConsistent    bool   `json:"weatherConsistent" yaml:"weatherConsistent"`
	GPSMatch             bool   `json:"gpsMatch" yaml:"gpsMatch"`
	ClaimsFrequency      string `json:"claimsFrequency" yaml:"claimsFrequency"`
	DamageNarrativeMatch bool   `json:"damageNarrativeMatch" yaml:"damageNarrativeMatch"`
	RepairShopRisk       string `json:"repairShopRisk" yaml:"repairShopRisk"`
}

// Analysis is the result bag the simulated pipeline fills in. Every field is
// optional until the pipeline delivers it; scalar fields use pointers so a
// patch can distinguish "not provided" from a zero value.
type Analysis struct {
	SeverityScore       *float64       `json:"severityScore,omitempty" yaml:"severityScore"`
	DamageSeverity      DamageSeverity `json:"damageSeverity,omitempty" yaml:"damageSeverity"`
	EstimatedRepairCost *float64       `json:"estimatedRepairCost,omitempty" yaml:"estimatedRepairCost"`
	FraudRiskScore      *float64       `json:"fraudRiskScore,omitempty" yaml:"fraudRiskScore"`
	FraudChecks         *FraudChecks   `json:"fraudChecks,omitempty" yaml:"fraudChecks"`
	LiabilityAssessment string         `json:"liabilityAssessment,omitempty" yaml:"liabilityAssessment"`
	LiabilityConfidence *float64       `json:"liabilityConfidence,omitempty" yaml:"liabilityConfidence"`
	RecommendedPayout   *float64       `json:"recommendedPayout,omitempty" yaml:"recommendedPayout"`
	DecisionReasoning   []string       `json:"decisionReasoning,omitempty" yaml:"decisionReasoning"`
}

// merge overwrites fields of a with any fields the patch provides. Fields the
// patch leaves unset are preserved.
func (a *Analysis) merge(patch Analysis) {
	if patch.SeverityScore != nil {
		a.SeverityScore = patch.SeverityScore
	}
	if patch.DamageSeverity != "" {
		a.DamageSeverity = patch.DamageSeverity
	}
	if patch.EstimatedRepairCost != nil {
		a.EstimatedRepairCost = patch.EstimatedRepairCost
	}
	if patch.FraudRiskScore != nil {
		a.FraudRiskScore = patch.FraudRiskScore
	}
	if patch.FraudChecks != nil {
		checks := *patch.FraudChecks
		a.FraudChecks = &checks
	}
	if patch.LiabilityAssessment != "" {
		a.LiabilityAssessment = patch.LiabilityAssessment
	}
	if patch.LiabilityConfidence != nil {
		a.LiabilityConfidence = patch.LiabilityConfidence
	}
	if patch.RecommendedPayout != nil {
		a.RecommendedPayout = patch.RecommendedPayout
	}
	if patch.DecisionReasoning != nil {
		a.DecisionReasoning = append([]string(nil), patch.DecisionReasoning...)
	}
}

func (a Analysis) clone() Analysis {
	out := a
	if a.SeverityScore != nil {
		v := *a.SeverityScore
		out.SeverityScore = &v
	}
	if a.EstimatedRepairCost != nil {
		v := *a.EstimatedRepairCost
		out.EstimatedRepairCost = &v
	}
	if a.FraudRiskScore != nil {
		v := *a.FraudRiskScore
		out.FraudRiskScore = &v
	}
	if a.FraudChecks != nil {
		v := *a.FraudChecks
		out.FraudChecks = &v
	}
	if a.LiabilityConfidence != nil {
		v := *a.LiabilityConfidence
		out.LiabilityConfidence = &v
	}
	if a.RecommendedPayout != nil {
		v := *a.RecommendedPayout
		out.RecommendedPayout = &v
	}
	if a.DecisionReasoning != nil {
		out.DecisionReasoning = append([]string(nil), a.DecisionReasoning...)
	}
	return out
}

// Claim is a single insurance-claim session record. ChatHistory is
// append-only in chronological order; Logs is append-only with the newest
// entry first.
type Claim struct {
	ID            string        `json:"id"`
	Status        ClaimStatus   `json:"status"`
	Policy        PolicyContext `json:"policy"`
	Description   string        `json:"description,omitempty"`
	ChatHistory   []ChatMessage `json:"chatHistory"`
	ExtractedData ExtractedData `json:"extractedData"`
	Analysis      Analysis      `json:"analysis"`
	Logs          []AgentAction `json:"logs"`
}

// ClaimPatch is a partial update delivered by the scenario driver or the
// assistant pipeline. Top-level fields are shallow-merged; ExtractedData and
// Analysis are deep-merged additively.
type ClaimPatch struct {
	Status        ClaimStatus    `json:"status,omitempty" yaml:"status"`
	Description   string         `json:"description,omitempty" yaml:"description"`
	ExtractedData *ExtractedData `json:"extractedData,omitempty" yaml:"extracted"`
	Analysis      *Analysis      `json:"analysis,omitempty" yaml:"analysis"`
}

// ApplyPatch merges p into the claim. Keys absent from the patch are
// preserved; chat history and logs are never touched by a patch.
func (c *Claim) ApplyPatch(p ClaimPatch) {
	if p.Status != "" {
		c.Status = p.Status
	}
	if p.Description != "" {
		c.Description = p.Description
	}
	if p.ExtractedData != nil {
		c.ExtractedData.merge(*p.ExtractedData)
	}
	if p.Analysis != nil {
		c.Analysis.merge(*p.Analysis)
	}
}

// Clone returns a deep copy of the claim for handing to observers.
func (c Claim) Clone() Claim {
	out := c
	out.ChatHistory = append([]ChatMessage(nil), c.ChatHistory...)
	out.Logs = append([]AgentAction(nil), c.Logs...)
	out.Analysis = c.Analysis.clone()
	if c.Policy.Limits != nil {
		limits := *c.Policy.Limits
		out.Policy.Limits = &limits
	}
	return out
}
