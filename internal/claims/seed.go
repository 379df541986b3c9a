package claims

// WelcomeMessage opens every fresh claim session.
const WelcomeMessage = "Hi Sarah, I'm Ema, your claims assistant. I see you've started a new claim. I hope you're safe. Could you tell me what happened?"

// SeedClaimID identifies the demo claim.
const SeedClaimID = "CLM-2024-001"

// SeedPolicy returns the fixed policy fixture every session starts from.
func SeedPolicy() PolicyContext {
	return PolicyContext{
		PolicyNumber: "POL-88392102",
		PolicyHolder: "Sarah Connor",
		Coverage:     "Comprehensive + Collision",
		Deductible:   500,
		Vehicle:      "2021 Tesla Model 3",
		VIN:          "5YJ3E1EA1MF123456",
		ClaimHistory: 0,
		Limits: &PolicyLimits{
			PropertyDamage: 50000,
			BodilyInjury:   100000,
		},
	}
}

// SeedClaim returns a fresh claim record: fixed id and policy, processing
// status, one welcome message with a new id, empty extraction, analysis,
// and logs.
func SeedClaim() Claim {
	return Claim{
		ID:            SeedClaimID,
		Status:        StatusProcessing,
		Policy:        SeedPolicy(),
		ChatHistory:   []ChatMessage{NewChatMessage(RoleAgent, WelcomeMessage, MessageText, "")},
		ExtractedData: ExtractedData{},
		Analysis:      Analysis{},
		Logs:          []AgentAction{},
	}
}
