package claims

// Notification is one dashboard notification entry. The demo serves a fixed
// list; there is no read/unread state on the server.
type Notification struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Time    string `json:"time"`
	Type    string `json:"type"`
}

// SeedNotifications returns the fixed notification feed for the dashboard.
func SeedNotifications() []Notification {
	return []Notification{
		{
			ID:      1,
			Title:   "High Risk Claim Flagged",
			Message: "Claim #CLM-9921 (Sarah Connor) flagged for potential location mismatch.",
			Time:    "10 mins ago",
			Type:    "alert",
		},
		{
			ID:      2,
			Title:   "Settlement Approved",
			Message: "Auto-approval executed for Claim #CLM-7742. Payment of $2,400 released.",
			Time:    "1 hour ago",
			Type:    "success",
		},
		{
			ID:      3,
			Title:   "New Document Uploaded",
			Message: "Police Report added to Claim #CLM-8832 by claimant.",
			Time:    "2 hours ago",
			Type:    "info",
		},
		{
			ID:      4,
			Title:   "Adjuster Assignment",
			Message: "You have been assigned 3 new complex claims for manual review.",
			Time:    "4 hours ago",
			Type:    "neutral",
		},
	}
}

// Settings are the autonomous-agent thresholds shown on the configuration
// page. The assistant pipeline routes approvals with these values.
type Settings struct {
	StraightThroughProcessing bool    `json:"straightThroughProcessing"`
	MaxAutoApproval           float64 `json:"maxAutoApproval"`
	FraudScoreTrigger         float64 `json:"fraudScoreTrigger"`
	SeverityTrigger           float64 `json:"severityTrigger"`
	IntakeAgentTone           string  `json:"intakeAgentTone"`
	VisionModelVersion        string  `json:"visionModelVersion"`
}

// DefaultSettings returns the demo threshold configuration.
func DefaultSettings() Settings {
	return Settings{
		StraightThroughProcessing: true,
		MaxAutoApproval:           5000,
		FraudScoreTrigger:         0.4,
		SeverityTrigger:           0.5,
		IntakeAgentTone:           "Empathetic & Professional",
		VisionModelVersion:        "v4.2 (Beta)",
	}
}

// Float returns a pointer to v, for filling optional Analysis fields.
func Float(v float64) *float64 {
	return &v
}
