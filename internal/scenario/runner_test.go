package scenario_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jaypatwe/EMA/internal/claims"
	"github.com/jaypatwe/EMA/internal/scenario"
	"github.com/jaypatwe/EMA/internal/session"
)

func playScenario(t *testing.T, name string) session.Snapshot {
	t.Helper()

	sess := session.New()
	runner := scenario.NewRunner(0)
	script, err := scenario.Load(name)
	if err != nil {
		t.Fatalf("Load(%q): %v", name, err)
	}

	run, err := runner.Start(context.Background(), sess, script)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scenario playback did not finish")
	}
	return sess.Snapshot()
}

func TestRunner_HappyScenario(t *testing.T) {
	snap := playScenario(t, "happy")

	if snap.Claim.Status != claims.StatusApproved {
		t.Errorf("status = %q, want %q", snap.Claim.Status, claims.StatusApproved)
	}
	if got := snap.Claim.Analysis.RecommendedPayout; got == nil || *got != 350 {
		t.Errorf("recommendedPayout = %v, want 350", got)
	}
	if got := snap.Claim.Analysis.FraudRiskScore; got == nil || *got != 0.05 {
		t.Errorf("fraudRiskScore = %v, want 0.05", got)
	}

	want := claims.AgentWorkflow{
		Intake:              claims.AgentCompleted,
		DamageAnalysis:      claims.AgentCompleted,
		WeatherVerification: claims.AgentCompleted,
		LocationMatching:    claims.AgentCompleted,
		FraudDetection:      claims.AgentCompleted,
		Adjudication:        claims.AgentCompleted,
		Settlement:          claims.AgentCompleted,
	}
	if diff := cmp.Diff(want, snap.Workflow); diff != "" {
		t.Errorf("workflow mismatch:\n%s", diff)
	}

	// welcome + 4 opening + upload + closing
	if got := len(snap.Claim.ChatHistory); got != 7 {
		t.Errorf("history length = %d, want 7", got)
	}
	last := snap.Claim.ChatHistory[len(snap.Claim.ChatHistory)-1]
	if last.Role != claims.RoleAgent {
		t.Errorf("closing message role = %q, want %q", last.Role, claims.RoleAgent)
	}
	if len(snap.Claim.Logs) != 1 || snap.Claim.Logs[0].AgentName != "Vision Agent" {
		t.Errorf("unexpected logs: %+v", snap.Claim.Logs)
	}
}

func TestRunner_FraudScenario(t *testing.T) {
	snap := playScenario(t, "fraud")

	if snap.Claim.Status != claims.StatusReviewRequired {
		t.Errorf("status = %q, want %q", snap.Claim.Status, claims.StatusReviewRequired)
	}
	checks := snap.Claim.Analysis.FraudChecks
	if checks == nil {
		t.Fatal("missing fraud checks")
	}
	if checks.GPSMatch {
		t.Error("gpsMatch = true, want false")
	}
	if checks.WeatherConsistent {
		t.Error("weatherConsistent = true, want false")
	}

	want := claims.AgentWorkflow{
		Intake:              claims.AgentCompleted,
		DamageAnalysis:      claims.AgentCompleted,
		WeatherVerification: claims.AgentFailed,
		LocationMatching:    claims.AgentFailed,
		FraudDetection:      claims.AgentFailed,
		Adjudication:        claims.AgentEscalated,
		Settlement:          claims.AgentWaiting,
	}
	if diff := cmp.Diff(want, snap.Workflow); diff != "" {
		t.Errorf("workflow mismatch:\n%s", diff)
	}
}

func TestRunner_ComplexScenario(t *testing.T) {
	snap := playScenario(t, "complex")

	if snap.Claim.Status != claims.StatusReviewRequired {
		t.Errorf("status = %q, want %q", snap.Claim.Status, claims.StatusReviewRequired)
	}
	if got := snap.Claim.Analysis.SeverityScore; got == nil || *got != 0.89 {
		t.Errorf("severityScore = %v, want 0.89", got)
	}
	if snap.Workflow.Adjudication != claims.AgentEscalated {
		t.Errorf("adjudication = %q, want %q", snap.Workflow.Adjudication, claims.AgentEscalated)
	}
	if snap.Workflow.Settlement != claims.AgentWaiting {
		t.Errorf("settlement = %q, want %q", snap.Workflow.Settlement, claims.AgentWaiting)
	}
}

func TestRunner_RejectsConcurrentRun(t *testing.T) {
	sess := session.New()
	runner := scenario.NewRunner(1) // demo pacing keeps the run in flight
	script, err := scenario.Load("happy")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	run, err := runner.Start(context.Background(), sess, script)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !runner.Active(sess) {
		t.Error("expected an active run")
	}

	if _, err := runner.Start(context.Background(), sess, script); !errors.Is(err, claims.ErrScenarioActive) {
		t.Fatalf("expected ErrScenarioActive, got %v", err)
	}

	// A reset cancels the in-flight run instead of letting its timers
	// write into the fresh session.
	sess.Reset()
	select {
	case <-run.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reset did not cancel the in-flight run")
	}
	if got := len(sess.Snapshot().Claim.ChatHistory); got != 1 {
		t.Errorf("history length after reset = %d, want 1", got)
	}
}

func TestRunner_ServerShutdownStopsPlayback(t *testing.T) {
	sess := session.New()
	runner := scenario.NewRunner(1)
	script, err := scenario.Load("fraud")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	run, err := runner.Start(ctx, sess, script)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()

	select {
	case <-run.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("canceling the parent context did not stop playback")
	}
}
