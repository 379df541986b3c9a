package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jaypatwe/EMA/internal/claims"
)

func TestAppendChatMessage_AppendOnly(t *testing.T) {
	s := New()

	var sent []claims.ChatMessage
	for i := 0; i < 5; i++ {
		msg := s.AppendChatMessage(claims.RoleUser, "msg "+strconv.Itoa(i), claims.MessageText, "")
		sent = append(sent, msg)
	}

	history := s.Snapshot().Claim.ChatHistory
	if len(history) != 6 { // welcome message + 5
		t.Fatalf("history length = %d, want 6", len(history))
	}
	for i, msg := range sent {
		got := history[i+1]
		if got.ID != msg.ID || got.Content != msg.Content {
			t.Errorf("history[%d] = %+v, want %+v", i+1, got, msg)
		}
	}
}

func TestAppendLog_PrependOnly(t *testing.T) {
	s := New()

	const n = 4
	for i := 0; i < n; i++ {
		s.AppendLog(claims.AgentAction{
			AgentName: "Intake Agent",
			Action:    "step " + strconv.Itoa(i),
			Status:    claims.ActionSuccess,
		})
	}

	logs := s.Snapshot().Claim.Logs
	if len(logs) != n {
		t.Fatalf("logs length = %d, want %d", len(logs), n)
	}
	// Entry k from the head corresponds to the (n-k)-th call.
	for k := 0; k < n; k++ {
		want := "step " + strconv.Itoa(n-1-k)
		if logs[k].Action != want {
			t.Errorf("logs[%d].Action = %q, want %q", k, logs[k].Action, want)
		}
	}
	for _, entry := range logs {
		if entry.ID == "" || entry.Timestamp.IsZero() {
			t.Errorf("log entry not stamped: %+v", entry)
		}
	}
}

func TestSetAgentStatus_TouchesOnlyNamedAgent(t *testing.T) {
	s := New()

	if err := s.SetAgentStatus(claims.AgentFraudDetection, claims.AgentFailed); err != nil {
		t.Fatalf("SetAgentStatus failed: %v", err)
	}

	want := claims.NewAgentWorkflow()
	want.FraudDetection = claims.AgentFailed
	if diff := cmp.Diff(want, s.Snapshot().Workflow); diff != "" {
		t.Errorf("workflow mismatch:\n%s", diff)
	}
}

func TestSetAgentStatus_UnknownAgent(t *testing.T) {
	s := New()
	err := s.SetAgentStatus("notAnAgent", claims.AgentRunning)
	var unknownAgent *claims.UnknownAgentError
	if !errors.As(err, &unknownAgent) {
		t.Fatalf("expected UnknownAgentError, got %v", err)
	}
}

func TestSetStatus_UnknownValue(t *testing.T) {
	s := New()
	err := s.SetStatus("limbo")
	var unknownStatus *claims.UnknownStatusError
	if !errors.As(err, &unknownStatus) {
		t.Fatalf("expected UnknownStatusError, got %v", err)
	}
	if got := s.Snapshot().Claim.Status; got != claims.StatusProcessing {
		t.Errorf("status changed to %q on rejected set", got)
	}
}

func TestReset_IdempotentEffect(t *testing.T) {
	s := New()
	s.AppendChatMessage(claims.RoleUser, "I was in an accident", claims.MessageText, "")
	s.AppendLog(claims.AgentAction{AgentName: "Intake Agent", Action: "x", Status: claims.ActionSuccess})
	if err := s.SetStatus(claims.StatusApproved); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if err := s.SetAgentStatus(claims.AgentIntake, claims.AgentCompleted); err != nil {
		t.Fatalf("SetAgentStatus failed: %v", err)
	}

	s.Reset()
	s.Reset()

	snap := s.Snapshot()
	if diff := cmp.Diff(claims.NewAgentWorkflow(), snap.Workflow); diff != "" {
		t.Errorf("workflow not reset:\n%s", diff)
	}
	if len(snap.Claim.ChatHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(snap.Claim.ChatHistory))
	}
	if snap.Claim.ChatHistory[0].Content != claims.WelcomeMessage {
		t.Errorf("unexpected seeded message: %q", snap.Claim.ChatHistory[0].Content)
	}
	if len(snap.Claim.Logs) != 0 {
		t.Errorf("logs not discarded: %d entries", len(snap.Claim.Logs))
	}
	if snap.Claim.Status != claims.StatusProcessing {
		t.Errorf("status = %q, want %q", snap.Claim.Status, claims.StatusProcessing)
	}
}

func TestReset_MintsFreshWelcomeMessageID(t *testing.T) {
	s := New()
	first := s.Snapshot().Claim.ChatHistory[0].ID
	s.Reset()
	second := s.Snapshot().Claim.ChatHistory[0].ID
	if first == second {
		t.Errorf("welcome message id reused across reset: %q", first)
	}
}

func TestApply_RejectsStaleGeneration(t *testing.T) {
	s := New()
	gen := s.Generation()

	s.Reset()

	err := s.Apply(gen, func(st *State) error {
		st.AppendChatMessage(claims.RoleAgent, "late reply", claims.MessageText, "")
		return nil
	})
	if !errors.Is(err, claims.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
	if got := len(s.Snapshot().Claim.ChatHistory); got != 1 {
		t.Errorf("stale write landed: history length = %d, want 1", got)
	}
}

func TestApply_CurrentGenerationSucceeds(t *testing.T) {
	s := New()

	err := s.Apply(s.Generation(), func(st *State) error {
		st.AppendChatMessage(claims.RoleAgent, "on time", claims.MessageText, "")
		return st.SetStatus(claims.StatusAnalyzing)
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	snap := s.Snapshot()
	if snap.Claim.Status != claims.StatusAnalyzing {
		t.Errorf("status = %q, want %q", snap.Claim.Status, claims.StatusAnalyzing)
	}
	if len(snap.Claim.ChatHistory) != 2 {
		t.Errorf("history length = %d, want 2", len(snap.Claim.ChatHistory))
	}
}

func TestResetBound_CouplesGenerationAndContext(t *testing.T) {
	s := New()

	gen, ctx, cancel := s.ResetBound(context.Background())
	defer cancel()

	// The returned generation is the one the reset itself created, so a
	// write against it lands.
	if gen != s.Generation() {
		t.Fatalf("generation = %d, want current %d", gen, s.Generation())
	}
	err := s.Apply(gen, func(st *State) error {
		st.AppendChatMessage(claims.RoleAgent, "in flight", claims.MessageText, "")
		return nil
	})
	if err != nil {
		t.Fatalf("Apply against own generation failed: %v", err)
	}

	// The next reset both cancels the context and stales the generation.
	s.Reset()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("bound context not canceled by the next reset")
	}
	err = s.Apply(gen, func(st *State) error { return nil })
	if !errors.Is(err, claims.ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite after reset, got %v", err)
	}
}

func TestRejectedWrite_DoesNotNotifySubscribers(t *testing.T) {
	s := New()
	updates, cancel := s.Subscribe()
	defer cancel()

	if err := s.SetStatus("limbo"); err == nil {
		t.Fatal("expected rejection of unknown status")
	}
	if err := s.SetAgentStatus("notAnAgent", claims.AgentRunning); err == nil {
		t.Fatal("expected rejection of unknown agent")
	}

	select {
	case snap := <-updates:
		t.Errorf("rejected writes produced a snapshot: %+v", snap.Claim.Status)
	default:
	}
}

func TestContext_CanceledByReset(t *testing.T) {
	s := New()
	ctx := s.Context()

	s.Reset()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("generation context not canceled by reset")
	}
	if s.Context().Err() != nil {
		t.Error("fresh generation context already canceled")
	}
}

func TestSubscribe_DeliversLatestSnapshot(t *testing.T) {
	s := New()
	updates, cancel := s.Subscribe()
	defer cancel()

	s.AppendChatMessage(claims.RoleUser, "first", claims.MessageText, "")
	s.AppendChatMessage(claims.RoleUser, "second", claims.MessageText, "")

	var snap Snapshot
	select {
	case snap = <-updates:
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	// A slow observer may skip intermediate snapshots but the latest one
	// must come through.
	if len(snap.Claim.ChatHistory) < 2 {
		select {
		case snap = <-updates:
		case <-time.After(time.Second):
			t.Fatal("latest snapshot never delivered")
		}
	}
	last := snap.Claim.ChatHistory[len(snap.Claim.ChatHistory)-1]
	if last.Content != "second" {
		t.Errorf("latest message = %q, want %q", last.Content, "second")
	}
}

func TestSession_ConcurrentAccess(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.AppendChatMessage(claims.RoleUser, "msg "+strconv.Itoa(i), claims.MessageText, "")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.AppendLog(claims.AgentAction{AgentName: "Intake Agent", Action: "a", Status: claims.ActionSuccess})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Snapshot()
		}
	}()
	wg.Wait()

	snap := s.Snapshot()
	if len(snap.Claim.ChatHistory) != 501 {
		t.Errorf("history length = %d, want 501", len(snap.Claim.ChatHistory))
	}
	if len(snap.Claim.Logs) != 500 {
		t.Errorf("logs length = %d, want 500", len(snap.Claim.Logs))
	}
}
