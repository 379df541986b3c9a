package assistant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jaypatwe/EMA/internal/claims"
	"github.com/jaypatwe/EMA/internal/session"
)

// ErrPhotoAlreadyUploaded rejects a second damage-photo upload for the same
// session.
var ErrPhotoAlreadyUploaded = errors.New("assistant: a damage photo was already uploaded")

const (
	replyDelay    = 1500 * time.Millisecond
	analysisDelay = 2000 * time.Millisecond

	// Stand-in crash photo shown for user-initiated uploads.
	mockUploadURL = "https://images.unsplash.com/photo-1599256872237-5dcc0fbe9668?auto=format&fit=crop&q=80&w=300&h=200"
)

// Service applies Provider decisions to sessions, with the simulated typing
// delay in between. Delayed writes are bound to the session generation they
// started under, so a reset discards them instead of corrupting the fresh
// session.
type Service struct {
	provider Provider
	pace     float64
}

// NewService creates an assistant service. pace scales the simulated typing
// delays; 0 answers immediately (tests).
func NewService(provider Provider, pace float64) *Service {
	return &Service{provider: provider, pace: pace}
}

// HandleMessage appends the user's message, applies any extracted entities
// right away, and schedules the assistant's reply after the typing delay.
// The returned channel closes once the reply has landed or been discarded.
func (s *Service) HandleMessage(ctx context.Context, sess *session.Session, text string) (claims.ChatMessage, <-chan struct{}) {
	msg := sess.AppendChatMessage(claims.RoleUser, text, claims.MessageText, "")
	gen := sess.Generation()

	rep, err := s.provider.Reply(ctx, sess.Snapshot(), text)
	if err != nil {
		slog.Error("Assistant reply failed", "error", err)
		done := make(chan struct{})
		close(done)
		return msg, done
	}

	if rep.Extracted != nil {
		err := sess.Apply(gen, func(st *session.State) error {
			st.PatchClaim(claims.ClaimPatch{ExtractedData: rep.Extracted})
			if rep.Log != nil {
				st.AppendLog(*rep.Log)
			}
			return nil
		})
		if err != nil && !errors.Is(err, claims.ErrStaleWrite) {
			slog.Error("Failed to apply extracted entities", "error", err)
		}
	}

	done := make(chan struct{})
	replyCtx, cancel := sess.Bound(ctx)
	go func() {
		defer close(done)
		defer cancel()
		if err := s.pause(replyCtx, replyDelay); err != nil {
			return
		}
		err := sess.Apply(gen, func(st *session.State) error {
			st.AppendChatMessage(claims.RoleAgent, rep.Text, rep.Type, "")
			return nil
		})
		if err != nil && !errors.Is(err, claims.ErrStaleWrite) {
			slog.Error("Failed to deliver assistant reply", "error", err)
		}
	}()
	return msg, done
}

// HandleUpload records the mock photo upload, marks the claim analyzing,
// and schedules the vision assessment. A session only accepts one upload.
func (s *Service) HandleUpload(ctx context.Context, sess *session.Session) (<-chan struct{}, error) {
	snap := sess.Snapshot()
	for _, msg := range snap.Claim.ChatHistory {
		if msg.Type == claims.MessageImageUpload {
			return nil, ErrPhotoAlreadyUploaded
		}
	}

	gen := snap.Generation
	err := sess.Apply(gen, func(st *session.State) error {
		st.AppendChatMessage(claims.RoleUser, "", claims.MessageImageUpload, mockUploadURL)
		st.AppendLog(claims.AgentAction{
			AgentName: "System",
			Action:    "Image Uploaded",
			Details:   "Processing computer vision analysis...",
			Status:    claims.ActionPending,
		})
		return st.SetStatus(claims.StatusAnalyzing)
	})
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	assessCtx, cancel := sess.Bound(ctx)
	go func() {
		defer close(done)
		defer cancel()
		if err := s.pause(assessCtx, analysisDelay); err != nil {
			return
		}
		assessment, err := s.provider.AssessPhoto(assessCtx, sess.Snapshot())
		if err != nil {
			slog.Error("Photo assessment failed", "error", err)
			return
		}
		err = sess.Apply(gen, func(st *session.State) error {
			st.PatchClaim(claims.ClaimPatch{Analysis: &assessment.Analysis})
			st.AppendLog(assessment.Log)
			if err := st.SetStatus(assessment.Status); err != nil {
				return err
			}
			st.AppendChatMessage(claims.RoleAgent, assessment.Message, claims.MessageText, "")
			return nil
		})
		if err != nil && !errors.Is(err, claims.ErrStaleWrite) {
			slog.Error("Failed to apply photo assessment", "error", err)
		}
	}()
	return done, nil
}

func (s *Service) pause(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * s.pace)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
