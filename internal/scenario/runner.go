package scenario

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jaypatwe/EMA/internal/claims"
	"github.com/jaypatwe/EMA/internal/session"
)

// Run is a handle on one in-flight timeline playback.
type Run struct {
	script *Script
	done   chan struct{}
}

// Done is closed when playback finishes, whether it ran to completion or
// was canceled by a reset.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Script returns the timeline being played.
func (r *Run) Script() *Script {
	return r.script
}

// Runner plays scripts against claim sessions. At most one run per session
// is allowed at a time; a session reset cancels its in-flight run, so a
// superseded timeline can never write into a fresh session.
type Runner struct {
	pace float64 // delay multiplier; 0 plays back without sleeping

	mu     sync.Mutex
	active map[*session.Session]*Run
}

// NewRunner creates a runner with the given delay multiplier. Pass 1 for
// the scripted pacing and 0 to play timelines back-to-back (tests).
func NewRunner(pace float64) *Runner {
	return &Runner{
		pace:   pace,
		active: make(map[*session.Session]*Run),
	}
}

// Start resets the session and begins playing the script asynchronously.
// It fails with claims.ErrScenarioActive when a run for the same session is
// still in flight.
func (r *Runner) Start(ctx context.Context, sess *session.Session, script *Script) (*Run, error) {
	r.mu.Lock()
	if _, busy := r.active[sess]; busy {
		r.mu.Unlock()
		return nil, claims.ErrScenarioActive
	}
	run := &Run{script: script, done: make(chan struct{})}
	r.active[sess] = run
	r.mu.Unlock()

	// The reset and the generation capture happen atomically, so a reset
	// racing with Start either precedes the run entirely or cancels it.
	// Playback also stops when the server shuts down.
	gen, playCtx, cancel := sess.ResetBound(ctx)

	go func() {
		defer func() {
			cancel()
			r.mu.Lock()
			delete(r.active, sess)
			r.mu.Unlock()
			close(run.done)
		}()
		r.play(playCtx, sess, gen, script)
	}()

	return run, nil
}

// Active reports whether a run is in flight for the session.
func (r *Runner) Active(sess *session.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.active[sess]
	return busy
}

func (r *Runner) play(ctx context.Context, sess *session.Session, gen uint64, script *Script) {
	if err := r.pause(ctx, leadInDelay); err != nil {
		return
	}

	for _, step := range script.Opening {
		if err := r.pause(ctx, time.Duration(step.Delay)); err != nil {
			return
		}
		err := sess.Apply(gen, func(st *session.State) error {
			st.AppendChatMessage(step.Role, step.Content, step.Type, "")
			return nil
		})
		if stopped(err, script.Name) {
			return
		}
	}

	// The agent pipeline advances concurrently with the photo upload and
	// the final analysis payload, like the live demo.
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.stepPipeline(ctx, sess, gen, script)
	}()
	defer wg.Wait()

	err := sess.Apply(gen, func(st *session.State) error {
		st.AppendChatMessage(claims.RoleUser, "", claims.MessageImageUpload, script.Upload.ImageURL)
		st.AppendLog(script.Upload.Log)
		return nil
	})
	if stopped(err, script.Name) {
		return
	}

	if err := r.pause(ctx, script.Upload.delay()); err != nil {
		return
	}

	err = sess.Apply(gen, func(st *session.State) error {
		st.PatchClaim(claims.ClaimPatch{
			ExtractedData: script.Result.Extracted,
			Analysis:      script.Result.Analysis,
		})
		if err := st.SetStatus(script.Result.Status); err != nil {
			return err
		}
		st.AppendChatMessage(claims.RoleAgent, script.Result.Closing, claims.MessageText, "")
		return nil
	})
	stopped(err, script.Name)
}

func (r *Runner) stepPipeline(ctx context.Context, sess *session.Session, gen uint64, script *Script) {
	for _, step := range script.Pipeline {
		err := sess.Apply(gen, func(st *session.State) error {
			return st.SetAgentStatus(step.Agent, claims.AgentRunning)
		})
		if stopped(err, script.Name) {
			return
		}
		if err := r.pause(ctx, step.delay()); err != nil {
			return
		}
		err = sess.Apply(gen, func(st *session.State) error {
			return st.SetAgentStatus(step.Agent, step.Outcome)
		})
		if stopped(err, script.Name) {
			return
		}
	}
}

// pause sleeps for the scaled delay or returns early when playback is
// canceled.
func (r *Runner) pause(ctx context.Context, d time.Duration) error {
	d = time.Duration(float64(d) * r.pace)
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

// stopped reports whether playback should end, logging anything that isn't
// the expected reset race.
func stopped(err error, script string) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, claims.ErrStaleWrite):
		slog.Debug("Scenario run superseded by reset", "scenario", script)
		return true
	default:
		slog.Error("Scenario step failed", "scenario", script, "error", err)
		return true
	}
}
