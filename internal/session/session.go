// Package session owns the in-memory claim session state: one claim record
// plus one agent workflow per visitor. All mutation goes through Session so
// the transcript and audit log stay append-only and observers see every
// change.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jaypatwe/EMA/internal/claims"
)

// Snapshot is an immutable copy of the session state handed to observers.
type Snapshot struct {
	Claim      claims.Claim         `json:"claim"`
	Workflow   claims.AgentWorkflow `json:"agentWorkflow"`
	Generation uint64               `json:"generation"`
}

// Session is the sole owner of one claim record and its agent workflow.
// Every reset advances the generation and cancels the generation context,
// which invalidates any delayed work started against the previous state.
type Session struct {
	mu        sync.Mutex
	claim     claims.Claim
	workflow  claims.AgentWorkflow
	gen       uint64
	genCtx    context.Context
	genCancel context.CancelFunc
	subs      map[int]chan Snapshot
	nextSub   int
	lastSeen  time.Time
}

// New creates a session seeded with the demo claim fixture.
func New() *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		claim:     claims.SeedClaim(),
		workflow:  claims.NewAgentWorkflow(),
		gen:       1,
		genCtx:    ctx,
		genCancel: cancel,
		subs:      make(map[int]chan Snapshot),
		lastSeen:  time.Now(),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Claim:      s.claim.Clone(),
		Workflow:   s.workflow,
		Generation: s.gen,
	}
}

// Generation returns the current session generation. Delayed work should
// capture it and apply its writes through Apply.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Context returns a context that is canceled when the session is next
// reset. In-flight scenario and assistant work derives from it.
func (s *Session) Context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genCtx
}

// Bound derives a context that is canceled when parent is done or when the
// session is next reset, whichever comes first. Delayed work runs under it.
func (s *Session) Bound(parent context.Context) (context.Context, context.CancelFunc) {
	return bind(parent, s.Context())
}

func bind(parent, gen context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(gen, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// AppendChatMessage appends a message with a fresh id and timestamp to the
// end of the transcript and returns it.
func (s *Session) AppendChatMessage(role claims.MessageRole, content string, typ claims.MessageType, imageURL string) claims.ChatMessage {
	s.mu.Lock()
	msg := s.appendChatLocked(role, content, typ, imageURL)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
	return msg
}

// SetStatus replaces the claim status. Any known status may follow any
// other; adjusters are allowed to override freely.
func (s *Session) SetStatus(status claims.ClaimStatus) error {
	s.mu.Lock()
	if err := s.setStatusLocked(status); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
	return nil
}

// SetAgentStatus replaces the status of one pipeline agent, leaving the
// other six untouched.
func (s *Session) SetAgentStatus(agent claims.AgentKey, status claims.AgentStatus) error {
	s.mu.Lock()
	if err := s.workflow.Set(agent, status); err != nil {
		s.mu.Unlock()
		return err
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
	return nil
}

// AppendLog stamps the entry with an id and timestamp if absent and
// prepends it, so index 0 is always the most recent action.
func (s *Session) AppendLog(action claims.AgentAction) claims.AgentAction {
	s.mu.Lock()
	stamped := s.appendLogLocked(action)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
	return stamped
}

// PatchClaim merges a partial update into the claim additively.
func (s *Session) PatchClaim(patch claims.ClaimPatch) {
	s.mu.Lock()
	s.claim.ApplyPatch(patch)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
}

// Reset discards all chat, log, and analysis state, reseeds the claim with
// a fresh welcome message, returns every agent to waiting, and advances the
// generation. Work started against the previous generation is canceled.
func (s *Session) Reset() {
	s.reset()
}

// ResetBound resets the session and binds parent to the generation that
// reset created, all against one lock acquisition. The returned generation
// and context belong together: a reset landing any time afterwards makes
// the generation stale and cancels the context. Scenario playback starts
// from here so a concurrent reset can never slip between the reset and the
// capture.
func (s *Session) ResetBound(parent context.Context) (uint64, context.Context, context.CancelFunc) {
	gen, genCtx := s.reset()
	ctx, cancel := bind(parent, genCtx)
	return gen, ctx, cancel
}

func (s *Session) reset() (uint64, context.Context) {
	s.mu.Lock()
	s.claim = claims.SeedClaim()
	s.workflow = claims.NewAgentWorkflow()
	s.gen++
	gen := s.gen
	cancel := s.genCancel
	s.genCtx, s.genCancel = context.WithCancel(context.Background())
	genCtx := s.genCtx
	snap := s.snapshotLocked()
	s.mu.Unlock()
	cancel()
	s.broadcast(snap)
	return gen, genCtx
}

func (s *Session) appendChatLocked(role claims.MessageRole, content string, typ claims.MessageType, imageURL string) claims.ChatMessage {
	msg := claims.NewChatMessage(role, content, typ, imageURL)
	s.claim.ChatHistory = append(s.claim.ChatHistory, msg)
	return msg
}

func (s *Session) setStatusLocked(status claims.ClaimStatus) error {
	if !status.Valid() {
		return &claims.UnknownStatusError{Value: string(status)}
	}
	s.claim.Status = status
	return nil
}

func (s *Session) appendLogLocked(action claims.AgentAction) claims.AgentAction {
	stamped := action.Stamp()
	s.claim.Logs = append([]claims.AgentAction{stamped}, s.claim.Logs...)
	return stamped
}

// State exposes the session mutations inside an Apply callback. It is only
// valid for the duration of the callback.
type State struct {
	s *Session
}

// AppendChatMessage appends a chat message; see Session.AppendChatMessage.
func (st *State) AppendChatMessage(role claims.MessageRole, content string, typ claims.MessageType, imageURL string) claims.ChatMessage {
	return st.s.appendChatLocked(role, content, typ, imageURL)
}

// SetStatus replaces the claim status; see Session.SetStatus.
func (st *State) SetStatus(status claims.ClaimStatus) error {
	return st.s.setStatusLocked(status)
}

// SetAgentStatus replaces one agent's status; see Session.SetAgentStatus.
func (st *State) SetAgentStatus(agent claims.AgentKey, status claims.AgentStatus) error {
	return st.s.workflow.Set(agent, status)
}

// AppendLog prepends an audit entry; see Session.AppendLog.
func (st *State) AppendLog(action claims.AgentAction) claims.AgentAction {
	return st.s.appendLogLocked(action)
}

// PatchClaim merges a partial update; see Session.PatchClaim.
func (st *State) PatchClaim(patch claims.ClaimPatch) {
	st.s.claim.ApplyPatch(patch)
}

// Snapshot returns the state as visible inside the callback.
func (st *State) Snapshot() Snapshot {
	return st.s.snapshotLocked()
}

// Apply runs mut against the session state if gen still matches the current
// generation, and rejects it with claims.ErrStaleWrite otherwise. The gen
// check and the mutation are atomic, so a reset can never interleave with a
// delayed write.
func (s *Session) Apply(gen uint64, mut func(*State) error) error {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return claims.ErrStaleWrite
	}
	err := mut(&State{s: s})
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.broadcast(snap)
	return err
}

// Subscribe registers an observer. The returned channel carries the latest
// snapshot after every mutation; slow observers only ever lag by one
// snapshot, never block a writer. The cancel function must be called when
// the observer goes away.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcast(snap Snapshot) {
	s.mu.Lock()
	targets := make([]chan Snapshot, 0, len(s.subs))
	for _, ch := range s.subs {
		targets = append(targets, ch)
	}
	s.mu.Unlock()

	for _, ch := range targets {
		select {
		case ch <- snap:
		default:
			// Drop the stale snapshot the observer hasn't read yet and
			// replace it with the latest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Touch records visitor activity for idle-session sweeping.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen reports the most recent visitor activity.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
