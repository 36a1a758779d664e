// Package session owns the mutable conversation state: scope and mode, the
// sticky mail context, the pending promise project, and the processing guard.
// All transitions are methods on Session so they stay testable without a UI.
//
// The taskpane runs turns one at a time on a single event loop, and this Go
// rendition keeps that contract: a Session must only be used from one
// goroutine; there is deliberately no lock.
package session

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/moldu/assistant/internal/types"
)

// BlobVersion is the persisted session format version. A stored blob with a
// different version is discarded on restore.
const BlobVersion = 2

// HistoryEntry is one chat turn kept in the session transcript.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	At      int64  `json:"at"`
}

// Blob is the versioned JSON snapshot persisted per user identity.
type Blob struct {
	Version               int                   `json:"version"`
	ThreadID              string                `json:"thread_id"`
	Scope                 types.Scope           `json:"scope,omitempty"`
	Mode                  string                `json:"mode,omitempty"`
	History               []HistoryEntry        `json:"history,omitempty"`
	PendingPromiseProject string                `json:"pending_promise_project,omitempty"`
	InputDraft            string                `json:"input_draft,omitempty"`
	Sticky                *types.StickySnapshot `json:"sticky_context,omitempty"`
}

// Session is the single owner of per-conversation mutable state.
type Session struct {
	UserID     string
	ThreadID   string
	Scope      types.Scope
	Mode       string
	InputDraft string
	History    []HistoryEntry

	pendingPromiseProject string
	sticky                *stickyState
	processing            bool

	stickyTTL   time.Duration
	stickyTurns int

	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithStickyTTL overrides the sticky context time budget.
func WithStickyTTL(ttl time.Duration) Option {
	return func(s *Session) { s.stickyTTL = ttl }
}

// WithStickyTurns overrides the sticky context turn budget.
func WithStickyTurns(turns int) Option {
	return func(s *Session) { s.stickyTurns = turns }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session for a user with a fresh thread id.
func New(userID string, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		UserID:      userID,
		ThreadID:    uuid.NewString(),
		stickyTTL:   DefaultStickyTTL,
		stickyTurns: DefaultStickyTurns,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetScope switches the conversation scope. Moving away from email scope
// clears the sticky mail context.
func (s *Session) SetScope(scope types.Scope) {
	if s.Scope == scope {
		return
	}
	if s.Scope == types.ScopeEmail && scope != types.ScopeEmail {
		s.ClearSticky(StickyClearScopeChange)
	}
	s.Scope = scope
}

// OnItemChanged handles the mail host's item-changed notification.
func (s *Session) OnItemChanged() {
	s.ClearSticky(StickyClearItemChanged)
}

// ResetThread starts a new thread: fresh id, empty transcript, no sticky
// context, no pending promise project.
func (s *Session) ResetThread() {
	s.ThreadID = uuid.NewString()
	s.History = nil
	s.InputDraft = ""
	s.pendingPromiseProject = ""
	s.ClearSticky(StickyClearReset)
	s.processing = false
	s.logger.Info("thread reset", zap.String("thread_id", s.ThreadID))
}

// AppendHistory records one transcript entry.
func (s *Session) AppendHistory(role, content string) {
	s.History = append(s.History, HistoryEntry{
		Role:    role,
		Content: content,
		At:      s.now().UnixMilli(),
	})
}

// SetPendingPromiseProject marks the user as mid-drill into one budget
// project; an empty number clears it.
func (s *Session) SetPendingPromiseProject(number string) {
	s.pendingPromiseProject = number
}

// PendingPromiseProject returns the active promise project number, if any.
func (s *Session) PendingPromiseProject() string {
	return s.pendingPromiseProject
}

// BeginProcessing acquires the one-turn-at-a-time guard. A stuck guard from a
// previous turn is force-reset with a warning rather than blocking the UI;
// the return value reports whether that happened.
func (s *Session) BeginProcessing() (stale bool) {
	if s.processing {
		s.logger.Warn("send requested while a turn is in flight; resetting guard")
		stale = true
	}
	s.processing = true
	return stale
}

// EndProcessing releases the processing guard.
func (s *Session) EndProcessing() {
	s.processing = false
}

// Processing reports whether a turn is in flight.
func (s *Session) Processing() bool {
	return s.processing
}

// Export snapshots the session as a versioned blob for persistence.
func (s *Session) Export() Blob {
	return Blob{
		Version:               BlobVersion,
		ThreadID:              s.ThreadID,
		Scope:                 s.Scope,
		Mode:                  s.Mode,
		History:               s.History,
		PendingPromiseProject: s.pendingPromiseProject,
		InputDraft:            s.InputDraft,
		Sticky:                s.ResolveStickySnapshot(),
	}
}

// Restore loads a persisted blob into the session. Blobs with a different
// version are ignored, keeping the fresh state.
func (s *Session) Restore(b Blob) {
	if b.Version != BlobVersion {
		s.logger.Info("discarding session blob with unknown version",
			zap.Int("version", b.Version))
		return
	}
	if b.ThreadID != "" {
		s.ThreadID = b.ThreadID
	}
	s.Scope = b.Scope
	s.Mode = b.Mode
	s.History = b.History
	s.pendingPromiseProject = b.PendingPromiseProject
	s.InputDraft = b.InputDraft
	if b.Sticky != nil && b.Sticky.EmailMessageID != "" {
		s.sticky = &stickyState{
			threadID:       b.Sticky.ThreadID,
			emailMessageID: b.Sticky.EmailMessageID,
			turnsRemaining: b.Sticky.TurnsRemaining,
			expiresAt:      time.UnixMilli(b.Sticky.ExpiresAt),
			updatedAt:      time.UnixMilli(b.Sticky.UpdatedAt),
			source:         b.Sticky.Source,
		}
	}
}
