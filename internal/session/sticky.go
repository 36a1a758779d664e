package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/moldu/assistant/internal/types"
)

// Sticky context defaults.
const (
	DefaultStickyTTL   = 10 * time.Minute
	DefaultStickyTurns = 4
)

// Sticky clear reasons, logged on every Active -> Absent transition.
const (
	StickyClearExhausted     = "turns_exhausted"
	StickyClearExpired       = "expired"
	StickyClearMailboxSearch = "mailbox_search"
	StickyClearScopeChange   = "scope_change"
	StickyClearItemChanged   = "item_changed"
	StickyClearReset         = "session_reset"
)

// stickyState is the Active state of the sticky mail context machine. A nil
// pointer is the Absent state.
type stickyState struct {
	threadID       string
	emailMessageID string
	turnsRemaining int
	expiresAt      time.Time
	updatedAt      time.Time
	source         string
}

// ResolveStickySnapshot returns the active sticky context, or nil when the
// context is absent. Expiry and turn exhaustion are checked lazily here, so
// a stale context is purged on read without any background timer.
func (s *Session) ResolveStickySnapshot() *types.StickySnapshot {
	st := s.sticky
	if st == nil {
		return nil
	}
	now := s.now()
	if st.turnsRemaining <= 0 {
		s.clearSticky(StickyClearExhausted)
		return nil
	}
	if !st.expiresAt.After(now) {
		s.clearSticky(StickyClearExpired)
		return nil
	}
	return &types.StickySnapshot{
		ThreadID:       st.threadID,
		EmailMessageID: st.emailMessageID,
		TurnsRemaining: st.turnsRemaining,
		ExpiresAt:      st.expiresAt.UnixMilli(),
		UpdatedAt:      st.updatedAt.UnixMilli(),
		Source:         st.source,
	}
}

// SeedSticky starts (or refreshes) an active sticky context for a concrete
// mail message id. Seeding happens from resolved runtime payload flags only,
// never from chip parsing.
func (s *Session) SeedSticky(threadID, emailMessageID, source string) {
	if emailMessageID == "" {
		return
	}
	now := s.now()
	s.sticky = &stickyState{
		threadID:       threadID,
		emailMessageID: emailMessageID,
		turnsRemaining: s.stickyTurns,
		expiresAt:      now.Add(s.stickyTTL),
		updatedAt:      now,
		source:         source,
	}
	s.logger.Debug("sticky context seeded",
		zap.String("email_message_id", emailMessageID),
		zap.Int("turns", s.stickyTurns))
}

// ConsumeSticky decrements the turn budget by one. It is called after a
// request that applied the sticky id was dispatched, never before.
func (s *Session) ConsumeSticky() {
	st := s.sticky
	if st == nil {
		return
	}
	st.turnsRemaining--
	st.updatedAt = s.now()
	if st.turnsRemaining <= 0 {
		s.clearSticky(StickyClearExhausted)
	}
}

// ClearSticky performs the Active -> Absent transition for an external
// reason (scope switch, mailbox-wide search, item change, reset).
func (s *Session) ClearSticky(reason string) {
	if s.sticky != nil {
		s.clearSticky(reason)
	}
}

func (s *Session) clearSticky(reason string) {
	s.sticky = nil
	s.logger.Debug("sticky context cleared", zap.String("reason", reason))
}
