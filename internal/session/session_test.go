package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moldu/assistant/internal/types"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestSession(clock *fakeClock, opts ...Option) *Session {
	opts = append(opts, WithClock(clock.Now))
	return New("tester", zap.NewNop(), opts...)
}

func TestStickyTurnBudget(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestSession(clock, WithStickyTurns(2))

	s.SeedSticky("thread-1", "mail-1", "runtime_payload")

	snap := s.ResolveStickySnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "mail-1", snap.EmailMessageID)
	assert.Equal(t, 2, snap.TurnsRemaining)

	s.ConsumeSticky()
	snap = s.ResolveStickySnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, 1, snap.TurnsRemaining)

	s.ConsumeSticky()
	assert.Nil(t, s.ResolveStickySnapshot(), "context is absent after the budget is spent")
}

func TestStickyExpiryBeatsRemainingTurns(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestSession(clock, WithStickyTTL(10*time.Minute))

	s.SeedSticky("thread-1", "mail-1", "runtime_payload")
	require.NotNil(t, s.ResolveStickySnapshot())

	clock.Advance(10*time.Minute + time.Second)
	assert.Nil(t, s.ResolveStickySnapshot(), "expired context reads as absent")
	// The purge is lazy but permanent.
	assert.Nil(t, s.ResolveStickySnapshot())
}

func TestStickySeedRequiresMessageID(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestSession(clock)

	s.SeedSticky("thread-1", "", "runtime_payload")
	assert.Nil(t, s.ResolveStickySnapshot())
}

func TestScopeChangeClearsSticky(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestSession(clock)
	s.SetScope(types.ScopeEmail)
	s.SeedSticky("thread-1", "mail-1", "runtime_payload")

	s.SetScope(types.ScopeSystems)
	assert.Nil(t, s.ResolveStickySnapshot())
}

func TestItemChangedClearsSticky(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestSession(clock)
	s.SeedSticky("thread-1", "mail-1", "runtime_payload")

	s.OnItemChanged()
	assert.Nil(t, s.ResolveStickySnapshot())
}

func TestResetThread(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestSession(clock)
	s.AppendHistory("user", "hello")
	s.SetPendingPromiseProject("P-12")
	s.SeedSticky("thread-1", "mail-1", "runtime_payload")
	oldThread := s.ThreadID

	s.ResetThread()

	assert.NotEqual(t, oldThread, s.ThreadID)
	assert.Empty(t, s.History)
	assert.Empty(t, s.PendingPromiseProject())
	assert.Nil(t, s.ResolveStickySnapshot())
}

func TestProcessingGuardLastWriterWins(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestSession(clock)

	assert.False(t, s.BeginProcessing())
	assert.True(t, s.Processing())

	// A second send while one is in flight force-resets the guard.
	assert.True(t, s.BeginProcessing())
	assert.True(t, s.Processing())

	s.EndProcessing()
	assert.False(t, s.Processing())
}

func TestBlobRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestSession(clock)
	s.SetScope(types.ScopeEmail)
	s.AppendHistory("user", "첫 질문")
	s.AppendHistory("assistant", "첫 답변")
	s.SetPendingPromiseProject("P-7")
	s.InputDraft = "쓰다 만 입력"
	s.SeedSticky("thread-1", "mail-9", "runtime_payload")

	blob := s.Export()
	assert.Equal(t, BlobVersion, blob.Version)

	restored := newTestSession(clock)
	restored.Restore(blob)

	assert.Equal(t, s.ThreadID, restored.ThreadID)
	assert.Equal(t, types.ScopeEmail, restored.Scope)
	assert.Len(t, restored.History, 2)
	assert.Equal(t, "P-7", restored.PendingPromiseProject())
	assert.Equal(t, "쓰다 만 입력", restored.InputDraft)

	snap := restored.ResolveStickySnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "mail-9", snap.EmailMessageID)
}

func TestRestoreRejectsUnknownVersion(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newTestSession(clock)
	fresh := s.ThreadID

	s.Restore(Blob{Version: BlobVersion + 1, ThreadID: "stale-thread"})
	assert.Equal(t, fresh, s.ThreadID, "unknown blob versions are discarded")
}
