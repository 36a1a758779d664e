package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moldu/assistant/internal/session"
	"github.com/moldu/assistant/internal/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "assistant.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveLoadSessionRoundTrip(t *testing.T) {
	db := openTestDB(t)

	sess := session.New("user-1", zap.NewNop())
	sess.SetScope(types.ScopeEmail)
	sess.AppendHistory("user", "이 메일 요약해줘")
	sess.AppendHistory("assistant", "요약 결과입니다.")
	sess.SeedSticky(sess.ThreadID, "mail-1", "runtime_payload")

	require.NoError(t, db.SaveSession("user-1", sess.Export()))

	blob, err := db.LoadSession("user-1")
	require.NoError(t, err)
	require.NotNil(t, blob)
	assert.Equal(t, session.BlobVersion, blob.Version)
	assert.Equal(t, sess.ThreadID, blob.ThreadID)

	restored := session.New("user-1", zap.NewNop())
	restored.Restore(*blob)
	assert.Equal(t, types.ScopeEmail, restored.Scope)
	assert.Len(t, restored.History, 2)

	snap := restored.ResolveStickySnapshot()
	require.NotNil(t, snap)
	assert.Equal(t, "mail-1", snap.EmailMessageID)
}

func TestSaveSessionUpserts(t *testing.T) {
	db := openTestDB(t)

	first := session.New("user-1", zap.NewNop())
	require.NoError(t, db.SaveSession("user-1", first.Export()))

	second := session.New("user-1", zap.NewNop())
	require.NoError(t, db.SaveSession("user-1", second.Export()))

	blob, err := db.LoadSession("user-1")
	require.NoError(t, err)
	require.NotNil(t, blob)
	assert.Equal(t, second.ThreadID, blob.ThreadID)
}

func TestLoadSessionMissingUser(t *testing.T) {
	db := openTestDB(t)

	blob, err := db.LoadSession("nobody")
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestDeleteSession(t *testing.T) {
	db := openTestDB(t)

	sess := session.New("user-1", zap.NewNop())
	require.NoError(t, db.SaveSession("user-1", sess.Export()))
	require.NoError(t, db.DeleteSession("user-1"))

	blob, err := db.LoadSession("user-1")
	require.NoError(t, err)
	assert.Nil(t, blob)
}

func TestTurnLogNewestFirst(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.LogTurn(&TurnRecord{
		UserID:    "user-1",
		ThreadID:  "thread-1",
		TurnKind:  types.TurnTask,
		Scope:     types.ScopeEmail,
		Message:   "이 메일 요약해줘",
		Answer:    "요약 결과입니다.",
		CreatedAt: "2026-08-31T10:00:00Z",
	}))
	require.NoError(t, db.LogTurn(&TurnRecord{
		UserID:    "user-1",
		ThreadID:  "thread-1",
		TurnKind:  types.TurnFollowupRefine,
		Message:   "더 간단히",
		Answer:    "짧은 요약입니다.",
		CreatedAt: "2026-08-31T10:01:00Z",
	}))
	require.NoError(t, db.LogTurn(&TurnRecord{
		UserID:    "other-user",
		ThreadID:  "thread-9",
		TurnKind:  types.TurnTask,
		Message:   "다른 사용자 턴",
		CreatedAt: "2026-08-31T10:02:00Z",
	}))

	turns, err := db.RecentTurns("user-1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "더 간단히", turns[0].Message)
	assert.Equal(t, types.TurnFollowupRefine, turns[0].TurnKind)
	assert.Equal(t, "이 메일 요약해줘", turns[1].Message)
	assert.Equal(t, types.ScopeEmail, turns[1].Scope)
}

func TestRecentTurnsLimit(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.LogTurn(&TurnRecord{
			UserID:   "user-1",
			ThreadID: "thread-1",
			TurnKind: types.TurnTask,
			Message:  "turn",
		}))
	}

	turns, err := db.RecentTurns("user-1", 3)
	require.NoError(t, err)
	assert.Len(t, turns, 3)
}

func TestLogTurnRejectsUnknownKind(t *testing.T) {
	db := openTestDB(t)

	err := db.LogTurn(&TurnRecord{
		UserID:   "user-1",
		ThreadID: "thread-1",
		TurnKind: "banter",
		Message:  "turn",
	})
	assert.Error(t, err)

	turns, err := db.RecentTurns("user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestGenIDShape(t *testing.T) {
	a, b := GenID(), GenID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
