package combo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moldu/assistant/internal/grammar"
	"github.com/moldu/assistant/internal/types"
)

func TestKeyOrderIndependent(t *testing.T) {
	a := Key(
		[]types.ChipID{types.ChipTodo, types.ChipCurrentMail},
		[]types.VerbID{types.VerbAdd},
	)
	b := Key(
		[]types.ChipID{types.ChipCurrentMail, types.ChipTodo},
		[]types.VerbID{types.VerbAdd},
	)
	assert.Equal(t, a, b)
}

func TestLookupExactMatchOnly(t *testing.T) {
	require.NotNil(t, Lookup(
		[]types.ChipID{types.ChipCurrentMail},
		[]types.VerbID{types.VerbSummary},
	))
	// A registered single-chip combo does not satisfy a superset selection.
	assert.Nil(t, Lookup(
		[]types.ChipID{types.ChipCurrentMail, types.ChipTodo},
		[]types.VerbID{types.VerbSummary},
	))
}

func TestResolveCurrentMailSummary(t *testing.T) {
	res := Resolve("@현재메일 /요약")
	require.NotNil(t, res)
	assert.Equal(t, "이 메일을 요약해줘.", res.LegacyMessage)
	assert.Equal(t, types.ScopeEmail, res.Scope)
	assert.Equal(t, types.DomainNone, res.Domain)
	assert.Empty(t, res.ExtraContext)
}

func TestResolveAppendsExtraContext(t *testing.T) {
	res := Resolve("@현재메일 /요약 세 줄로만")
	require.NotNil(t, res)
	assert.Equal(t, "이 메일을 요약해줘.\n추가 조건: 세 줄로만", res.LegacyMessage)
	assert.Equal(t, "세 줄로만", res.ExtraContext)
}

func TestResolveRoundTripAllEntries(t *testing.T) {
	// Every registered combo parses back from its canonical tokens.
	for _, e := range Entries() {
		var tokens []string
		for _, c := range e.Chips {
			tokens = append(tokens, grammar.ChipToken(c))
		}
		for _, v := range e.Verbs {
			tokens = append(tokens, grammar.VerbToken(v))
		}
		input := strings.Join(tokens, " ") + " 추가 텍스트"

		res := Resolve(input)
		require.NotNil(t, res, "combo %v/%v should resolve", e.Chips, e.Verbs)
		assert.Equal(t, e.LegacyMessage+"\n추가 조건: 추가 텍스트", res.LegacyMessage)
		assert.Equal(t, Key(e.Chips, e.Verbs), res.ComboKey)
	}
}

func TestResolveFallbacks(t *testing.T) {
	t.Run("plain text", func(t *testing.T) {
		assert.Nil(t, Resolve("이번 주 일정 알려줘"))
	})
	t.Run("chips without verbs", func(t *testing.T) {
		assert.Nil(t, Resolve("@현재메일 중요한 내용만"))
	})
	t.Run("verbs without chips", func(t *testing.T) {
		assert.Nil(t, Resolve("/요약 이것 좀"))
	})
	t.Run("forbidden pair", func(t *testing.T) {
		assert.Nil(t, Resolve("@현재메일 @전체사서함 /검색 킥오프"))
	})
	t.Run("unregistered combination", func(t *testing.T) {
		assert.Nil(t, Resolve("@재정 /예약"))
	})
	t.Run("over chip limit", func(t *testing.T) {
		assert.Nil(t, Resolve("@회의실 @일정 @할일 /검색"))
	})
}

func TestResolveStrictTokenOrder(t *testing.T) {
	// A chip after the verbs falls into extra context and breaks the combo
	// only if the remaining selection has no registered entry.
	res := Resolve("@현재메일 /요약 @할일 정리해서")
	require.NotNil(t, res)
	assert.Equal(t, []types.ChipID{types.ChipCurrentMail}, res.Chips)
	assert.Equal(t, "@할일 정리해서", res.ExtraContext)
}

func TestDeriveScope(t *testing.T) {
	assert.Equal(t, types.ScopeEmail, DeriveScope([]types.ChipID{types.ChipCurrentMail}))
	assert.Equal(t, types.ScopeEmail, DeriveScope([]types.ChipID{types.ChipSchedule, types.ChipCurrentMail}))
	assert.Equal(t, types.ScopeMailbox, DeriveScope([]types.ChipID{types.ChipAllMailbox}))
	assert.Equal(t, types.ScopeSystems, DeriveScope([]types.ChipID{types.ChipRoom}))
	assert.Equal(t, types.ScopeChat, DeriveScope(nil))
}

func TestDeriveDomainPrecedence(t *testing.T) {
	assert.Equal(t, types.DomainRoom, DeriveDomain([]types.ChipID{types.ChipFinance, types.ChipRoom}))
	assert.Equal(t, types.DomainSchedule, DeriveDomain([]types.ChipID{types.ChipSchedule, types.ChipPromise}))
	assert.Equal(t, types.DomainNone, DeriveDomain([]types.ChipID{types.ChipCurrentMail}))
}

func TestAllowedNextChips(t *testing.T) {
	t.Run("empty selection yields every participating chip", func(t *testing.T) {
		allowed := AllowedNextChips(nil)
		participating := map[types.ChipID]bool{}
		for _, e := range Entries() {
			for _, c := range e.Chips {
				participating[c] = true
			}
		}
		assert.Len(t, allowed, len(participating))
	})

	t.Run("partial selection filters by co-occurrence", func(t *testing.T) {
		allowed := AllowedNextChips([]types.ChipID{types.ChipCurrentMail})
		assert.ElementsMatch(t, []types.ChipID{types.ChipSchedule, types.ChipTodo}, allowed)
	})

	t.Run("full selection yields nothing", func(t *testing.T) {
		assert.Empty(t, AllowedNextChips([]types.ChipID{types.ChipCurrentMail, types.ChipTodo}))
	})
}
