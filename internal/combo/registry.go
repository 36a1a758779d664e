// Package combo maps structured chip/verb selections to canonical
// natural-language request messages.
package combo

import (
	"sort"
	"strings"

	"github.com/moldu/assistant/internal/types"
)

// Entry is one registered (chip-set, verb-set) pair and its canonical
// message template. Every entry has at least one chip and one verb.
type Entry struct {
	Chips         []types.ChipID
	Verbs         []types.VerbID
	LegacyMessage string
}

// entries is the static combo table. Lookup is exact sorted-set match only.
var entries = []Entry{
	{chips(types.ChipCurrentMail), verbs(types.VerbSummary), "이 메일을 요약해줘."},
	{chips(types.ChipCurrentMail), verbs(types.VerbAnalysis), "이 메일을 분석해줘."},
	{chips(types.ChipCurrentMail), verbs(types.VerbReply), "이 메일에 대한 답장을 작성해줘."},
	{chips(types.ChipCurrentMail), verbs(types.VerbTranslate), "이 메일을 번역해줘."},
	{chips(types.ChipCurrentMail), verbs(types.VerbTodoExtract), "이 메일에서 할 일을 추출해줘."},
	{chips(types.ChipCurrentMail), verbs(types.VerbWrite), "이 메일을 참고해서 메일 초안을 작성해줘."},
	{chips(types.ChipCurrentMail), verbs(types.VerbSummary, types.VerbTranslate), "이 메일을 요약하고 번역해줘."},
	{chips(types.ChipCurrentMail, types.ChipTodo), verbs(types.VerbAdd), "이 메일에서 할 일을 추출해서 할일 목록에 추가해줘."},
	{chips(types.ChipCurrentMail, types.ChipSchedule), verbs(types.VerbRegister), "이 메일의 내용으로 일정을 등록해줘."},
	{chips(types.ChipAllMailbox), verbs(types.VerbSearch), "전체 사서함에서 메일을 검색해줘."},
	{chips(types.ChipAllMailbox), verbs(types.VerbSummary), "전체 사서함의 최근 메일을 요약해줘."},
	{chips(types.ChipRoom), verbs(types.VerbReserve), "회의실을 예약해줘."},
	{chips(types.ChipRoom), verbs(types.VerbSearch), "회의실 예약 현황을 검색해줘."},
	{chips(types.ChipSchedule), verbs(types.VerbRegister), "일정을 등록해줘."},
	{chips(types.ChipSchedule), verbs(types.VerbSearch), "일정을 검색해줘."},
	{chips(types.ChipTodo), verbs(types.VerbAdd), "할 일을 추가해줘."},
	{chips(types.ChipTodo), verbs(types.VerbSearch), "할 일 목록을 검색해줘."},
	{chips(types.ChipHR), verbs(types.VerbSearch), "인사 정보를 검색해줘."},
	{chips(types.ChipHR), verbs(types.VerbRegister), "인사 요청을 등록해줘."},
	{chips(types.ChipPromise), verbs(types.VerbAnalysis), "공약사업 현황을 분석해줘."},
	{chips(types.ChipPromise), verbs(types.VerbSearch), "공약사업을 검색해줘."},
	{chips(types.ChipFinance), verbs(types.VerbAnalysis), "재정 현황을 분석해줘."},
	{chips(types.ChipFinance), verbs(types.VerbSearch), "재정 정보를 검색해줘."},
}

var byKey map[string]*Entry

func init() {
	byKey = make(map[string]*Entry, len(entries))
	for i := range entries {
		e := &entries[i]
		sortChips(e.Chips)
		sortVerbs(e.Verbs)
		byKey[Key(e.Chips, e.Verbs)] = e
	}
}

// Key builds the lookup key for a chip set and verb set. Both sides are
// sorted so the key is order-independent.
func Key(chipIDs []types.ChipID, verbIDs []types.VerbID) string {
	cs := make([]string, len(chipIDs))
	for i, c := range chipIDs {
		cs[i] = string(c)
	}
	vs := make([]string, len(verbIDs))
	for i, v := range verbIDs {
		vs[i] = string(v)
	}
	sort.Strings(cs)
	sort.Strings(vs)
	return strings.Join(cs, "+") + "|" + strings.Join(vs, "+")
}

// Lookup returns the combo registered for exactly this chip set and verb set.
func Lookup(chipIDs []types.ChipID, verbIDs []types.VerbID) *Entry {
	return byKey[Key(chipIDs, verbIDs)]
}

// Entries returns the full registry in table order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// AllowedNextChips returns the chips that co-occur with all selected chips in
// at least one registered combo. An empty selection yields every chip that
// participates in a combo; a full selection yields nothing.
func AllowedNextChips(selected []types.ChipID) []types.ChipID {
	if len(selected) >= maxSelectable {
		return nil
	}
	seen := make(map[types.ChipID]bool)
	var out []types.ChipID
	for i := range entries {
		for _, candidate := range entries[i].Chips {
			if seen[candidate] || chipIn(selected, candidate) {
				continue
			}
			if comboWithAll(append(append([]types.ChipID{}, selected...), candidate)) {
				seen[candidate] = true
				out = append(out, candidate)
			}
		}
	}
	sortChips(out)
	return out
}

// maxSelectable mirrors the grammar chip cap.
const maxSelectable = 2

// comboWithAll reports whether some combo's chip set contains every given chip.
func comboWithAll(want []types.ChipID) bool {
	for i := range entries {
		all := true
		for _, w := range want {
			if !chipIn(entries[i].Chips, w) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func chips(ids ...types.ChipID) []types.ChipID { return ids }
func verbs(ids ...types.VerbID) []types.VerbID { return ids }

func chipIn(list []types.ChipID, id types.ChipID) bool {
	for _, c := range list {
		if c == id {
			return true
		}
	}
	return false
}

func sortChips(ids []types.ChipID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func sortVerbs(ids []types.VerbID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
