// Package grammar tokenizes the structured @chip / /verb shorthand that can
// prefix a chat message, and validates its structural constraints.
package grammar

import "github.com/moldu/assistant/internal/types"

// Limits on a single structured prefix.
const (
	MaxChips = 2
	MaxVerbs = 2
)

// ProbePrefix marks a message as a natural-language router probe. It is not a
// chip: the prefix is stripped and the remainder is sent to the backend with
// diagnostics forced on.
const ProbePrefix = "@자연어"

type chipDef struct {
	id        types.ChipID
	canonical string
	aliases   []string
}

type verbDef struct {
	id        types.VerbID
	canonical string
	aliases   []string
}

// Alias lists hold normalized forms (lowercased, whitespace removed). The
// canonical token keeps its display form with the @ or / sigil.
var chipDefs = []chipDef{
	{types.ChipCurrentMail, "@현재메일", []string{"현재메일", "지금메일", "이메일", "currentmail", "current_mail", "mail"}},
	{types.ChipAllMailbox, "@전체사서함", []string{"전체사서함", "사서함전체", "전체메일", "allmailbox", "all_mailbox", "mailbox"}},
	{types.ChipRoom, "@회의실", []string{"회의실", "회의룸", "room", "meetingroom"}},
	{types.ChipSchedule, "@일정", []string{"일정", "스케줄", "캘린더", "schedule", "calendar"}},
	{types.ChipTodo, "@할일", []string{"할일", "투두", "todo", "task"}},
	{types.ChipHR, "@인사", []string{"인사", "인사정보", "hr"}},
	{types.ChipPromise, "@공약", []string{"공약", "공약사업", "promise"}},
	{types.ChipFinance, "@재정", []string{"재정", "예산", "finance", "budget"}},
}

var verbDefs = []verbDef{
	{types.VerbSummary, "/요약", []string{"요약", "요약해줘", "summary", "summarize"}},
	{types.VerbAnalysis, "/분석", []string{"분석", "analysis", "analyze"}},
	{types.VerbReply, "/답장", []string{"답장", "회신", "reply"}},
	{types.VerbTranslate, "/번역", []string{"번역", "translate"}},
	{types.VerbTodoExtract, "/할일추출", []string{"할일추출", "todoextract", "todo_extract", "extract"}},
	{types.VerbAdd, "/추가", []string{"추가", "add"}},
	{types.VerbRegister, "/등록", []string{"등록", "register"}},
	{types.VerbReserve, "/예약", []string{"예약", "reserve", "booking"}},
	{types.VerbWrite, "/작성", []string{"작성", "write", "compose"}},
	{types.VerbSearch, "/검색", []string{"검색", "찾기", "search", "find"}},
}

// forbiddenChipPairs lists chip sets that must never combine. A single mail
// and the whole mailbox are mutually exclusive scopes.
var forbiddenChipPairs = [][2]types.ChipID{
	{types.ChipCurrentMail, types.ChipAllMailbox},
}
