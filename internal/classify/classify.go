// Package classify labels each outbound turn so downstream components can
// skip work that the turn does not warrant.
package classify

import (
	"regexp"
	"strings"

	"github.com/moldu/assistant/internal/types"
)

// Context carries the recent-context evidence a followup classification needs.
type Context struct {
	HasStickyContext bool
	CurrentMailOnly  bool
	EmailMessageID   string
}

// HasRecentContext reports whether any recent-context evidence is present.
func (c Context) HasRecentContext() bool {
	return c.HasStickyContext || c.CurrentMailOnly || c.EmailMessageID != ""
}

// Result is the classification outcome plus the rule that fired.
type Result struct {
	Kind types.TurnKind
	Rule string
}

type rule struct {
	name  string
	apply func(msg string, ctx Context) (types.TurnKind, bool)
}

// Rules run in fixed priority order; the first match wins.
var rules = []rule{
	{"blank_message", func(msg string, _ Context) (types.TurnKind, bool) {
		if strings.TrimSpace(msg) == "" {
			return types.TurnTask, true
		}
		return "", false
	}},
	{"followup_refine", func(msg string, ctx Context) (types.TurnKind, bool) {
		if isFollowupRefinePrompt(msg, ctx.HasRecentContext()) {
			return types.TurnFollowupRefine, true
		}
		return "", false
	}},
	{"explicit_smalltalk", func(msg string, _ Context) (types.TurnKind, bool) {
		if isExplicitSmalltalkPrompt(msg) {
			return types.TurnSmalltalk, true
		}
		return "", false
	}},
}

// Classify labels one turn. The default is a task turn.
func Classify(message string, ctx Context) Result {
	for _, r := range rules {
		if kind, ok := r.apply(message, ctx); ok {
			return Result{Kind: kind, Rule: r.name}
		}
	}
	return Result{Kind: types.TurnTask, Rule: "default_task"}
}

// --- followup detection ---

var (
	refineSignalTokens = []string{
		"다시", "간단히", "짧게", "자세히", "요약", "근거", "정리", "풀어서",
	}
	shortQuestionPattern = regexp.MustCompile(`(무슨\s*뜻|뜻이\s*뭐|그게\s*뭐|왜(요|죠|지)?\s*[?？]?$)`)
)

// isFollowupRefinePrompt requires recent-context evidence and a short
// refinement signal. Without evidence the same wording is a fresh task.
func isFollowupRefinePrompt(message string, hasRecentContext bool) bool {
	if !hasRecentContext {
		return false
	}
	msg := strings.TrimSpace(message)
	runes := []rune(msg)
	if len(runes) == 0 || len(runes) > 30 {
		return false
	}
	for _, tok := range refineSignalTokens {
		if strings.Contains(msg, tok) {
			return true
		}
	}
	return len(runes) <= 12 && shortQuestionPattern.MatchString(msg)
}

// --- smalltalk detection ---

var (
	// smalltalkExact matches whole messages after normalization.
	smalltalkExact = map[string]bool{
		"안녕": true, "안녕하세요": true, "하이": true, "ㅎㅇ": true,
		"반가워": true, "반갑습니다": true, "고마워": true, "고맙습니다": true,
		"감사": true, "감사합니다": true, "수고하세요": true, "잘가": true,
		"hello": true, "hi": true, "hey": true, "thanks": true, "thankyou": true,
		"goodmorning": true, "ok": true, "okay": true,
	}

	// shortGreetingTokens covers very short greetings and thanks.
	shortGreetingTokens = map[string]bool{
		"안녕": true, "하이": true, "ㅎㅇ": true, "굿모닝": true, "감사": true,
		"고마워": true, "ㄱㅅ": true, "ㅂㅂ": true, "잘가": true, "hi": true,
		"hey": true, "yo": true, "thx": true, "bye": true,
	}

	// smalltalkSignal matches greeting and small-talk topics.
	smalltalkSignal = regexp.MustCompile(
		`(안녕|반가|고마|감사|수고|잘\s*지내|뭐\s*해|심심|날씨|주말|점심|저녁|기분|피곤|졸려|hello|hi\b|thank|morning|weekend)`)

	// taskSignal lists domain nouns and action verbs that must never be
	// demoted to smalltalk, however short the message is.
	taskSignal = regexp.MustCompile(
		`(메일|사서함|편지|일정|캘린더|회의실|회의|인사|할\s*일|할일|투두|공약|재정|예산|검색|등록|예약|분석|요약|번역|추가|작성|찾아|알려|mail|calendar|room|schedule|todo|search|register|reserve|analy|summar|translat)`)
)

// isExplicitSmalltalkPrompt applies the smalltalk rules in order: exact
// phrase match, then compact message with a smalltalk signal and no task
// signal, then a very short greeting token.
func isExplicitSmalltalkPrompt(message string) bool {
	msg := strings.TrimSpace(message)
	if smalltalkExact[normalizePhrase(msg)] {
		return true
	}
	runes := []rune(msg)
	if len(runes) <= 24 && !taskSignal.MatchString(msg) && smalltalkSignal.MatchString(msg) {
		return true
	}
	if len(runes) <= 8 && shortGreetingTokens[normalizePhrase(msg)] {
		return true
	}
	return false
}

var punctPattern = regexp.MustCompile(`[\s.,!?~^;:'"！？。、]+`)

// normalizePhrase lowercases and strips punctuation and whitespace.
func normalizePhrase(s string) string {
	return punctPattern.ReplaceAllString(strings.ToLower(s), "")
}
