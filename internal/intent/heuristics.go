package intent

import (
	"regexp"
	"strings"

	"github.com/moldu/assistant/internal/types"
)

// uiOpenWords blocks auto-execution: the user is asking to see a form or a
// screen, not to run the workflow.
var uiOpenWords = regexp.MustCompile(`(보여\s*줘|어떻게|방법|폼|양식|화면|열어)`)

// Per-domain action-verb patterns. The wording differs slightly per domain;
// the asymmetry matches observed production phrasing and is kept as-is
// pending product review. Do not unify.
var autoExecuteActions = map[types.Domain]*regexp.Regexp{
	types.DomainSchedule: regexp.MustCompile(`(등록|잡아|추가)(해|해\s*줘|하자)?`),
	types.DomainRoom:     regexp.MustCompile(`(예약|잡아)(해|해\s*줘)?`),
	types.DomainHR:       regexp.MustCompile(`(조회|검색|알려)(해|해\s*줘|줘)?`),
}

// canAutoExecute reports whether a structured workflow command should run
// without a confirmation round-trip: the domain has an action pattern, the
// message matches it, and no UI-opening word appears.
func canAutoExecute(domain types.Domain, message string) bool {
	action, ok := autoExecuteActions[domain]
	if !ok {
		return false
	}
	if uiOpenWords.MatchString(message) {
		return false
	}
	return action.MatchString(message)
}

// Promise/budget follow-up detection, used while the user is drilled into a
// specific promise project.
var (
	timeSlicePattern = regexp.MustCompile(`(\d{4}\s*년|\d{1,2}\s*월|[1-4]\s*분기|상반기|하반기|작년|올해|내년)`)
	budgetKeyword    = regexp.MustCompile(`(예산|집행|공약|사업비|재원|투입)`)
	analysisKeyword  = regexp.MustCompile(`(분석|현황|추이|진행|얼마나|비교)`)
	mailSearchSignal = regexp.MustCompile(`(메일|사서함|받은\s*편지|보낸\s*편지)`)
)

// isPromiseFollowup reports whether a message reads as a promise/budget
// analysis follow-up rather than a new mail task.
func isPromiseFollowup(message string) bool {
	if mailSearchSignal.MatchString(message) {
		return false
	}
	return timeSlicePattern.MatchString(message) ||
		budgetKeyword.MatchString(message) ||
		analysisKeyword.MatchString(message)
}

// isAnalysisQuery reports whether the message itself asks for analysis, in
// which case a generic promise menu is redirected to the project list.
func isAnalysisQuery(message string) bool {
	return analysisKeyword.MatchString(message)
}

// isMenuAction reports whether a UI action is a generic menu the promise
// follow-up path may suppress.
func isMenuAction(action string) bool {
	return action == types.UIActionPromiseMenu || action == types.UIActionPromiseProjects
}

// sanitizeQuery normalizes free text into a search query: quotes stripped,
// whitespace collapsed.
func sanitizeQuery(extra string) string {
	s := strings.NewReplacer(`"`, "", "'", "", "“", "", "”", "").Replace(extra)
	return strings.Join(strings.Fields(s), " ")
}
