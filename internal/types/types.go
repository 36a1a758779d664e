// Package types defines the core data structures of the routing engine.
package types

// ChipID identifies a structured @-prefixed scope/domain token.
type ChipID string

// Chip identifiers.
const (
	ChipCurrentMail ChipID = "current_mail"
	ChipAllMailbox  ChipID = "all_mailbox"
	ChipRoom        ChipID = "room"
	ChipSchedule    ChipID = "schedule"
	ChipTodo        ChipID = "todo"
	ChipHR          ChipID = "hr"
	ChipPromise     ChipID = "promise"
	ChipFinance     ChipID = "finance"
)

// VerbID identifies a structured /-prefixed action token.
type VerbID string

// Verb identifiers.
const (
	VerbSummary     VerbID = "summary"
	VerbAnalysis    VerbID = "analysis"
	VerbReply       VerbID = "reply"
	VerbTranslate   VerbID = "translate"
	VerbTodoExtract VerbID = "todo_extract"
	VerbAdd         VerbID = "add"
	VerbRegister    VerbID = "register"
	VerbReserve     VerbID = "reserve"
	VerbWrite       VerbID = "write"
	VerbSearch      VerbID = "search"
)

// TurnKind labels one outbound user turn. Exactly one label per turn.
type TurnKind string

// Turn kinds.
const (
	TurnTask           TurnKind = "task"
	TurnFollowupRefine TurnKind = "followup_refine"
	TurnSmalltalk      TurnKind = "explicit_smalltalk"
)

// ValidTurnKinds is the set of allowed turn kind values.
var ValidTurnKinds = []TurnKind{TurnTask, TurnFollowupRefine, TurnSmalltalk}

// IsValidTurnKind checks if a turn kind value is valid.
func IsValidTurnKind(k TurnKind) bool {
	for _, v := range ValidTurnKinds {
		if v == k {
			return true
		}
	}
	return false
}

// Scope describes which slice of the mailbox (or which system) a turn targets.
type Scope string

// Scopes.
const (
	// ScopeChat is the default conversational scope with no mail binding.
	ScopeChat Scope = ""
	// ScopeEmail targets the single currently-bound mail item.
	ScopeEmail Scope = "email"
	// ScopeMailbox targets a whole-mailbox search.
	ScopeMailbox Scope = "mailbox"
	// ScopeSystems targets a groupware system (room, schedule, ...).
	ScopeSystems Scope = "systems"
)

// Domain identifies a groupware system behind a system chip.
type Domain string

// Domains.
const (
	DomainNone     Domain = ""
	DomainRoom     Domain = "room"
	DomainSchedule Domain = "schedule"
	DomainTodo     Domain = "todo"
	DomainHR       Domain = "hr"
	DomainPromise  Domain = "promise"
	DomainFinance  Domain = "finance"
)

// DomainPrecedence orders system domains for domain derivation when a turn
// could map to more than one. Earlier entries win.
var DomainPrecedence = []Domain{
	DomainRoom, DomainSchedule, DomainTodo, DomainHR, DomainPromise, DomainFinance,
}

// ChipDomain maps system chips to their domain. Mail-scope chips are absent.
var ChipDomain = map[ChipID]Domain{
	ChipRoom:     DomainRoom,
	ChipSchedule: DomainSchedule,
	ChipTodo:     DomainTodo,
	ChipHR:       DomainHR,
	ChipPromise:  DomainPromise,
	ChipFinance:  DomainFinance,
}
