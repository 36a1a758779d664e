package intent

import (
	"fmt"

	"github.com/moldu/assistant/internal/combo"
	"github.com/moldu/assistant/internal/types"
)

// localConfidence is the floor for synthesized payloads: a structured
// command is deterministic, so it never needs clarification.
const localConfidence = 0.98

// workflowDomains are the domains whose structured commands may execute
// without a backend resolve.
var workflowDomains = map[types.Domain]bool{
	types.DomainSchedule: true,
	types.DomainRoom:     true,
	types.DomainHR:       true,
}

// synthesizeWorkflow builds the high-confidence payload for an auto-executed
// structured workflow command.
func synthesizeWorkflow(res *combo.Resolution) *types.IntentPayload {
	verb := "run"
	if len(res.Verbs) > 0 {
		verb = string(res.Verbs[0])
	}
	entities := map[string]string{}
	if res.ExtraContext != "" {
		entities["raw_condition"] = res.ExtraContext
	}
	return &types.IntentPayload{
		Intent:             fmt.Sprintf("workflow.%s.%s", res.Domain, verb),
		Confidence:         localConfidence,
		NeedsClarification: false,
		Entities:           entities,
		Source:             types.IntentSourceLocal,
	}
}

// Mail-search entry defaults.
const (
	defaultSearchLimit = 20
	defaultSearchSort  = "recent"
)

// synthesizeEntry maps a structured combo to a lower-ceremony entry intent
// when it matches a known entry shape. Currently the only entry shape is the
// mailbox-wide search. Returns nil when the combo has no entry shape.
func synthesizeEntry(res *combo.Resolution) *types.IntentPayload {
	if res.Scope != types.ScopeMailbox {
		return nil
	}
	hasSearch := false
	for _, v := range res.Verbs {
		if v == types.VerbSearch {
			hasSearch = true
		}
	}
	if !hasSearch {
		return nil
	}
	return &types.IntentPayload{
		Intent:             "mail.search.entry",
		Confidence:         localConfidence,
		NeedsClarification: false,
		SearchSlots: &types.SearchSlots{
			Query:       sanitizeQuery(res.ExtraContext),
			Limit:       defaultSearchLimit,
			SortMode:    defaultSearchSort,
			Deliverable: "list",
		},
		Source: types.IntentSourceLocal,
	}
}
