package combo

import (
	"strings"

	"github.com/moldu/assistant/internal/grammar"
	"github.com/moldu/assistant/internal/types"
)

// Resolution is a successfully resolved structured prefix.
type Resolution struct {
	Chips         []types.ChipID
	Verbs         []types.VerbID
	Scope         types.Scope
	Domain        types.Domain
	LegacyMessage string
	ExtraContext  string
	ComboKey      string
}

// StructuredInput returns the outbound echo of this resolution.
func (r *Resolution) StructuredInput() *types.StructuredInput {
	return &types.StructuredInput{
		Chips:        r.Chips,
		Verbs:        r.Verbs,
		ExtraContext: r.ExtraContext,
		ComboKey:     r.ComboKey,
	}
}

// Resolve parses a structured "@chip... /verb... extra" prefix and looks up
// the registered combo. It returns nil whenever the message should fall back
// to plain free text: no structured prefix, over-limit counts, a forbidden
// chip pair, or no combo registered for the exact selection.
func Resolve(message string) *Resolution {
	chipIDs, verbIDs, extra, ok := parsePrefix(message)
	if !ok {
		return nil
	}
	if len(chipIDs) == 0 || len(verbIDs) == 0 {
		return nil
	}
	if len(chipIDs) > grammar.MaxChips || len(verbIDs) > grammar.MaxVerbs {
		return nil
	}
	if grammar.HasForbiddenPair(chipIDs) {
		return nil
	}

	entry := Lookup(chipIDs, verbIDs)
	if entry == nil {
		return nil
	}

	legacy := entry.LegacyMessage
	if extra != "" {
		legacy += "\n추가 조건: " + extra
	}

	return &Resolution{
		Chips:         chipIDs,
		Verbs:         verbIDs,
		Scope:         DeriveScope(chipIDs),
		Domain:        DeriveDomain(chipIDs),
		LegacyMessage: legacy,
		ExtraContext:  extra,
		ComboKey:      Key(chipIDs, verbIDs),
	}
}

// parsePrefix consumes a strict token order: zero or more leading @chips,
// then zero or more /verbs, then free text. The first token that breaks the
// order (including an unresolvable @ or / token) starts the extra context.
func parsePrefix(message string) (chipIDs []types.ChipID, verbIDs []types.VerbID, extra string, ok bool) {
	fields := strings.Fields(message)
	i := 0
	for ; i < len(fields); i++ {
		if !strings.HasPrefix(fields[i], "@") {
			break
		}
		id, resolved := grammar.ResolveChipID(fields[i])
		if !resolved {
			break
		}
		if !chipIn(chipIDs, id) {
			chipIDs = append(chipIDs, id)
		}
	}
	for ; i < len(fields); i++ {
		if !strings.HasPrefix(fields[i], "/") {
			break
		}
		id, resolved := grammar.ResolveVerbID(fields[i])
		if !resolved {
			break
		}
		if !verbIn(verbIDs, id) {
			verbIDs = append(verbIDs, id)
		}
	}
	extra = strings.TrimSpace(strings.Join(fields[i:], " "))
	return chipIDs, verbIDs, extra, true
}

// DeriveScope maps a chip set to its scope. A concrete current-mail binding
// wins over system chips; mailbox-wide search wins over nothing.
func DeriveScope(chipIDs []types.ChipID) types.Scope {
	if chipIn(chipIDs, types.ChipCurrentMail) {
		return types.ScopeEmail
	}
	if chipIn(chipIDs, types.ChipAllMailbox) {
		return types.ScopeMailbox
	}
	for _, c := range chipIDs {
		if _, isSystem := types.ChipDomain[c]; isSystem {
			return types.ScopeSystems
		}
	}
	return types.ScopeChat
}

// DeriveDomain picks the domain for a chip set using the fixed precedence
// order. Mail-scope chips carry no domain.
func DeriveDomain(chipIDs []types.ChipID) types.Domain {
	present := make(map[types.Domain]bool)
	for _, c := range chipIDs {
		if d, isSystem := types.ChipDomain[c]; isSystem {
			present[d] = true
		}
	}
	for _, d := range types.DomainPrecedence {
		if present[d] {
			return d
		}
	}
	return types.DomainNone
}

func verbIn(list []types.VerbID, id types.VerbID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
