package grammar

import (
	"regexp"
	"strings"

	"github.com/moldu/assistant/internal/types"
)

var (
	chipAliases      map[string]types.ChipID
	verbAliases      map[string]types.VerbID
	chipCanonical    map[types.ChipID]string
	verbCanonical    map[types.VerbID]string
	chipTokenPattern = regexp.MustCompile(`@([^\s@/]+)`)
	verbTokenPattern = regexp.MustCompile(`/([^\s@/]+)`)
)

func init() {
	chipAliases = make(map[string]types.ChipID)
	chipCanonical = make(map[types.ChipID]string)
	for _, d := range chipDefs {
		chipCanonical[d.id] = d.canonical
		chipAliases[Normalize(d.canonical)] = d.id
		for _, a := range d.aliases {
			chipAliases[a] = d.id
		}
	}
	verbAliases = make(map[string]types.VerbID)
	verbCanonical = make(map[types.VerbID]string)
	for _, d := range verbDefs {
		verbCanonical[d.id] = d.canonical
		verbAliases[Normalize(d.canonical)] = d.id
		for _, a := range d.aliases {
			verbAliases[a] = d.id
		}
	}
}

// Normalize lowercases a token, removes all whitespace, and strips the
// leading @ or / sigil.
func Normalize(token string) string {
	s := strings.ToLower(strings.TrimSpace(token))
	s = strings.TrimPrefix(s, "@")
	s = strings.TrimPrefix(s, "/")
	return strings.Join(strings.Fields(s), "")
}

// ResolveChipID resolves a raw token (with or without @) to a chip id.
func ResolveChipID(token string) (types.ChipID, bool) {
	id, ok := chipAliases[Normalize(token)]
	return id, ok
}

// ResolveVerbID resolves a raw token (with or without /) to a verb id.
func ResolveVerbID(token string) (types.VerbID, bool) {
	id, ok := verbAliases[Normalize(token)]
	return id, ok
}

// ChipToken returns the canonical display token for a chip id.
func ChipToken(id types.ChipID) string {
	return chipCanonical[id]
}

// VerbToken returns the canonical display token for a verb id.
func VerbToken(id types.VerbID) string {
	return verbCanonical[id]
}

// AllChipIDs returns every registered chip id in definition order.
func AllChipIDs() []types.ChipID {
	ids := make([]types.ChipID, 0, len(chipDefs))
	for _, d := range chipDefs {
		ids = append(ids, d.id)
	}
	return ids
}

// AllVerbIDs returns every registered verb id in definition order.
func AllVerbIDs() []types.VerbID {
	ids := make([]types.VerbID, 0, len(verbDefs))
	for _, d := range verbDefs {
		ids = append(ids, d.id)
	}
	return ids
}

// ExtractChipIDs scans all @token occurrences left to right, resolves each,
// de-duplicates, and stops once max ids were collected. Unresolvable tokens
// are skipped silently.
func ExtractChipIDs(text string, max int) []types.ChipID {
	if max <= 0 {
		max = MaxChips
	}
	var out []types.ChipID
	for _, m := range chipTokenPattern.FindAllStringSubmatch(text, -1) {
		id, ok := ResolveChipID(m[1])
		if !ok {
			continue
		}
		if containsChip(out, id) {
			continue
		}
		out = append(out, id)
		if len(out) >= max {
			break
		}
	}
	return out
}

// ExtractVerbIDs scans all /token occurrences left to right, resolves each,
// de-duplicates, and stops once max ids were collected.
func ExtractVerbIDs(text string, max int) []types.VerbID {
	if max <= 0 {
		max = MaxVerbs
	}
	var out []types.VerbID
	for _, m := range verbTokenPattern.FindAllStringSubmatch(text, -1) {
		id, ok := ResolveVerbID(m[1])
		if !ok {
			continue
		}
		if containsVerb(out, id) {
			continue
		}
		out = append(out, id)
		if len(out) >= max {
			break
		}
	}
	return out
}

// HasForbiddenPair reports whether any registered forbidden pair is fully
// contained in the chip set, regardless of order or extra chips.
func HasForbiddenPair(chips []types.ChipID) bool {
	for _, pair := range forbiddenChipPairs {
		if containsChip(chips, pair[0]) && containsChip(chips, pair[1]) {
			return true
		}
	}
	return false
}

// StripProbePrefix detects the natural-language probe prefix and returns the
// remaining message with the prefix removed.
func StripProbePrefix(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, ProbePrefix) {
		return text, false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, ProbePrefix)), true
}

func containsChip(list []types.ChipID, id types.ChipID) bool {
	for _, c := range list {
		if c == id {
			return true
		}
	}
	return false
}

func containsVerb(list []types.VerbID, id types.VerbID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
