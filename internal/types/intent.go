package types

// UI actions an intent payload may request instead of a chat round-trip.
const (
	UIActionReplyTonePicker = "open_reply_tone_picker"
	UIActionPromiseMenu     = "open_promise_menu"
	UIActionPromiseProjects = "open_promise_projects"
	UIActionMailSearch      = "open_mail_search"
)

// SearchSlots carries derived mail-search parameters for a search entry intent.
type SearchSlots struct {
	Query       string `json:"query"`
	Limit       int    `json:"limit,omitempty"`
	SortMode    string `json:"sort_mode,omitempty"`
	Deliverable string `json:"deliverable,omitempty"`
}

// CardContract names the card the UI should render for a resolved intent.
type CardContract struct {
	Kind    string `json:"kind"`
	Variant string `json:"variant,omitempty"`
}

// IntentPayload is a resolved intent, either returned by the backend or
// synthesized locally for a deterministic structured command. Locally
// synthesized payloads always carry Confidence >= 0.95 and no clarification.
type IntentPayload struct {
	Intent             string            `json:"intent"`
	Confidence         float64           `json:"confidence"`
	NeedsClarification bool              `json:"needs_clarification"`
	ClarificationTier  string            `json:"clarification_tier,omitempty"`
	UIAction           string            `json:"ui_action,omitempty"`
	SearchSlots        *SearchSlots      `json:"search_slots,omitempty"`
	CardContract       *CardContract     `json:"card_contract,omitempty"`
	Entities           map[string]string `json:"entities,omitempty"`
	Source             string            `json:"source,omitempty"`
}

// Intent payload sources.
const (
	IntentSourceLocal   = "local"
	IntentSourceBackend = "backend"
)
