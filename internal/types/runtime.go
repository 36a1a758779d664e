package types

// StructuredInput echoes a parsed @chip.../verb... prefix on the outbound
// payload. Chips and verbs are capped at two each by the grammar.
type StructuredInput struct {
	Chips        []ChipID `json:"chips"`
	Verbs        []VerbID `json:"verbs"`
	ExtraContext string   `json:"extra_context,omitempty"`
	ComboKey     string   `json:"combo_key,omitempty"`
}

// StickySnapshot is the read view of an active sticky mail context.
type StickySnapshot struct {
	ThreadID       string `json:"thread_id"`
	EmailMessageID string `json:"email_message_id"`
	TurnsRemaining int    `json:"turns_remaining"`
	ExpiresAt      int64  `json:"expires_at"`
	UpdatedAt      int64  `json:"updated_at"`
	Source         string `json:"source,omitempty"`
}

// RuntimeOptions is the outbound contract sent with every chat request.
type RuntimeOptions struct {
	Scope           Scope    `json:"scope,omitempty"`
	Mode            string   `json:"mode,omitempty"`
	TurnKind        TurnKind `json:"turn_kind"`
	CurrentMailOnly bool     `json:"current_mail_only,omitempty"`
	EmailMessageID  string   `json:"email_message_id,omitempty"`

	StructuredInput *StructuredInput `json:"structured_input,omitempty"`
	ShortcutDomain  Domain           `json:"shortcut_domain,omitempty"`
	ShortcutSource  string           `json:"shortcut_source,omitempty"`

	StickyApplied bool            `json:"sticky_applied,omitempty"`
	StickyContext *StickySnapshot `json:"sticky_context,omitempty"`

	SearchResultLimit int    `json:"search_result_limit,omitempty"`
	SearchSortMode    string `json:"search_sort_mode,omitempty"`
	ReplyTone         string `json:"reply_tone,omitempty"`
	ReplyAdditional   string `json:"reply_additional_context,omitempty"`

	ExecutionTier string `json:"execution_tier,omitempty"`

	PendingPromiseProjectNumber string `json:"pending_promise_project_number,omitempty"`
}

// Shortcut sources, in precedence order: a parsed structured input wins over
// a bare @domain prefix.
const (
	ShortcutSourceStructured = "structured_input"
	ShortcutSourcePrefix     = "domain_prefix"
)

// Execution tiers hint the backend at how much work a turn warrants.
const (
	TierSmalltalk = "smalltalk"
	TierStandard  = "standard"
	TierDeep      = "deep"
)
