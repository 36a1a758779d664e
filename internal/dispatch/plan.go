package dispatch

import (
	"context"
	"regexp"
	"time"

	"github.com/moldu/assistant/internal/backend"
	"github.com/moldu/assistant/internal/classify"
	"github.com/moldu/assistant/internal/combo"
	"github.com/moldu/assistant/internal/grammar"
	"github.com/moldu/assistant/internal/types"
)

// mailContextWait bounds the best-effort wait for the mail host to report
// the selected item while assembling a payload.
const mailContextWait = 1500 * time.Millisecond

// mailboxWidePattern detects an explicit whole-mailbox search phrase, which
// clears any sticky mail context.
var mailboxWidePattern = regexp.MustCompile(`(전체\s*사서함|사서함\s*전체|모든\s*메일|메일\s*전체)`)

// currentMailPhrase detects an explicit "this mail" statement outside the
// chip grammar. An explicit statement always wins over the sticky snapshot.
var currentMailPhrase = regexp.MustCompile(`(이\s*메일|지금\s*(보고\s*있는\s*)?메일|현재\s*메일)`)

// turnPlan is everything assembled for one outbound turn before dispatch.
type turnPlan struct {
	outbound   string // text sent to the backend
	raw        string // user text, probe prefix stripped
	probe      bool
	kind       types.TurnKind
	rule       string
	resolution *combo.Resolution
	runtime    types.RuntimeOptions
	emailID    string

	stickyApplied bool
	explicitMail  bool
	mailboxWide   bool
}

// plan classifies the turn and assembles the runtime options. It reads the
// session (and may lazily purge an expired sticky context) but neither
// consumes nor seeds stickiness; that happens at dispatch time.
func (p *Pipeline) plan(ctx context.Context, rawMessage string, opts SendOptions) *turnPlan {
	message, probe := grammar.StripProbePrefix(rawMessage)
	resolution := combo.Resolve(message)

	outbound := message
	if resolution != nil {
		outbound = resolution.LegacyMessage
	}

	sticky := p.session.ResolveStickySnapshot()
	cls := classify.Classify(message, classify.Context{
		HasStickyContext: sticky != nil,
		CurrentMailOnly:  opts.CurrentMailOnly,
		EmailMessageID:   opts.EmailMessageID,
	})

	t := &turnPlan{
		outbound:   outbound,
		raw:        message,
		probe:      probe,
		kind:       cls.Kind,
		rule:       cls.Rule,
		resolution: resolution,
	}

	t.mailboxWide = mailboxWidePattern.MatchString(message) ||
		(resolution != nil && resolution.Scope == types.ScopeMailbox)
	if t.mailboxWide {
		// Planning only ignores the sticky context; the session-side clear
		// happens at send time.
		sticky = nil
	}

	scope := p.session.Scope
	if resolution != nil && resolution.Scope != types.ScopeChat {
		scope = resolution.Scope
	} else if t.mailboxWide {
		scope = types.ScopeMailbox
	}

	// An explicit current-mail statement (chip, phrase, or caller flag) wins
	// over the sticky snapshot and does not consume it.
	t.explicitMail = opts.CurrentMailOnly ||
		currentMailPhrase.MatchString(message) ||
		(resolution != nil && chipIn(resolution.Chips, types.ChipCurrentMail))

	switch {
	case t.explicitMail:
		scope = types.ScopeEmail
		t.emailID = opts.EmailMessageID
		if t.emailID == "" {
			t.emailID = p.currentMailID(ctx)
		}
	case sticky != nil && scope != types.ScopeMailbox:
		// An applied sticky id binds the turn to that mail item, so the
		// outbound scope is email and the not-found retry stays armed.
		scope = types.ScopeEmail
		t.emailID = sticky.EmailMessageID
		t.stickyApplied = true
	}

	domain, source := p.shortcutDomain(resolution, message)

	t.runtime = types.RuntimeOptions{
		Scope:           scope,
		Mode:            p.session.Mode,
		TurnKind:        t.kind,
		CurrentMailOnly: t.explicitMail,
		EmailMessageID:  t.emailID,
		ShortcutDomain:  domain,
		ShortcutSource:  source,
		StickyApplied:   t.stickyApplied,
		StickyContext:   sticky,
		ReplyTone:       opts.ReplyTone,
		ReplyAdditional: opts.ReplyAdditional,
		ExecutionTier:   tierFor(t.kind, probe),

		PendingPromiseProjectNumber: p.session.PendingPromiseProject(),
	}
	if resolution != nil {
		t.runtime.StructuredInput = resolution.StructuredInput()
	}
	if t.stickyApplied {
		t.runtime.StickyApplied = true
	}
	return t
}

// shortcutDomain derives the shortcut domain: a parsed structured input wins
// over a bare @domain prefix on the message.
func (p *Pipeline) shortcutDomain(resolution *combo.Resolution, message string) (types.Domain, string) {
	if resolution != nil && resolution.Domain != types.DomainNone {
		return resolution.Domain, types.ShortcutSourceStructured
	}
	chips := grammar.ExtractChipIDs(message, grammar.MaxChips)
	if d := combo.DeriveDomain(chips); d != types.DomainNone {
		return d, types.ShortcutSourcePrefix
	}
	return types.DomainNone, ""
}

// currentMailID asks the mail host for the selected item id, bounded so a
// slow host never stalls payload assembly.
func (p *Pipeline) currentMailID(ctx context.Context) string {
	if p.host == nil {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, mailContextWait)
	defer cancel()
	msg, err := p.host.CurrentMessage(ctx)
	if err != nil || msg == nil {
		return ""
	}
	return msg.ID
}

// resolveContext builds the context block for a backend resolve call from an
// assembled plan.
func (t *turnPlan) resolveContext(surface string) backend.ResolveContext {
	rc := backend.ResolveContext{
		Surface:                     surface,
		Mode:                        t.runtime.Mode,
		Scope:                       t.runtime.Scope,
		EmailMessageID:              t.runtime.EmailMessageID,
		CurrentMailOnly:             t.runtime.CurrentMailOnly,
		ShortcutDomain:              t.runtime.ShortcutDomain,
		ShortcutSource:              t.runtime.ShortcutSource,
		ReplyTone:                   t.runtime.ReplyTone,
		ReplyAdditionalContext:      t.runtime.ReplyAdditional,
		StructuredInput:             t.runtime.StructuredInput,
		PendingPromiseProjectNumber: t.runtime.PendingPromiseProjectNumber,
	}
	return rc
}

func tierFor(kind types.TurnKind, probe bool) string {
	switch {
	case kind == types.TurnSmalltalk:
		return types.TierSmalltalk
	case probe:
		return types.TierDeep
	default:
		return types.TierStandard
	}
}

func chipIn(list []types.ChipID, id types.ChipID) bool {
	for _, c := range list {
		if c == id {
			return true
		}
	}
	return false
}
