// Package dispatch assembles the outbound chat payload and manages the turn
// lifecycle: the pre-flight intent decision, the one-shot mail-not-found
// retry, progress event routing, and sticky context consumption.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moldu/assistant/internal/backend"
	"github.com/moldu/assistant/internal/intent"
	"github.com/moldu/assistant/internal/mailhost"
	"github.com/moldu/assistant/internal/session"
	"github.com/moldu/assistant/internal/types"
)

// User-visible failure messages. These are the only two error shapes the
// chat surface shows; everything else degrades silently.
const (
	MsgTimeout      = "응답 시간이 초과되었어요. 잠시 후 다시 시도해 주세요."
	MsgConnectivity = "서버에 연결하지 못했어요. 네트워크 상태를 확인해 주세요."
)

// mailNotFoundPatterns is the fixed set of stock "email not found" answer
// fragments that trigger the one-shot retry.
var mailNotFoundPatterns = []string{
	"메일을 찾을 수 없",
	"해당 메일이 없",
	"이메일을 찾지 못",
	"선택된 메일이 없",
}

// ChatCaller is the backend capability the pipeline consumes.
type ChatCaller interface {
	Chat(ctx context.Context, req *backend.ChatRequest, timeout time.Duration, onProgress func(backend.ProgressEvent)) (*backend.ChatResponse, error)
}

// SendOptions tune one send.
type SendOptions struct {
	Surface                string
	EmailMessageID         string
	CurrentMailOnly        bool
	ReplyTone              string
	ReplyAdditional        string
	SkipReplyToneIntercept bool
	OnProgress             func(backend.ProgressEvent)
}

// ResultKind tags a turn outcome.
type ResultKind string

// Result kinds.
const (
	ResultAnswer      ResultKind = "answer"
	ResultUIIntercept ResultKind = "ui_intercept"
	ResultError       ResultKind = "error"
)

// Result is the outcome of one turn.
type Result struct {
	Kind     ResultKind
	TurnKind types.TurnKind

	// UI interception.
	UIAction string
	Intent   *types.IntentPayload

	// Completed chat round-trip.
	Response       *backend.ChatResponse
	RuntimeOptions *types.RuntimeOptions
	Retried        bool

	// Error surface: UserMessage is what the chat shows, Err the diagnostic.
	UserMessage string
	Err         error
}

// Pipeline drives one turn end to end.
type Pipeline struct {
	session *session.Session
	client  ChatCaller
	orch    *intent.Orchestrator
	host    mailhost.Host
	logger  *zap.Logger
}

// New creates a pipeline. host may be nil (no mail item access).
func New(sess *session.Session, client ChatCaller, orch *intent.Orchestrator, host mailhost.Host, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{session: sess, client: client, orch: orch, host: host, logger: logger}
}

// PreviewRuntimeOptions assembles the runtime options for a draft message
// without dispatching, consuming, or seeding anything. The UI uses it to
// show what a send would carry.
func (p *Pipeline) PreviewRuntimeOptions(ctx context.Context, message string, opts SendOptions) types.RuntimeOptions {
	return p.plan(ctx, message, opts).runtime
}

// Send runs one full turn: plan, decide, dispatch (with the one-shot
// not-found retry), then sticky bookkeeping and transcript updates.
func (p *Pipeline) Send(ctx context.Context, rawMessage string, opts SendOptions) *Result {
	if opts.Surface == "" {
		opts.Surface = "taskpane"
	}
	if stale := p.session.BeginProcessing(); stale {
		p.logger.Warn("previous turn guard was stuck; continuing last-writer-wins")
	}
	defer p.session.EndProcessing()

	t := p.plan(ctx, rawMessage, opts)

	decision := p.orch.Decide(ctx, intent.Input{
		Message:                t.raw,
		TurnKind:               t.kind,
		Resolution:             t.resolution,
		Probe:                  t.probe,
		SkipReplyToneIntercept: opts.SkipReplyToneIntercept,
		PendingPromiseProject:  p.session.PendingPromiseProject(),
		ResolveContext:         t.resolveContext(opts.Surface),
	})

	if decision.Kind == intent.DecisionInterceptUI {
		// The UI opens instead; nothing is sent and nothing is consumed.
		return &Result{
			Kind:     ResultUIIntercept,
			TurnKind: t.kind,
			UIAction: decision.UIAction,
			Intent:   decision.Payload,
		}
	}

	// The mailbox-wide clear is a send-time effect: a previewed draft must
	// never drop an active context.
	if t.mailboxWide {
		p.session.ClearSticky(session.StickyClearMailboxSearch)
	}

	if decision.Payload != nil && decision.Payload.SearchSlots != nil {
		t.runtime.SearchResultLimit = decision.Payload.SearchSlots.Limit
		t.runtime.SearchSortMode = decision.Payload.SearchSlots.SortMode
	}

	req := &backend.ChatRequest{
		Message:         t.outbound,
		ThreadID:        p.session.ThreadID,
		RuntimeOptions:  t.runtime,
		PrefetchedRoute: decision.Payload,
		EmailID:         t.emailID,
	}

	resp, retried, err := p.dispatch(ctx, req, t, opts.OnProgress)

	// The request left the building: a consumed sticky id counts against the
	// budget even if the response was an error.
	if t.stickyApplied {
		p.session.ConsumeSticky()
	}

	if err != nil {
		return &Result{
			Kind:        ResultError,
			TurnKind:    t.kind,
			UserMessage: userMessageFor(err),
			Err:         err,
		}
	}

	p.seedSticky(t)
	p.session.AppendHistory("user", t.raw)
	p.session.AppendHistory("assistant", resp.Answer)

	return &Result{
		Kind:           ResultAnswer,
		TurnKind:       t.kind,
		Intent:         decision.Payload,
		Response:       resp,
		RuntimeOptions: &t.runtime,
		Retried:        retried,
	}
}

// dispatch sends the chat request, retrying exactly once when an email-scope
// turn comes back with a stock not-found answer.
func (p *Pipeline) dispatch(ctx context.Context, req *backend.ChatRequest, t *turnPlan, onProgress func(backend.ProgressEvent)) (*backend.ChatResponse, bool, error) {
	timeout := backend.ChatTimeoutFor(t.kind)

	resp, err := p.client.Chat(ctx, req, timeout, onProgress)
	if err != nil {
		return nil, false, err
	}

	if t.runtime.Scope != types.ScopeEmail || t.mailboxWide || !looksMailNotFound(resp.Answer) {
		return resp, false, nil
	}

	freshID := p.currentMailID(ctx)
	if freshID == "" || freshID == t.emailID {
		return resp, false, nil
	}

	p.logger.Info("retrying with fresh mail item id",
		zap.String("stale_id", t.emailID), zap.String("fresh_id", freshID))

	retryReq := *req
	retryReq.EmailID = freshID
	retryReq.RuntimeOptions.EmailMessageID = freshID
	retryReq.RuntimeOptions.CurrentMailOnly = true
	retryReq.RuntimeOptions.StickyApplied = false

	t.emailID = freshID
	t.explicitMail = true
	t.runtime = retryReq.RuntimeOptions

	retryResp, retryErr := p.client.Chat(ctx, &retryReq, timeout, onProgress)
	if retryErr != nil {
		// The retry is best-effort; the original answer stands.
		p.logger.Debug("not-found retry failed", zap.Error(retryErr))
		return resp, true, nil
	}
	return retryResp, true, nil
}

// seedSticky starts a sticky context when the dispatched payload carried a
// concrete current-mail binding. Seeding is driven by the runtime payload
// flags only, never by chip parsing, and an applied sticky id never re-seeds
// itself.
func (p *Pipeline) seedSticky(t *turnPlan) {
	if t.stickyApplied {
		return
	}
	if t.runtime.Scope != types.ScopeEmail || !t.runtime.CurrentMailOnly || t.emailID == "" {
		return
	}
	p.session.SeedSticky(p.session.ThreadID, t.emailID, "runtime_payload")
}

// looksMailNotFound matches the stock not-found answers.
func looksMailNotFound(answer string) bool {
	for _, pat := range mailNotFoundPatterns {
		if strings.Contains(answer, pat) {
			return true
		}
	}
	return false
}

// userMessageFor maps an error shape to one of the two user-visible
// messages at the pipeline boundary.
func userMessageFor(err error) string {
	if errors.Is(err, backend.ErrTimeout) {
		return MsgTimeout
	}
	return MsgConnectivity
}
