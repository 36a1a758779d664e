// Package intent decides how a turn's intent gets resolved: a local fast
// path, a backend resolve call, a UI interception, or nothing at all. The
// decision is pure; side effects (opening cards, network dispatch) belong
// to the caller.
package intent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/moldu/assistant/internal/backend"
	"github.com/moldu/assistant/internal/combo"
	"github.com/moldu/assistant/internal/types"
)

// Resolver is the backend capability the orchestrator consumes.
type Resolver interface {
	ResolveIntent(ctx context.Context, req *backend.ResolveRequest, timeout time.Duration) (*types.IntentPayload, error)
}

// DecisionKind tags the orchestrator outcome.
type DecisionKind string

// Decision kinds.
const (
	// DecisionSkip means no intent resolution happens for this turn.
	DecisionSkip DecisionKind = "skip"
	// DecisionInterceptUI means the UI opens instead of dispatching a request.
	DecisionInterceptUI DecisionKind = "intercept_ui"
	// DecisionDispatch means the turn proceeds to the chat dispatch pipeline.
	DecisionDispatch DecisionKind = "dispatch"
)

// Decision is the tagged outcome of pre-flight intent resolution.
type Decision struct {
	Kind     DecisionKind
	UIAction string
	Payload  *types.IntentPayload
}

// Input bundles everything one decision needs.
type Input struct {
	// Message is the user text, probe prefix already stripped.
	Message  string
	TurnKind types.TurnKind
	// Resolution is the parsed structured combo, nil for plain text.
	Resolution *combo.Resolution
	// Probe forces a backend resolve with router diagnostics.
	Probe bool
	// SkipReplyToneIntercept is set when the quick action that would
	// re-trigger the tone picker issued this turn itself.
	SkipReplyToneIntercept bool
	// PendingPromiseProject is the project the user is drilled into, if any.
	PendingPromiseProject string
	// ResolveContext is the assembled context block for backend resolves.
	ResolveContext backend.ResolveContext
}

// Orchestrator picks the resolution path for each task turn.
type Orchestrator struct {
	resolver Resolver
	logger   *zap.Logger
}

// New creates an orchestrator. resolver may be nil, disabling backend
// resolves (local fast paths still work).
func New(resolver Resolver, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{resolver: resolver, logger: logger}
}

// Decide runs the fixed precedence: smalltalk skip, local workflow fast
// path, local entry synthesis, probe resolve, opportunistic resolve, then
// UI interception on whatever payload came out.
func (o *Orchestrator) Decide(ctx context.Context, in Input) Decision {
	if in.TurnKind == types.TurnSmalltalk {
		return Decision{Kind: DecisionSkip}
	}

	payload := o.resolveLocal(in)
	if payload == nil {
		payload = o.resolveRemote(ctx, in)
	}

	return o.applyInterception(in, payload)
}

// resolveLocal tries the structured fast paths.
func (o *Orchestrator) resolveLocal(in Input) *types.IntentPayload {
	res := in.Resolution
	if res == nil {
		return nil
	}
	if workflowDomains[res.Domain] && canAutoExecute(res.Domain, res.LegacyMessage) {
		p := synthesizeWorkflow(res)
		o.logger.Debug("local workflow fast path",
			zap.String("intent", p.Intent), zap.String("combo", res.ComboKey))
		return p
	}
	if p := synthesizeEntry(res); p != nil {
		o.logger.Debug("local entry synthesis",
			zap.String("intent", p.Intent), zap.String("combo", res.ComboKey))
		return p
	}
	return nil
}

// resolveRemote calls the backend router. The probe lane is mandatory and
// slow; the default lane is opportunistic and best-effort, so any failure or
// timeout yields no payload, never a user-visible error.
func (o *Orchestrator) resolveRemote(ctx context.Context, in Input) *types.IntentPayload {
	if o.resolver == nil {
		return nil
	}
	timeout := backend.ResolveTimeout
	req := &backend.ResolveRequest{Message: in.Message, Context: in.ResolveContext}
	if in.Probe {
		timeout = backend.ProbeResolveTimeout
		req.Context.IntentProbe = true
		req.Context.ForceIntentLLM = true
	}
	payload, err := o.resolver.ResolveIntent(ctx, req, timeout)
	if err != nil {
		o.logger.Debug("intent resolve failed; proceeding without payload",
			zap.Bool("probe", in.Probe), zap.Error(err))
		return nil
	}
	return payload
}

// applyInterception turns a UI-carrying payload into an interception, with
// the promise-followup suppression and tone-picker skip applied first.
func (o *Orchestrator) applyInterception(in Input, payload *types.IntentPayload) Decision {
	if payload == nil || payload.UIAction == "" {
		return Decision{Kind: DecisionDispatch, Payload: payload}
	}

	action := payload.UIAction

	// Mid-drill promise analysis goes straight to the tool path; a generic
	// menu would throw the user back out of the project.
	if in.PendingPromiseProject != "" && isMenuAction(action) && isPromiseFollowup(in.Message) {
		o.logger.Debug("suppressing menu ui action for promise followup",
			zap.String("action", action))
		return Decision{Kind: DecisionDispatch, Payload: payload}
	}

	if action == types.UIActionPromiseMenu && isAnalysisQuery(in.Message) {
		action = types.UIActionPromiseProjects
	}

	if action == types.UIActionReplyTonePicker && in.SkipReplyToneIntercept {
		return Decision{Kind: DecisionDispatch, Payload: payload}
	}

	return Decision{Kind: DecisionInterceptUI, UIAction: action, Payload: payload}
}
