package backend

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/moldu/assistant/internal/types"
)

// Timeouts. The opportunistic pre-send resolve stays short so it never holds
// a turn hostage; the probe caller explicitly asked for router diagnostics
// and tolerates a long wait.
const (
	ResolveTimeout      = 2500 * time.Millisecond
	ProbeResolveTimeout = 12 * time.Second

	ChatTimeoutSmalltalk = 15 * time.Second
	ChatTimeoutFollowup  = 45 * time.Second
	ChatTimeoutTask      = 90 * time.Second
)

// ErrTimeout marks a call that hit its deadline. Callers branch on it only
// to pick the user-visible message; it is never surfaced raw.
var ErrTimeout = errors.New("backend request timed out")

// ChatTimeoutFor returns the chat deadline preset for a turn kind.
func ChatTimeoutFor(kind types.TurnKind) time.Duration {
	switch kind {
	case types.TurnSmalltalk:
		return ChatTimeoutSmalltalk
	case types.TurnFollowupRefine:
		return ChatTimeoutFollowup
	default:
		return ChatTimeoutTask
	}
}

// ResolveContext is the context block of an intent resolve request.
type ResolveContext struct {
	Surface                     string                 `json:"surface"`
	Mode                        string                 `json:"mode,omitempty"`
	Scope                       types.Scope            `json:"scope,omitempty"`
	EmailMessageID              string                 `json:"email_message_id,omitempty"`
	CurrentMailOnly             bool                   `json:"current_mail_only,omitempty"`
	ShortcutDomain              types.Domain           `json:"shortcut_domain,omitempty"`
	ShortcutSource              string                 `json:"shortcut_source,omitempty"`
	SearchResultLimit           int                    `json:"search_result_limit,omitempty"`
	SearchSortMode              string                 `json:"search_sort_mode,omitempty"`
	ReplyTone                   string                 `json:"reply_tone,omitempty"`
	ReplyAdditionalContext      string                 `json:"reply_additional_context,omitempty"`
	ForceIntentLLM              bool                   `json:"force_intent_llm,omitempty"`
	IntentProbe                 bool                   `json:"intent_probe,omitempty"`
	StructuredInput             *types.StructuredInput `json:"structured_input,omitempty"`
	PendingPromiseProjectNumber string                 `json:"pending_promise_project_number,omitempty"`
}

// ResolveRequest is the body of POST /intents/resolve.
type ResolveRequest struct {
	Message string         `json:"message"`
	Context ResolveContext `json:"context"`
}

// ChatRequest is the body of POST /search/chat.
type ChatRequest struct {
	Message         string               `json:"message"`
	ThreadID        string               `json:"thread_id"`
	RuntimeOptions  types.RuntimeOptions `json:"runtime_options"`
	PrefetchedRoute *types.IntentPayload `json:"prefetched_route,omitempty"`
	EmailID         string               `json:"email_id,omitempty"`
}

// Chat response statuses.
const (
	StatusCompleted       = "completed"
	StatusConfirmRequired = "confirm_required"
)

// ToolCall is one pending backend tool invocation awaiting approval.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ChatResponse is the terminal payload of a chat turn.
type ChatResponse struct {
	Status         string         `json:"status"`
	Answer         string         `json:"answer"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	ToolCalls      []ToolCall     `json:"tool_calls,omitempty"`
	ConfirmationID string         `json:"confirmation_id,omitempty"`
}

// ConfirmRequest approves or rejects a pending tool-call batch.
type ConfirmRequest struct {
	ConfirmationID string `json:"confirmation_id"`
	Approved       bool   `json:"approved"`
}

// ProgressEvent is one streamed progress line of a chat turn. Events with
// the same key replace each other in the UI.
type ProgressEvent struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Status string `json:"status,omitempty"`
}

// streamLine frames one NDJSON line of the chat response body.
type streamLine struct {
	Type     string         `json:"type"`
	Progress *ProgressEvent `json:"progress,omitempty"`
	Result   *ChatResponse  `json:"result,omitempty"`
}

// Client talks to the assistant backend over JSON/HTTPS.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a backend client. httpClient may carry oauth2 transport
// from NewAuthClient; nil falls back to the default client.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, http: httpClient, logger: logger}
}

// ResolveIntent calls POST /intents/resolve with the given deadline. A null
// body means the router had nothing; that is (nil, nil), not an error.
func (c *Client) ResolveIntent(ctx context.Context, req *ResolveRequest, timeout time.Duration) (*types.IntentPayload, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var payload *types.IntentPayload
	if err := c.postJSON(ctx, "/intents/resolve", req, &payload); err != nil {
		return nil, err
	}
	if payload != nil {
		payload.Source = types.IntentSourceBackend
	}
	return payload, nil
}

// Chat calls POST /search/chat. The response body is NDJSON: progress lines
// are forwarded to onProgress in arrival order, and the result line is
// returned. A bare JSON object body (no framing) is accepted as the result.
func (c *Client) Chat(ctx context.Context, req *ChatRequest, timeout time.Duration, onProgress func(ProgressEvent)) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.post(ctx, "/search/chat", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result *ChatResponse
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var sl streamLine
		if err := json.Unmarshal(line, &sl); err != nil {
			return nil, fmt.Errorf("parse chat stream: %w", err)
		}
		switch {
		case sl.Type == "progress" && sl.Progress != nil:
			if onProgress != nil {
				onProgress(*sl.Progress)
			}
		case sl.Type == "result" && sl.Result != nil:
			result = sl.Result
		case sl.Type == "":
			// Unframed single-object response.
			var cr ChatResponse
			if err := json.Unmarshal(line, &cr); err == nil && (cr.Answer != "" || cr.Status != "") {
				result = &cr
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, wrapTransport(ctx, err)
	}
	if result == nil {
		return nil, fmt.Errorf("chat stream ended without a result")
	}
	return result, nil
}

// Confirm calls POST /search/chat/confirm for a pending tool-call batch.
func (c *Client) Confirm(ctx context.Context, req *ConfirmRequest, timeout time.Duration) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out ChatResponse
	if err := c.postJSON(ctx, "/search/chat/confirm", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapTransport(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("backend %s: status %d", path, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// wrapTransport folds deadline errors into ErrTimeout so the pipeline
// boundary can pick the right user-visible message.
func wrapTransport(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("backend request: %w", err)
}
