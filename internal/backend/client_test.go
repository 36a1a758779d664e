package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moldu/assistant/internal/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client(), nil)
}

func TestResolveIntentNullIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
	})

	payload, err := c.ResolveIntent(context.Background(), &ResolveRequest{Message: "뭐든"}, time.Second)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestResolveIntentTagsBackendSource(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/intents/resolve", r.URL.Path)

		var req ResolveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "내일 회의실 잡아줘", req.Message)
		assert.True(t, req.Context.IntentProbe)

		json.NewEncoder(w).Encode(types.IntentPayload{
			Intent:     "workflow.room.reserve",
			Confidence: 0.91,
		})
	})

	req := &ResolveRequest{
		Message: "내일 회의실 잡아줘",
		Context: ResolveContext{Surface: "taskpane", IntentProbe: true},
	}
	payload, err := c.ResolveIntent(context.Background(), req, time.Second)
	require.NoError(t, err)
	require.NotNil(t, payload)
	assert.Equal(t, "workflow.room.reserve", payload.Intent)
	assert.Equal(t, types.IntentSourceBackend, payload.Source)
}

func TestChatStreamsProgressInOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/chat", r.URL.Path)
		w.Write([]byte(
			`{"type":"progress","progress":{"key":"search","label":"메일 검색 중"}}` + "\n" +
				`{"type":"progress","progress":{"key":"search","label":"메일 검색 완료","status":"done"}}` + "\n" +
				`{"type":"progress","progress":{"key":"compose","label":"답변 작성 중"}}` + "\n" +
				`{"type":"result","result":{"status":"completed","answer":"요약 결과입니다."}}` + "\n"))
	})

	var events []ProgressEvent
	resp, err := c.Chat(context.Background(), &ChatRequest{Message: "요약해줘"}, time.Second,
		func(ev ProgressEvent) { events = append(events, ev) })
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, resp.Status)
	assert.Equal(t, "요약 결과입니다.", resp.Answer)

	require.Len(t, events, 3)
	assert.Equal(t, "search", events[0].Key)
	assert.Equal(t, "done", events[1].Status)
	assert.Equal(t, "compose", events[2].Key)
}

func TestChatAcceptsUnframedObject(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(ChatResponse{Status: StatusCompleted, Answer: "바로 답변"})
	})

	resp, err := c.Chat(context.Background(), &ChatRequest{Message: "질문"}, time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, "바로 답변", resp.Answer)
}

func TestChatConfirmRequired(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"type":"result","result":{"status":"confirm_required","answer":"일정을 등록할까요?","confirmation_id":"cf-1","tool_calls":[{"id":"tc-1","name":"schedule.register"}]}}` + "\n"))
	})

	resp, err := c.Chat(context.Background(), &ChatRequest{Message: "@일정 /등록 내일 3시"}, time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmRequired, resp.Status)
	assert.Equal(t, "cf-1", resp.ConfirmationID)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "schedule.register", resp.ToolCalls[0].Name)
}

func TestChatStreamWithoutResultIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"type":"progress","progress":{"key":"search","label":"검색 중"}}` + "\n"))
	})

	_, err := c.Chat(context.Background(), &ChatRequest{Message: "질문"}, time.Second, nil)
	assert.Error(t, err)
}

func TestChatTimeoutIsErrTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"type":"result","result":{"status":"completed","answer":"늦은 답"}}` + "\n"))
	})

	_, err := c.Chat(context.Background(), &ChatRequest{Message: "질문"}, 20*time.Millisecond, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestNonOKStatusIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.ResolveIntent(context.Background(), &ResolveRequest{Message: "뭐든"}, time.Second)
	assert.Error(t, err)
}

func TestConfirmRoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/chat/confirm", r.URL.Path)

		var req ConfirmRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cf-1", req.ConfirmationID)
		assert.True(t, req.Approved)

		json.NewEncoder(w).Encode(ChatResponse{Status: StatusCompleted, Answer: "일정을 등록했어요."})
	})

	resp, err := c.Confirm(context.Background(), &ConfirmRequest{ConfirmationID: "cf-1", Approved: true}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "일정을 등록했어요.", resp.Answer)
}

func TestChatTimeoutForPresets(t *testing.T) {
	assert.Equal(t, ChatTimeoutSmalltalk, ChatTimeoutFor(types.TurnSmalltalk))
	assert.Equal(t, ChatTimeoutFollowup, ChatTimeoutFor(types.TurnFollowupRefine))
	assert.Equal(t, ChatTimeoutTask, ChatTimeoutFor(types.TurnTask))
}
