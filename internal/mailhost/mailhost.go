// Package mailhost defines the mail-host collaborator interface. The real
// host is the Outlook taskpane; the routing core only ever sees this
// interface plus a file-backed implementation for the CLI and tests.
package mailhost

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Message is the subset of the selected mail item the router needs.
type Message struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id,omitempty"`
	Subject  string `json:"subject,omitempty"`
	From     string `json:"from,omitempty"`
	Body     string `json:"body,omitempty"`
}

// ReplyDraft is a native reply/compose request handed back to the host.
type ReplyDraft struct {
	Tone string
	Body string
}

// Host is the mail-host capability surface the router consumes.
type Host interface {
	// CurrentMessage returns the currently selected mail item, or nil when
	// nothing is selected.
	CurrentMessage(ctx context.Context) (*Message, error)
	// OpenReply opens the host's native reply compose window.
	OpenReply(ctx context.Context, draft ReplyDraft) error
	// OnItemChanged registers a callback fired when the selected item changes.
	OnItemChanged(fn func())
}

// FileHost reads the "selected" message from a JSON file so the engine can
// run without Outlook. An absent or empty file means no selection.
type FileHost struct {
	path     string
	handlers []func()
	lastID   string
}

// NewFileHost creates a file-backed host. The path may not exist yet.
func NewFileHost(path string) *FileHost {
	return &FileHost{path: path}
}

// CurrentMessage reads the selection file. A change of message id since the
// last read fires the item-changed handlers, mirroring the host event.
func (h *FileHost) CurrentMessage(_ context.Context) (*Message, error) {
	data, err := os.ReadFile(h.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mail selection: %w", err)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mail selection: %w", err)
	}
	if m.ID == "" {
		return nil, nil
	}
	if h.lastID != "" && h.lastID != m.ID {
		for _, fn := range h.handlers {
			fn()
		}
	}
	h.lastID = m.ID
	return &m, nil
}

// OpenReply prints the draft; the CLI has no compose window.
func (h *FileHost) OpenReply(_ context.Context, draft ReplyDraft) error {
	fmt.Printf("reply compose (%s tone):\n%s\n", draft.Tone, draft.Body)
	return nil
}

// OnItemChanged registers an item-changed handler.
func (h *FileHost) OnItemChanged(fn func()) {
	h.handlers = append(h.handlers, fn)
}
