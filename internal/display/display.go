// Package display provides terminal formatting for the assistant CLI.
package display

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/moldu/assistant/internal/types"
)

var (
	// Styles
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	Accent   = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb"))
	Warn     = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
)

// KindBadge returns a short styled label for a turn kind.
func KindBadge(kind types.TurnKind) string {
	switch kind {
	case types.TurnSmalltalk:
		return Dim.Render("[smalltalk]")
	case types.TurnFollowupRefine:
		return Warn.Render("[followup]")
	default:
		return Accent.Render("[task]")
	}
}

// UserLine prints the user side of the transcript.
func UserLine(message string) {
	fmt.Println(Bold.Render("you") + "  " + message)
}

// AssistantLine prints the assistant answer, indented.
func AssistantLine(answer string) {
	fmt.Println(Accent.Render("moldu"))
	for _, line := range strings.Split(strings.TrimSpace(answer), "\n") {
		fmt.Println("  " + line)
	}
}

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(Success.Render("✓") + " " + msg)
}

// ErrorMsg prints a red X + message to stderr.
func ErrorMsg(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, ErrStyle.Render("✗")+" "+msg)
}

// Header prints a section header.
func Header(title string) {
	fmt.Println(Bold.Render(title))
}

// SubHeader prints a dim subsection label.
func SubHeader(title string) {
	fmt.Println(Muted.Render(title))
}

// Truncate shortens a string to maxLen, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// ProgressBoard renders streamed progress events. A new event with a key
// already on the board replaces that line in place; order otherwise follows
// arrival order.
type ProgressBoard struct {
	keys  []string
	lines map[string]string
}

// NewProgressBoard creates an empty board.
func NewProgressBoard() *ProgressBoard {
	return &ProgressBoard{lines: make(map[string]string)}
}

// Update applies one progress event and reprints the affected line.
func (b *ProgressBoard) Update(key, label, status string) {
	text := label
	if status != "" {
		text += " " + Dim.Render("("+status+")")
	}
	if _, seen := b.lines[key]; !seen {
		b.keys = append(b.keys, key)
		b.lines[key] = text
		fmt.Println("  " + Muted.Render("·") + " " + text)
		return
	}
	b.lines[key] = text
	// Same key replaces its own line: move up to it, rewrite, move back.
	pos := 0
	for i, k := range b.keys {
		if k == key {
			pos = len(b.keys) - i
			break
		}
	}
	fmt.Printf("\033[%dA\033[2K\r", pos)
	fmt.Println("  " + Muted.Render("·") + " " + text)
	if pos > 1 {
		fmt.Printf("\033[%dB", pos-1)
	}
}

// Len returns how many distinct progress keys were seen.
func (b *ProgressBoard) Len() int {
	return len(b.keys)
}
