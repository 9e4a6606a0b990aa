// Package llm builds chat transcripts and runs them against a completion
// backend, caching deterministic completions by prompt fingerprint.
package llm

import (
	"strings"
)

// Role tags a transcript message with its speaker.
type Role string

const (
	RoleNone      Role = ""
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry of a transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is an ordered conversation built incrementally.
//
// The active role is held by the Transcript itself, so two transcripts built
// side by side never observe each other's role. A single Transcript is not
// safe for concurrent use.
type Transcript struct {
	messages []Message
	role     Role
}

// NewTranscript returns an empty transcript with no active role.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// With runs fn with role active. Every Append made during fn is tagged with
// role. The previously active role is restored when fn returns or panics.
func (t *Transcript) With(role Role, fn func()) {
	prev := t.role
	t.role = role
	defer func() { t.role = prev }()
	fn()
}

// System runs fn with the system role active.
func (t *Transcript) System(fn func()) { t.With(RoleSystem, fn) }

// User runs fn with the user role active.
func (t *Transcript) User(fn func()) { t.With(RoleUser, fn) }

// Assistant runs fn with the assistant role active.
func (t *Transcript) Assistant(fn func()) { t.With(RoleAssistant, fn) }

// Append trims message and records it under the active role. Outside of any
// role scope Append does nothing.
func (t *Transcript) Append(message string) *Transcript {
	if t.role == RoleNone {
		return t
	}
	t.messages = append(t.messages, Message{
		Role:    t.role,
		Content: strings.TrimSpace(message),
	})
	return t
}

// Add appends content under role in a single call.
func (t *Transcript) Add(role Role, content string) *Transcript {
	t.With(role, func() { t.Append(content) })
	return t
}

// Messages returns a copy of the recorded messages.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of recorded messages.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Reset drops every recorded message.
func (t *Transcript) Reset() {
	t.messages = nil
	t.role = RoleNone
}

// String renders the transcript with one <role>...</role> block per message.
func (t *Transcript) String() string {
	blocks := make([]string, 0, len(t.messages))
	for _, m := range t.messages {
		blocks = append(blocks, "<"+string(m.Role)+">\n"+m.Content+"\n</"+string(m.Role)+">")
	}
	return strings.Join(blocks, "\n")
}
