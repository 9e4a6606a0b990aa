package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Serialize renders messages as "role: content" lines joined by newlines.
// Content is not escaped, so the rendering is not injective: a message whose
// content contains "\nassistant: x" serializes like two separate messages.
func Serialize(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, string(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// Fingerprint returns the hex SHA-256 of the model identifier followed by the
// serialized messages. It is the key under which completions are cached.
//
// Fingerprint inherits the ambiguity of Serialize. The summarizer always sends
// the same fixed-shape transcript, where only the last user message carries
// file text, so two of its requests can never collide this way. Callers that
// cache arbitrary transcripts must not rely on it to tell such splits apart.
func Fingerprint(model string, messages []Message) string {
	sum := sha256.Sum256([]byte(model + Serialize(messages)))
	return hex.EncodeToString(sum[:])
}
