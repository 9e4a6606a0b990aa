package combine

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrNotText is reported for files that are not valid UTF-8 text.
var ErrNotText = errors.New("invalid UTF-8 content")

// decodeText validates data as UTF-8 text and normalizes line endings.
// Null bytes are treated as binary content even though they are valid UTF-8.
func decodeText(data []byte) (string, error) {
	if bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data) {
		return "", ErrNotText
	}
	text := string(data)
	if strings.IndexByte(text, '\r') >= 0 {
		text = strings.ReplaceAll(text, "\r\n", "\n")
		text = strings.ReplaceAll(text, "\r", "\n")
	}
	return text, nil
}
