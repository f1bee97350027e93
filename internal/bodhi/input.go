package bodhi

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bimmerbailey/bodhi/internal/llm"
)

// normalizePrompt trims p and rejects empty or non-UTF-8 text.
func normalizePrompt(p string) (string, error) {
	if !utf8.ValidString(p) {
		return "", fmt.Errorf("%w: prompt is not valid UTF-8 text", ErrInvalidArgument)
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("%w: prompt is empty", ErrInvalidArgument)
	}
	return p, nil
}

// flattenMessages joins the non-empty contents of msgs with newlines, in
// order and regardless of role.
func flattenMessages(msgs []llm.Message) (string, error) {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Content != "" {
			parts = append(parts, m.Content)
		}
	}
	return normalizePrompt(strings.Join(parts, "\n"))
}
