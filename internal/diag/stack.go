package diag

import (
	"fmt"
	"strings"
)

// FlattenStack renders err with its stack trace (when the error chain
// carries one, see github.com/pkg/errors) collapsed onto a single line, so
// the host's diagnostic channel can show it against one location.
func FlattenStack(err error) string {
	if err == nil {
		return ""
	}
	rendered := fmt.Sprintf("%+v", err)
	rendered = strings.ReplaceAll(rendered, "\r\n", "  ")
	rendered = strings.ReplaceAll(rendered, "\n", "  ")
	return strings.ReplaceAll(rendered, "\t", " ")
}
