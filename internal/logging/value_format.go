package logging

import (
	"fmt"
	"strconv"
	"strings"
)

// formatValue renders an slog attribute value for the console handler. It
// stays close to fmt's default formatting but quotes strings that contain
// whitespace so a multi-word value doesn't get misread as two fields.
func formatValue(v any) string {
	switch t := v.(type) {
	case string:
		if needsQuotes(t) {
			return strconv.Quote(t)
		}
		return t
	case fmt.Stringer:
		return formatValue(t.String())
	case error:
		return formatValue(t.Error())
	default:
		return fmt.Sprintf("%v", t)
	}
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	return strings.ContainsAny(s, " \t\n\"=")
}
