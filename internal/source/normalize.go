package source

import (
	"strings"

	"golang.org/x/text/cases"
)

var handleFold = cases.Fold()

// NormalizeHandle folds an account handle to a canonical case-insensitive
// form, stripping any leading "@". The platform treats handles as
// case-insensitive, but the state store, scratch directories, and cursor
// keys need one stable spelling, not whatever casing an operator typed into
// SOURCE_USERS.
func NormalizeHandle(handle string) string {
	return handleFold.String(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}
