package diag

import (
	"seedfix/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces the bytes covered by Span with NewText.
// When OldText is set, the edit only applies if the span still holds it.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

type Fix struct {
	Title string
	Edits []TextEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
