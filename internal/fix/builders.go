package fix

import (
	"seedfix/internal/diag"
	"seedfix/internal/source"
)

// ReplaceSpan creates a fix that replaces span with text.
// guard, when non-empty, must match the current content of span at apply time.
func ReplaceSpan(title string, span source.Span, text, guard string) diag.Fix {
	return diag.Fix{
		Title: title,
		Edits: []diag.TextEdit{{
			Span:    span,
			NewText: text,
			OldText: guard,
		}},
	}
}

// EditsFor collects the edits of the first fix of every diagnostic whose
// primary span belongs to file. Diagnostics without fixes are skipped.
func EditsFor(diagnostics []diag.Diagnostic, file source.FileID) []diag.TextEdit {
	edits := make([]diag.TextEdit, 0)
	for _, d := range diagnostics {
		if d.Primary.File != file || len(d.Fixes) == 0 {
			continue
		}
		for _, e := range d.Fixes[0].Edits {
			if e.Span.File == file {
				edits = append(edits, e)
			}
		}
	}
	return edits
}
