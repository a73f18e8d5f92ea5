package arraylit

import (
	"fmt"

	"seedfix/internal/diag"
	"seedfix/internal/fix"
	"seedfix/internal/source"
)

// ReportOptions selects which findings Report emits.
type ReportOptions struct {
	// Rewrites adds an info diagnostic for every rewritten literal.
	Rewrites bool
	// Unchanged adds an info diagnostic for literals left alone because they
	// have no quoted item.
	Unchanged bool
}

// Report emits diagnostics for res into r. Offsets in res must belong to file.
// Lossy rewrites are warnings; they never change the output.
func Report(res *Result, file source.FileID, r diag.Reporter, opts ReportOptions) {
	if res == nil || r == nil {
		return
	}
	for i := range res.Literals {
		lit := &res.Literals[i]
		litSpan := source.SpanOf(file, lit.Start, lit.End)

		if len(lit.Items) == 0 {
			if opts.Unchanged {
				diag.ReportInfo(r, diag.ArrNoQuotedItems, litSpan,
					"ARRAY literal has no quoted items; left unchanged").Emit()
			}
			continue
		}

		var rewrite diag.Fix
		if lit.Changed() {
			rewrite = fix.ReplaceSpan("rewrite as "+lit.Canonical, litSpan, lit.Canonical, lit.Text)
		}

		for _, seg := range lit.Dropped {
			b := diag.ReportWarning(r, diag.ArrDroppedText, source.SpanOf(file, seg.Start, seg.End),
				fmt.Sprintf("unquoted item %q is dropped from ARRAY literal", seg.Text)).
				WithNote(litSpan, "literal becomes "+lit.Canonical)
			if len(rewrite.Edits) > 0 {
				b = b.WithFix(rewrite.Title, rewrite.Edits...)
			}
			b.Emit()
		}

		for _, it := range lit.Items {
			if !it.Mismatched() {
				continue
			}
			diag.ReportWarning(r, diag.ArrMismatchedQuotes, source.SpanOf(file, it.Start, it.End),
				fmt.Sprintf("item %q opens with %c and closes with %c", it.Text, it.Open, it.Close)).Emit()
		}

		if opts.Rewrites && lit.Changed() {
			diag.ReportInfo(r, diag.ArrRewritten, litSpan, "ARRAY literal rewritten to "+lit.Canonical).
				WithFix(rewrite.Title, rewrite.Edits...).
				Emit()
		}
	}
}
