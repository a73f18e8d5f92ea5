package testkit

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"seedfix/internal/arraylit"
	"seedfix/internal/source"
)

// CheckLiteralInvariants runs a minimal set of invariants on a normalisation
// result for content:
// 1) every literal span is non-empty, inside content and equal to its Text
// 2) literals are ordered and do not overlap
// 3) item and dropped spans lie inside the literal payload and do not overlap
// 4) Canonical is ARRAY['i1',...] for literals with items and empty otherwise
func CheckLiteralInvariants(res *arraylit.Result, content []byte) error {
	if res == nil {
		return fmt.Errorf("nil result")
	}
	lenContent, err := safecast.Conv[uint32](len(content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	whole := source.Span{End: lenContent}

	var prev source.Span
	for i := range res.Literals {
		lit := &res.Literals[i]
		sp := source.SpanOf(0, lit.Start, lit.End)

		// 1) literal sanity
		if sp.Empty() {
			return fmt.Errorf("literal %d: empty span %v", i, sp)
		}
		if !whole.Contains(sp) {
			return fmt.Errorf("literal %d: span %v outside content %v", i, sp, whole)
		}
		if got := string(content[lit.Start:lit.End]); got != lit.Text {
			return fmt.Errorf("literal %d: text %q does not match content %q", i, lit.Text, got)
		}
		if !strings.HasPrefix(lit.Text, "ARRAY[") || !strings.HasSuffix(lit.Text, "]") {
			return fmt.Errorf("literal %d: malformed text %q", i, lit.Text)
		}

		// 2) order
		if i > 0 && (sp.Start < prev.End || sp.Overlaps(prev)) {
			return fmt.Errorf("literal %d: span %v overlaps or precedes %v", i, sp, prev)
		}
		prev = sp

		// 3) payload pieces
		payload := source.SpanOf(0, lit.PayloadStart, lit.PayloadEnd)
		if !sp.Contains(payload) || payload.Empty() {
			return fmt.Errorf("literal %d: bad payload span %v", i, payload)
		}
		pieces := make([]source.Span, 0, len(lit.Items)+len(lit.Dropped))
		for _, it := range lit.Items {
			pieces = append(pieces, source.SpanOf(0, it.Start, it.End))
			if it.Text == "" || strings.ContainsAny(it.Text, `"'`) {
				return fmt.Errorf("literal %d: bad item text %q", i, it.Text)
			}
		}
		for _, seg := range lit.Dropped {
			pieces = append(pieces, source.SpanOf(0, seg.Start, seg.End))
			if seg.Text == "" || strings.Trim(seg.Text, " \t\n\r\v\f") != seg.Text {
				return fmt.Errorf("literal %d: untrimmed dropped segment %q", i, seg.Text)
			}
		}
		slices.SortFunc(pieces, func(a, b source.Span) int { return cmp.Compare(a.Start, b.Start) })
		for j, p := range pieces {
			if p.Empty() || !payload.Contains(p) {
				return fmt.Errorf("literal %d: piece %v outside payload %v", i, p, payload)
			}
			if j > 0 && pieces[j-1].Overlaps(p) {
				return fmt.Errorf("literal %d: pieces %v and %v overlap", i, pieces[j-1], p)
			}
		}

		// 4) canonical form
		if len(lit.Items) == 0 {
			if lit.Canonical != "" {
				return fmt.Errorf("literal %d: canonical %q for literal without items", i, lit.Canonical)
			}
			continue
		}
		if !strings.HasPrefix(lit.Canonical, "ARRAY['") || !strings.HasSuffix(lit.Canonical, "']") {
			return fmt.Errorf("literal %d: malformed canonical %q", i, lit.Canonical)
		}
	}

	if res.Changed == bytes.Equal(res.Content, content) {
		return fmt.Errorf("Changed=%v disagrees with content comparison", res.Changed)
	}
	return nil
}
