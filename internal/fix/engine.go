package fix

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"seedfix/internal/diag"
)

var (
	// ErrEditConflict is returned when two edits touch overlapping bytes.
	ErrEditConflict = errors.New("conflicting edits")
	// ErrEditMismatch is returned when an edit's OldText guard does not match.
	ErrEditMismatch = errors.New("existing text does not match expected content")
	// ErrEditRange is returned for spans outside of the content.
	ErrEditRange = errors.New("edit span out of range")
)

// ApplyEdits applies edits to content in a single pass and returns the new bytes.
// Edits may be given in any order; all spans refer to the original content.
// content is never modified. With no edits the original slice is returned.
func ApplyEdits(content []byte, edits []diag.TextEdit) ([]byte, error) {
	if len(edits) == 0 {
		return content, nil
	}

	sorted := make([]diag.TextEdit, len(edits))
	copy(sorted, edits)
	sortEdits(sorted)

	for i, edit := range sorted {
		if int(edit.Span.End) > len(content) || edit.Span.End < edit.Span.Start {
			return nil, fmt.Errorf("%w: %s", ErrEditRange, edit.Span)
		}
		if i > 0 && spansConflict(sorted[i-1], edit) {
			return nil, fmt.Errorf("%w: %s and %s", ErrEditConflict, sorted[i-1].Span, edit.Span)
		}
		if edit.OldText != "" && string(content[edit.Span.Start:edit.Span.End]) != edit.OldText {
			return nil, fmt.Errorf("%w at %s", ErrEditMismatch, edit.Span)
		}
	}

	var out bytes.Buffer
	out.Grow(len(content) + deltaOf(sorted))
	prev := uint32(0)
	for _, edit := range sorted {
		out.Write(content[prev:edit.Span.Start])
		out.WriteString(edit.NewText)
		prev = edit.Span.End
	}
	out.Write(content[prev:])
	return out.Bytes(), nil
}

func sortEdits(edits []diag.TextEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Span.Start != edits[j].Span.Start {
			return edits[i].Span.Start < edits[j].Span.Start
		}
		return edits[i].Span.End < edits[j].Span.End
	})
}

// spansConflict reports whether two text edits' spans overlap.
// Spans are treated as half-open intervals [Start, End). Two insertions at the
// same offset conflict because their relative order would be ambiguous.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return aStart == bStart
	}
	if aStart == aEnd {
		return bStart < aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func deltaOf(edits []diag.TextEdit) int {
	delta := 0
	for _, e := range edits {
		delta += len(e.NewText) - int(e.Span.Len())
	}
	return max(delta, 0)
}
