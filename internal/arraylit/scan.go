package arraylit

import (
	"bytes"
	"regexp"
)

var (
	literalRe = regexp.MustCompile(`ARRAY\[([^\]]+)\]`)
	itemRe    = regexp.MustCompile(`["']([^"']+)["']`)
)

// Item is one quoted value found in a literal's payload.
// Start and End cover the value including its quotes, as offsets into the
// scanned content.
type Item struct {
	Text  string
	Open  byte
	Close byte
	Start int
	End   int
}

// Mismatched reports whether the item opens and closes with different quotes.
func (it Item) Mismatched() bool {
	return it.Open != it.Close
}

// Segment is a run of payload text that no item covers.
type Segment struct {
	Text  string
	Start int
	End   int
}

// Literal is one ARRAY[...] match.
type Literal struct {
	Text         string
	Start        int
	End          int
	PayloadStart int
	PayloadEnd   int
	Items        []Item
	Dropped      []Segment

	// Canonical is the replacement text; empty when the literal has no items.
	Canonical string
}

// Changed reports whether the literal differs from its canonical form.
func (l *Literal) Changed() bool {
	return l.Canonical != "" && l.Canonical != l.Text
}

// ItemTexts returns the raw item values in order.
func (l *Literal) ItemTexts() []string {
	out := make([]string, len(l.Items))
	for i, it := range l.Items {
		out[i] = it.Text
	}
	return out
}

// Scan finds every non-overlapping ARRAY[...] literal in content, in order.
// Canonical is not filled in; see Normalize.
func Scan(content []byte) []Literal {
	locs := literalRe.FindAllSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return nil
	}
	lits := make([]Literal, 0, len(locs))
	for _, loc := range locs {
		lit := Literal{
			Text:         string(content[loc[0]:loc[1]]),
			Start:        loc[0],
			End:          loc[1],
			PayloadStart: loc[2],
			PayloadEnd:   loc[3],
		}
		lit.Items, lit.Dropped = scanPayload(content, loc[2], loc[3])
		lits = append(lits, lit)
	}
	return lits
}

func scanPayload(content []byte, start, end int) ([]Item, []Segment) {
	payload := content[start:end]
	var items []Item
	var dropped []Segment

	prev := 0
	for _, m := range itemRe.FindAllSubmatchIndex(payload, -1) {
		dropped = appendGap(dropped, payload, start, prev, m[0])
		items = append(items, Item{
			Text:  string(payload[m[2]:m[3]]),
			Open:  payload[m[0]],
			Close: payload[m[1]-1],
			Start: start + m[0],
			End:   start + m[1],
		})
		prev = m[1]
	}
	dropped = appendGap(dropped, payload, start, prev, len(payload))
	return items, dropped
}

// appendGap splits payload[from:to] on commas and records every piece that is
// not blank.
func appendGap(out []Segment, payload []byte, base, from, to int) []Segment {
	pos := from
	for pos < to {
		next := bytes.IndexByte(payload[pos:to], ',')
		pieceEnd := to
		if next >= 0 {
			pieceEnd = pos + next
		}
		if seg, ok := trimPiece(payload, pos, pieceEnd); ok {
			seg.Start += base
			seg.End += base
			out = append(out, seg)
		}
		if next < 0 {
			break
		}
		pos = pieceEnd + 1
	}
	return out
}

func trimPiece(payload []byte, start, end int) (Segment, bool) {
	for start < end && isSpace(payload[start]) {
		start++
	}
	for end > start && isSpace(payload[end-1]) {
		end--
	}
	if start == end {
		return Segment{}, false
	}
	return Segment{Text: string(payload[start:end]), Start: start, End: end}, true
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
