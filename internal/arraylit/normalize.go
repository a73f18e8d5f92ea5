package arraylit

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"seedfix/internal/diag"
	"seedfix/internal/fix"
	"seedfix/internal/source"
)

// UnicodeForm selects an optional Unicode normalisation for item values.
type UnicodeForm string

const (
	UnicodeNone UnicodeForm = "none"
	UnicodeNFC  UnicodeForm = "nfc"
	UnicodeNFD  UnicodeForm = "nfd"
)

// ParseUnicodeForm accepts none|nfc|nfd (case-insensitive); empty means none.
func ParseUnicodeForm(s string) (UnicodeForm, error) {
	switch UnicodeForm(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnicodeNone:
		return UnicodeNone, nil
	case UnicodeNFC:
		return UnicodeNFC, nil
	case UnicodeNFD:
		return UnicodeNFD, nil
	default:
		return "", fmt.Errorf("invalid unicode form %q (expected none|nfc|nfd)", s)
	}
}

func (f UnicodeForm) apply(s string) string {
	switch f {
	case UnicodeNFC:
		return norm.NFC.String(s)
	case UnicodeNFD:
		return norm.NFD.String(s)
	default:
		return s
	}
}

// Options tunes Normalize. The zero value reproduces the plain rewrite.
type Options struct {
	Unicode UnicodeForm
}

// Result is the outcome of normalising one piece of content.
type Result struct {
	Content  []byte
	Changed  bool
	Literals []Literal
}

// Rewritten returns the number of literals that were replaced.
func (r *Result) Rewritten() int {
	n := 0
	for i := range r.Literals {
		if r.Literals[i].Changed() {
			n++
		}
	}
	return n
}

// Dropped returns the number of payload pieces lost by the rewrite.
func (r *Result) Dropped() int {
	n := 0
	for i := range r.Literals {
		if r.Literals[i].Changed() {
			n += len(r.Literals[i].Dropped)
		}
	}
	return n
}

// Canonical joins items into ARRAY['i1','i2',...].
func Canonical(items []string) string {
	return "ARRAY['" + strings.Join(items, "','") + "']"
}

// Normalize replaces every ARRAY[...] literal in content with its canonical
// form in a single pass. content is not modified.
// Content longer than math.MaxUint32 bytes is rejected with source.ErrFileTooLarge.
func Normalize(content []byte, opts Options) (*Result, error) {
	if err := checkSize(len(content)); err != nil {
		return nil, err
	}
	lits := Scan(content)
	res := &Result{Content: content, Literals: lits}
	if len(lits) == 0 {
		return res, nil
	}

	edits := make([]diag.TextEdit, 0, len(lits))
	for i := range lits {
		lit := &lits[i]
		if len(lit.Items) == 0 {
			continue
		}
		items := lit.ItemTexts()
		for j := range items {
			items[j] = opts.Unicode.apply(items[j])
		}
		lit.Canonical = Canonical(items)
		if !lit.Changed() {
			continue
		}
		edits = append(edits, diag.TextEdit{
			Span:    source.SpanOf(0, lit.Start, lit.End),
			NewText: lit.Canonical,
			OldText: lit.Text,
		})
	}
	if len(edits) == 0 {
		return res, nil
	}

	out, err := fix.ApplyEdits(content, edits)
	if err != nil {
		return nil, fmt.Errorf("arraylit: %w", err)
	}
	res.Content = out
	res.Changed = true
	return res, nil
}

// checkSize rejects lengths whose offsets do not fit into a source.Span.
func checkSize(n int) error {
	if _, err := safecast.Conv[uint32](n); err != nil {
		return fmt.Errorf("arraylit: %w (%d bytes)", source.ErrFileTooLarge, n)
	}
	return nil
}

// NormalizeString is Normalize for strings with default options.
func NormalizeString(s string) (string, error) {
	res, err := Normalize([]byte(s), Options{})
	if err != nil {
		return "", err
	}
	return string(res.Content), nil
}
