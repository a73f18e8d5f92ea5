package fix

import (
	"errors"
	"testing"

	"seedfix/internal/diag"
	"seedfix/internal/source"
)

func TestApplyEdits(t *testing.T) {
	content := []byte(`x ARRAY["a"] y ARRAY["b"] z`)

	edits := []diag.TextEdit{
		{Span: source.Span{Start: 15, End: 25}, NewText: "ARRAY['b']", OldText: `ARRAY["b"]`},
		{Span: source.Span{Start: 2, End: 12}, NewText: "ARRAY['a']", OldText: `ARRAY["a"]`},
	}

	got, err := ApplyEdits(content, edits)
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if want := `x ARRAY['a'] y ARRAY['b'] z`; string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if string(content) != `x ARRAY["a"] y ARRAY["b"] z` {
		t.Fatalf("input was modified: %q", content)
	}
}

func TestApplyEditsChangesLength(t *testing.T) {
	got, err := ApplyEdits([]byte("0123456789"), []diag.TextEdit{
		{Span: source.Span{Start: 1, End: 3}, NewText: ""},
		{Span: source.Span{Start: 5, End: 5}, NewText: "++"},
		{Span: source.Span{Start: 8, End: 10}, NewText: "END"},
	})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if string(got) != "034++567END" {
		t.Fatalf("got %q", got)
	}
}

func TestApplyEditsErrors(t *testing.T) {
	content := []byte("abcdef")
	tests := []struct {
		name  string
		edits []diag.TextEdit
		want  error
	}{
		{
			name: "overlap",
			edits: []diag.TextEdit{
				{Span: source.Span{Start: 0, End: 3}, NewText: "x"},
				{Span: source.Span{Start: 2, End: 4}, NewText: "y"},
			},
			want: ErrEditConflict,
		},
		{
			name: "same insertion point",
			edits: []diag.TextEdit{
				{Span: source.Span{Start: 2, End: 2}, NewText: "x"},
				{Span: source.Span{Start: 2, End: 2}, NewText: "y"},
			},
			want: ErrEditConflict,
		},
		{
			name:  "guard mismatch",
			edits: []diag.TextEdit{{Span: source.Span{Start: 0, End: 2}, NewText: "x", OldText: "zz"}},
			want:  ErrEditMismatch,
		},
		{
			name:  "out of range",
			edits: []diag.TextEdit{{Span: source.Span{Start: 4, End: 9}, NewText: "x"}},
			want:  ErrEditRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyEdits(content, tt.edits)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyEditsAdjacentSpans(t *testing.T) {
	got, err := ApplyEdits([]byte("aabb"), []diag.TextEdit{
		{Span: source.Span{Start: 0, End: 2}, NewText: "A"},
		{Span: source.Span{Start: 2, End: 4}, NewText: "B"},
	})
	if err != nil {
		t.Fatalf("adjacent spans must not conflict: %v", err)
	}
	if string(got) != "AB" {
		t.Fatalf("got %q", got)
	}
}

func TestEditsFor(t *testing.T) {
	sp := source.Span{File: 1, Start: 0, End: 3}
	diagnostics := []diag.Diagnostic{
		diag.New(diag.SevInfo, diag.ArrRewritten, sp, "rewrite").
			WithFix("first", diag.TextEdit{Span: sp, NewText: "one"}).
			WithFix("second", diag.TextEdit{Span: sp, NewText: "two"}),
		diag.New(diag.SevInfo, diag.ArrNoQuotedItems, sp, "no fix"),
		diag.New(diag.SevInfo, diag.ArrRewritten, source.Span{File: 2}, "other file").
			WithFix("x", diag.TextEdit{Span: source.Span{File: 2}, NewText: "z"}),
	}

	edits := EditsFor(diagnostics, 1)
	if len(edits) != 1 || edits[0].NewText != "one" {
		t.Fatalf("unexpected edits: %+v", edits)
	}

	f := ReplaceSpan("t", sp, "new", "old")
	if f.Edits[0].OldText != "old" || f.Edits[0].NewText != "new" {
		t.Fatalf("unexpected fix: %+v", f)
	}
}
