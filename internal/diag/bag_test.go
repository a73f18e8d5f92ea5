package diag

import (
	"testing"

	"seedfix/internal/source"
)

func TestBagLimitAndCounts(t *testing.T) {
	bag := NewBag(2)
	sp := source.Span{}

	if !bag.Add(New(SevInfo, ArrNoQuotedItems, sp, "a")) {
		t.Fatal("first Add must succeed")
	}
	if !bag.Add(New(SevWarning, ArrDroppedText, sp, "b")) {
		t.Fatal("second Add must succeed")
	}
	if bag.Add(New(SevError, IOLoadFileError, sp, "c")) {
		t.Fatal("third Add must be rejected by the limit")
	}
	if bag.HasErrors() {
		t.Error("HasErrors = true, want false")
	}
	if !bag.HasWarnings() {
		t.Error("HasWarnings = false, want true")
	}
	if got := bag.Count(SevInfo); got != 2 {
		t.Errorf("Count(SevInfo) = %d, want 2", got)
	}
}

func TestBagSortDedupFilter(t *testing.T) {
	bag := NewBag(10)
	bag.Add(New(SevInfo, ArrNoQuotedItems, source.Span{Start: 10, End: 12}, "late"))
	bag.Add(New(SevWarning, ArrDroppedText, source.Span{Start: 1, End: 3}, "early"))
	bag.Add(New(SevWarning, ArrDroppedText, source.Span{Start: 1, End: 3}, "early"))
	bag.Add(New(SevError, IOWriteFileError, source.Span{Start: 1, End: 3}, "io"))

	bag.Dedup()
	if bag.Len() != 3 {
		t.Fatalf("Len after Dedup = %d, want 3", bag.Len())
	}

	bag.Sort()
	items := bag.Items()
	if items[0].Code != IOWriteFileError || items[1].Code != ArrDroppedText || items[2].Code != ArrNoQuotedItems {
		t.Fatalf("unexpected order: %v, %v, %v", items[0].Code, items[1].Code, items[2].Code)
	}

	bag.Filter(func(d Diagnostic) bool { return d.Severity >= SevWarning })
	if bag.Len() != 2 {
		t.Fatalf("Len after Filter = %d, want 2", bag.Len())
	}

	bag.Transform(func(d Diagnostic) Diagnostic {
		if d.Severity == SevWarning {
			d.Severity = SevError
		}
		return d
	})
	if bag.Count(SevError) != 2 {
		t.Errorf("expected both diagnostics promoted to errors")
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(4)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 0, End: 5}

	b := ReportWarning(r, ArrDroppedText, sp, "dropped").
		WithNote(sp, "here").
		WithFix("rewrite", TextEdit{Span: sp, NewText: "x"})
	b.Emit()
	b.Emit()
	ReportWarning(r, ArrDroppedText, sp, "dropped").Emit()

	if bag.Len() != 1 {
		t.Fatalf("Len = %d, want 1", bag.Len())
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || len(d.Fixes) != 1 || d.Fixes[0].Edits[0].NewText != "x" {
		t.Fatalf("unexpected diagnostic payload: %+v", d)
	}
}

func TestCodeID(t *testing.T) {
	tests := map[Code]string{
		ArrDroppedText:    "ARR1001",
		IOInvalidEncoding: "IO4002",
		UnknownCode:       "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %q, want %q", code, got, want)
		}
	}
	if ArrRewritten.Title() == UnknownCode.Title() {
		t.Errorf("ArrRewritten must have its own title")
	}
}
