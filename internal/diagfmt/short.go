package diagfmt

import (
	"io"

	"seedfix/internal/diag"
	"seedfix/internal/source"
)

// Short prints one line per diagnostic, sorted by location.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, includeNotes bool) error {
	if bag == nil {
		return nil
	}
	out := diag.FormatShortDiagnostics(bag.Items(), fs, includeNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
