package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"seedfix/internal/diag"
	"seedfix/internal/source"
)

// Format selects one of the diagnostic renderers.
type Format string

const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
	FormatSarif  Format = "sarif"
	FormatShort  Format = "short"
)

// ParseFormat validates a --diagnostics value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPretty, FormatJSON, FormatSarif, FormatShort:
		return f, nil
	case "":
		return FormatPretty, nil
	default:
		return "", fmt.Errorf("unknown diagnostics format %q (expected: pretty|json|sarif|short)", s)
	}
}

// Options bundles what every renderer may need.
type Options struct {
	Pretty PrettyOpts
	JSON   JSONOpts
	Sarif  SarifRunMeta
}

// Write renders bag with the selected format.
func Write(w io.Writer, format Format, bag *diag.Bag, fs *source.FileSet, opts Options) error {
	switch format {
	case FormatJSON:
		return JSON(w, bag, fs, opts.JSON)
	case FormatSarif:
		return Sarif(w, bag, fs, opts.Sarif)
	case FormatShort:
		return Short(w, bag, fs, opts.Pretty.ShowNotes)
	default:
		Pretty(w, bag, fs, opts.Pretty)
		return nil
	}
}
