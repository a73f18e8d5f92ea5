package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"seedfix/internal/diag"
	"seedfix/internal/source"
)

type palette struct {
	err, warn, info, note, code, gutter, caret, added, removed, path *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		note:    color.New(color.FgBlue, color.Bold),
		code:    color.New(color.Bold),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgGreen, color.Bold),
		added:   color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		path:    color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.gutter, p.caret, p.added, p.removed, p.path} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// затем строки исходника с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil || fs == nil {
		return
	}
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, p)
	}
}

func prettyOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	f := fs.Get(d.Primary.File)
	if f == nil {
		fmt.Fprintf(w, "%s %s: %s\n", p.severity(d.Severity).Sprint(d.Severity), p.code.Sprint(d.Code.ID()), d.Message)
		return
	}
	start, end := fs.Resolve(d.Primary)
	path := formatPath(fs, f, opts.PathMode)

	fmt.Fprintf(w, "%s: %s %s: %s\n",
		p.path.Sprintf("%s:%d:%d", path, start.Line, start.Col),
		p.severity(d.Severity).Sprint(d.Severity),
		p.code.Sprint(d.Code.ID()),
		d.Message)

	writeSnippet(w, f, start, end, opts, p)

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			if nf == nil {
				fmt.Fprintf(w, "  %s: %s\n", p.note.Sprint("note"), n.Msg)
				continue
			}
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s: %s:%d:%d: %s\n", p.note.Sprint("note"), formatPath(fs, nf, opts.PathMode), ns.Line, ns.Col, n.Msg)
		}
	}

	if opts.ShowFixes {
		for _, fx := range d.Fixes {
			fmt.Fprintf(w, "  %s: %s\n", p.caret.Sprint("fix"), fx.Title)
			if !opts.ShowPreview {
				continue
			}
			for _, edit := range fx.Edits {
				preview, err := buildFixEditPreview(fs, edit)
				if err != nil {
					continue
				}
				for _, line := range preview.before {
					fmt.Fprintf(w, "    %s\n", p.removed.Sprint("- "+clip(line, opts.Width)))
				}
				for _, line := range preview.after {
					fmt.Fprintf(w, "    %s\n", p.added.Sprint("+ "+clip(line, opts.Width)))
				}
			}
		}
	}
}

func writeSnippet(w io.Writer, f *source.File, start, end source.LineCol, opts PrettyOpts, p palette) {
	ctx := uint32(max(opts.Context, 0))
	first := uint32(1)
	if start.Line > ctx {
		first = start.Line - ctx
	}
	last := start.Line + ctx
	if maxLine := uint32(len(f.LineIdx)) + 1; last > maxLine { //nolint:gosec // длина проверена при загрузке
		last = maxLine
	}

	gutterWidth := len(strconv.FormatUint(uint64(last), 10))
	blank := strings.Repeat(" ", gutterWidth)

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(ln)
		fmt.Fprintf(w, " %s %s %s\n", p.gutter.Sprintf("%*d", gutterWidth, ln), p.gutter.Sprint("|"), clip(text, opts.Width))
		if ln != start.Line {
			continue
		}
		fmt.Fprintf(w, " %s %s %s\n", blank, p.gutter.Sprint("|"), p.caret.Sprint(underline(text, start, end)))
	}
}

// underline returns the padding and ^~~~ marker for a span that starts on
// line. Spans continuing past the line are marked up to its end.
func underline(line string, start, end source.LineCol) string {
	startIdx := min(int(start.Col-1), len(line))
	endIdx := len(line)
	if end.Line == start.Line {
		endIdx = min(int(end.Col-1), len(line))
	}
	if endIdx < startIdx {
		endIdx = startIdx
	}

	var sb strings.Builder
	for _, r := range line[:startIdx] {
		if r == '\t' {
			sb.WriteByte('\t')
			continue
		}
		sb.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := runewidth.StringWidth(line[startIdx:endIdx])
	sb.WriteByte('^')
	if width > 1 {
		sb.WriteString(strings.Repeat("~", width-1))
	}
	return sb.String()
}

func clip(s string, width uint8) string {
	if width == 0 {
		return s
	}
	return runewidth.Truncate(s, int(width), "...")
}
