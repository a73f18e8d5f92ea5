package main

import (
	"fmt"
	"io"

	"github.com/mattn/go-runewidth"

	"seedfix/internal/observ"
)

// printTimings prints one aligned line per phase followed by the total.
func printTimings(out io.Writer, report observ.Report) {
	if out == nil || len(report.Phases) == 0 {
		return
	}
	width := runewidth.StringWidth("total")
	for _, p := range report.Phases {
		width = max(width, runewidth.StringWidth(p.Name))
	}
	for _, p := range report.Phases {
		line := fmt.Sprintf("%s %8.1f ms", runewidth.FillRight(p.Name, width), p.DurationMS)
		if p.Note != "" {
			line += "  (" + p.Note + ")"
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "%s %8.1f ms\n", runewidth.FillRight("total", width), report.TotalMS)
}
