package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"seedfix/internal/arraylit"
	"seedfix/internal/config"
	"seedfix/internal/diagfmt"
	"seedfix/internal/driver"
	"seedfix/internal/observ"
	"seedfix/internal/version"
)

func init() {
	rootCmd.Flags().Bool("check", false, "report files that would change and exit 1 if any, without writing")
	rootCmd.Flags().Bool("stdout", false, "print rewritten content to stdout instead of rewriting files")
	rootCmd.Flags().String("format", "text", "result output format (text|json)")
	rootCmd.Flags().BoolP("verbose", "v", false, "list every rewritten file")
	rootCmd.Flags().String("diagnostics", "pretty", "diagnostics format on stderr (pretty|short|json|sarif|off)")
	rootCmd.Flags().String("path-mode", "auto", "path display in diagnostics (auto|absolute|relative|basename)")
	rootCmd.Flags().Bool("warnings-as-errors", false, "fail on warnings and write nothing")
	rootCmd.Flags().Bool("report-rewrites", false, "add a note for every rewritten literal")
	rootCmd.Flags().Bool("report-unchanged", false, "add a note for literals without quoted items")
	rootCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
	addNormalizeFlags(rootCmd)
	rootCmd.Flags().String("message", config.DefaultMessage, "completion message printed after a successful run")
}

// addNormalizeFlags registers the flags shared by every command that runs the driver.
func addNormalizeFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("jobs", "j", 0, "parallel workers (0 = number of CPUs)")
	cmd.Flags().StringSlice("ext", nil, "file extensions searched in directories (default .sql)")
	cmd.Flags().String("unicode", "none", "normalise item text (none|nfc|nfd)")
	cmd.Flags().Bool("cache", false, "skip files already known to be canonical")
}

// silentError marks a failure whose details were already printed.
type silentError struct{ err error }

func (e silentError) Error() string { return e.err.Error() }

func (e silentError) Unwrap() error { return e.err }

func isSilent(err error) bool {
	var s silentError
	return errors.As(err, &s)
}

var (
	errFilesFailed    = errors.New("some files could not be normalised")
	errChangesPending = errors.New("ARRAY literals need rewriting")
)

type normalizeFlags struct {
	check           bool
	stdout          bool
	format          string
	verbose         bool
	quiet           bool
	timings         bool
	warningsAsErr   bool
	reportRewrites  bool
	reportUnchanged bool
	pathMode        diagfmt.PathMode
	ui              uiMode
	maxDiagnostics  int
}

func readNormalizeFlags(cmd *cobra.Command) (*normalizeFlags, error) {
	var (
		f   normalizeFlags
		err error
	)
	if f.check, err = cmd.Flags().GetBool("check"); err != nil {
		return nil, err
	}
	if f.stdout, err = cmd.Flags().GetBool("stdout"); err != nil {
		return nil, err
	}
	if f.format, err = cmd.Flags().GetString("format"); err != nil {
		return nil, err
	}
	if f.verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
		return nil, err
	}
	if f.warningsAsErr, err = cmd.Flags().GetBool("warnings-as-errors"); err != nil {
		return nil, err
	}
	if f.reportRewrites, err = cmd.Flags().GetBool("report-rewrites"); err != nil {
		return nil, err
	}
	if f.reportUnchanged, err = cmd.Flags().GetBool("report-unchanged"); err != nil {
		return nil, err
	}
	pathMode, err := cmd.Flags().GetString("path-mode")
	if err != nil {
		return nil, err
	}
	if f.pathMode, err = diagfmt.ParsePathMode(pathMode); err != nil {
		return nil, err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, err
	}
	if f.ui, err = readUIMode(uiValue); err != nil {
		return nil, err
	}

	root := cmd.Root().PersistentFlags()
	if f.quiet, err = root.GetBool("quiet"); err != nil {
		return nil, err
	}
	if f.timings, err = root.GetBool("timings"); err != nil {
		return nil, err
	}
	if f.maxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return nil, err
	}

	switch f.format {
	case "text", "json":
	default:
		return nil, fmt.Errorf("unsupported output format %q (expected text|json)", f.format)
	}
	if f.stdout && f.check {
		return nil, errors.New("--stdout cannot be used with --check")
	}
	if f.stdout && f.format != "text" {
		return nil, errors.New("--stdout is only supported with text output")
	}
	return &f, nil
}

func runNormalize(cmd *cobra.Command, args []string) (err error) {
	flags, err := readNormalizeFlags(cmd)
	if err != nil {
		return err
	}
	s, err := resolveSettings(cmd, args)
	if err != nil {
		return err
	}
	if s.diagnostics != "off" {
		if _, err := diagfmt.ParseFormat(s.diagnostics); err != nil {
			return err
		}
	}

	tr, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tr.dumpRing("panic")
			tr.close(false)
			panic(r)
		}
		tr.close(err != nil)
	}()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	stdout := cmd.OutOrStdout()

	opts := driver.NormalizeOptions{
		Check:            flags.check,
		Stdout:           flags.stdout,
		Jobs:             s.jobs,
		Extensions:       s.extensions,
		Unicode:          s.unicode,
		Report:           arraylit.ReportOptions{Rewrites: flags.reportRewrites, Unchanged: flags.reportUnchanged},
		WarningsAsErrors: flags.warningsAsErr,
		MaxDiagnostics:   flags.maxDiagnostics,
		BaseDir:          baseDir(s),
		Timer:            observ.NewTimer(),
	}
	if s.cache {
		cache, cacheErr := driver.OpenDiskCache(driver.CacheApp)
		if cacheErr != nil {
			fmt.Fprintf(stderr, "seedfix: cache disabled: %v\n", cacheErr)
		} else {
			opts.Cache = cache
		}
	}

	files, err := driver.CollectFiles(ctx, s.paths, s.extensions)
	if err != nil {
		return err
	}

	var run *driver.Run
	if flags.format == "text" && !flags.stdout && !flags.quiet && shouldUseTUI(flags.ui, len(files)) {
		run, err = runNormalizeWithUI(ctx, "normalizing", files, opts)
	} else {
		run, err = driver.NormalizePaths(ctx, files, opts)
	}
	if err != nil {
		return err
	}

	if flags.format == "json" {
		if err := writeJSONReport(stdout, run, flags, s, opts.Timer); err != nil {
			return err
		}
	} else {
		if s.diagnostics != "off" {
			if err := writeDiagnostics(stderr, run, s, flags); err != nil {
				return err
			}
		}
		renderText(stdout, stderr, run, flags, s)
		if flags.timings {
			printTimings(stderr, opts.Timer.Report())
		}
	}

	switch {
	case run.Err != nil:
		return silentError{run.Err}
	case run.Failed():
		return silentError{errFilesFailed}
	case flags.check && run.Summary().Changed > 0:
		return silentError{errChangesPending}
	}
	return nil
}

func baseDir(s *settings) string {
	if s.fromFile && s.manifest != nil {
		return s.manifest.Root
	}
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

func diagnosticsOptions(flags *normalizeFlags, color bool) diagfmt.Options {
	return diagfmt.Options{
		Pretty: diagfmt.PrettyOpts{
			Color:       color,
			Context:     1,
			PathMode:    flags.pathMode,
			ShowNotes:   true,
			ShowFixes:   true,
			ShowPreview: true,
		},
		JSON: diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         flags.pathMode,
			Max:              flags.maxDiagnostics,
			IncludeNotes:     true,
			IncludeFixes:     true,
			IncludePreviews:  true,
		},
		Sarif: diagfmt.SarifRunMeta{
			ToolName:       "seedfix",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		},
	}
}

func writeDiagnostics(w io.Writer, run *driver.Run, s *settings, flags *normalizeFlags) error {
	if run.Bag == nil || run.Bag.Len() == 0 {
		return nil
	}
	format, err := diagfmt.ParseFormat(s.diagnostics)
	if err != nil {
		return err
	}
	color := useColor(s.color, os.Stderr)
	return diagfmt.Write(w, format, run.Bag, run.FileSet, diagnosticsOptions(flags, color))
}

// renderText prints the human-readable outcome: rewritten content in --stdout
// mode, changed paths in --check mode, otherwise the completion message.
func renderText(stdout, stderr io.Writer, run *driver.Run, flags *normalizeFlags, s *settings) {
	for i := range run.Files {
		res := &run.Files[i]
		if res.Err != nil {
			fmt.Fprintf(stderr, "seedfix: %s: %s\n", res.Path, res.ErrorText())
			continue
		}
		switch {
		case flags.stdout:
			if run.Err == nil {
				_, _ = stdout.Write(res.Output)
			}
		case flags.check:
			if res.Changed && !flags.quiet {
				fmt.Fprintln(stdout, res.Path)
			}
		case flags.verbose && res.Changed:
			fmt.Fprintf(stdout, "fixed %s (%d literals)\n", res.Path, res.Rewrites)
		}
	}
	if run.Err != nil {
		fmt.Fprintf(stderr, "seedfix: %v: no files were written\n", run.Err)
		return
	}
	if flags.stdout || flags.check || flags.quiet || run.Failed() {
		return
	}
	if s.message != "" {
		fmt.Fprintln(stdout, s.message)
	}
}

type fileReport struct {
	Path     string `json:"path"`
	Changed  bool   `json:"changed"`
	Cached   bool   `json:"cached,omitempty"`
	Literals int    `json:"literals"`
	Rewrites int    `json:"rewrites"`
	Dropped  int    `json:"dropped"`
	Error    string `json:"error,omitempty"`
}

type runReport struct {
	Check       bool                       `json:"check"`
	Summary     driver.Summary             `json:"summary"`
	Files       []fileReport               `json:"files"`
	Diagnostics *diagfmt.DiagnosticsOutput `json:"diagnostics,omitempty"`
	Timings     *observ.Report             `json:"timings,omitempty"`
	Error       string                     `json:"error,omitempty"`
}

func buildRunReport(run *driver.Run, flags *normalizeFlags, s *settings, timer *observ.Timer) runReport {
	report := runReport{
		Check:   flags.check,
		Summary: run.Summary(),
		Files:   make([]fileReport, 0, len(run.Files)),
	}
	for i := range run.Files {
		res := &run.Files[i]
		report.Files = append(report.Files, fileReport{
			Path:     res.Path,
			Changed:  res.Changed,
			Cached:   res.Cached,
			Literals: res.Literals,
			Rewrites: res.Rewrites,
			Dropped:  res.Dropped,
			Error:    res.ErrorText(),
		})
	}
	if s.diagnostics != "off" && run.Bag != nil {
		out := diagfmt.BuildDiagnosticsOutput(run.Bag.Items(), run.FileSet, diagnosticsOptions(flags, false).JSON)
		report.Diagnostics = &out
	}
	if flags.timings && timer != nil {
		t := timer.Report()
		report.Timings = &t
	}
	if run.Err != nil {
		report.Error = run.Err.Error()
	}
	return report
}

func writeJSONReport(w io.Writer, run *driver.Run, flags *normalizeFlags, s *settings, timer *observ.Timer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(buildRunReport(run, flags, s, timer))
}
