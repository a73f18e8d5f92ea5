package driver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"seedfix/internal/arraylit"
	"seedfix/internal/diag"
	"seedfix/internal/observ"
	"seedfix/internal/source"
	"seedfix/internal/trace"
)

// ErrWarningsAsErrors is set on a run that was stopped before writing because
// warnings were promoted to errors.
var ErrWarningsAsErrors = errors.New("warnings treated as errors")

// NormalizeOptions configures a run over seed files.
type NormalizeOptions struct {
	// Check reports which files would change without writing them.
	Check bool
	// Stdout returns rewritten content in FileResult.Output instead of writing.
	Stdout bool
	// Jobs bounds the worker pool; 0 means GOMAXPROCS.
	Jobs       int
	Extensions []string
	Unicode    arraylit.UnicodeForm
	Report     arraylit.ReportOptions
	// WarningsAsErrors promotes warnings to errors and then writes nothing.
	WarningsAsErrors bool
	MaxDiagnostics   int
	BaseDir          string
	Cache            *DiskCache
	Progress         ProgressSink
	Timer            *observ.Timer
}

// FileResult captures the outcome for a single file.
type FileResult struct {
	Path     string
	FileID   source.FileID
	Loaded   bool
	Changed  bool
	Cached   bool
	Literals int
	Rewrites int
	Dropped  int
	Output   []byte
	Bag      *diag.Bag
	Err      error
}

// ErrorText returns Err without the path prefix that os and source add.
func (r *FileResult) ErrorText() string {
	if r.Err == nil {
		return ""
	}
	var pe *fs.PathError
	if errors.As(r.Err, &pe) {
		return pe.Err.Error()
	}
	var encErr *source.EncodingError
	if errors.As(r.Err, &encErr) {
		return fmt.Sprintf("invalid UTF-8 at byte offset %d", encErr.Offset)
	}
	if errors.Is(r.Err, source.ErrFileTooLarge) {
		return source.ErrFileTooLarge.Error()
	}
	return r.Err.Error()
}

// Run is the outcome of NormalizePaths.
type Run struct {
	FileSet *source.FileSet
	Files   []FileResult
	// Bag holds the diagnostics of all files, sorted.
	Bag *diag.Bag
	// Err is ErrWarningsAsErrors when writing was suppressed.
	Err error
}

// Summary aggregates per-file counters.
type Summary struct {
	Files    int `json:"files"`
	Changed  int `json:"changed"`
	Cached   int `json:"cached"`
	Literals int `json:"literals"`
	Rewrites int `json:"rewrites"`
	Dropped  int `json:"dropped"`
	Errors   int `json:"errors"`
}

// Summary counts files, rewrites and failures of the run.
func (r *Run) Summary() Summary {
	var s Summary
	if r == nil {
		return s
	}
	for i := range r.Files {
		f := &r.Files[i]
		s.Files++
		if f.Changed {
			s.Changed++
		}
		if f.Cached {
			s.Cached++
		}
		if f.Err != nil {
			s.Errors++
		}
		s.Literals += f.Literals
		s.Rewrites += f.Rewrites
		s.Dropped += f.Dropped
	}
	return s
}

// Failed reports whether any file failed or writing was suppressed.
func (r *Run) Failed() bool {
	if r == nil {
		return false
	}
	return r.Err != nil || r.Summary().Errors > 0
}

// NormalizePaths rewrites every ARRAY literal in the files under paths.
// Per-file failures are recorded in FileResult.Err and never stop other
// files; the returned error is reserved for collection failures and
// context cancellation.
func NormalizePaths(ctx context.Context, paths []string, opts NormalizeOptions) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		paths = []string{DefaultTarget}
	}

	span, ctx := trace.Start(ctx, trace.ScopeDriver, "normalize")
	defer span.End("")

	var files []string
	if err := timed(opts.Timer, "collect", func() (string, error) {
		var err error
		files, err = CollectFiles(ctx, paths, opts.Extensions)
		return fmt.Sprintf("%d files", len(files)), err
	}); err != nil {
		return nil, err
	}
	span.WithExtra("files", strconv.Itoa(len(files)))

	for _, f := range files {
		emit(opts.Progress, Event{File: f, Stage: StageLoad, Status: StatusQueued})
	}

	fileSet := source.NewFileSetWithBase(opts.BaseDir)
	results := make([]FileResult, len(files))
	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 256
	}

	// FileSet не потокобезопасен: загружаем последовательно, обрабатываем параллельно
	_ = timed(opts.Timer, "load", func() (string, error) {
		for i, path := range files {
			results[i] = FileResult{Path: path, Bag: diag.NewBag(maxDiag)}
			loadFile(fileSet, &results[i])
			if results[i].Err != nil {
				emit(opts.Progress, Event{File: path, Stage: StageLoad, Status: StatusError, Err: results[i].Err})
			}
		}
		return "", nil
	})

	if err := timed(opts.Timer, "normalize", func() (string, error) {
		return "", forEachLoaded(ctx, results, opts.Jobs, func(ctx context.Context, res *FileResult) {
			normalizeFile(ctx, fileSet, res, opts)
		})
	}); err != nil {
		return nil, err
	}

	run := &Run{FileSet: fileSet, Files: results}

	if opts.WarningsAsErrors && promoteWarnings(results) {
		run.Err = ErrWarningsAsErrors
		for i := range results {
			results[i].Output = nil
		}
	}

	if run.Err == nil && !opts.Check && !opts.Stdout {
		if err := timed(opts.Timer, "write", func() (string, error) {
			return "", forEachLoaded(ctx, results, opts.Jobs, func(ctx context.Context, res *FileResult) {
				writeResult(ctx, res, opts)
			})
		}); err != nil {
			return nil, err
		}
	}

	for i := range results {
		res := &results[i]
		status := StatusDone
		if res.Err != nil {
			status = StatusError
		}
		emit(opts.Progress, Event{File: res.Path, Stage: StageWrite, Status: status, Changed: res.Changed, Err: res.Err})
	}

	run.Bag = diag.NewBag(maxDiag)
	for i := range results {
		run.Bag.Merge(results[i].Bag)
	}
	run.Bag.Sort()
	return run, nil
}

func loadFile(fileSet *source.FileSet, res *FileResult) {
	id, err := fileSet.Load(res.Path)
	if err == nil {
		res.FileID = id
		res.Loaded = true
		return
	}

	// пустой виртуальный файл, чтобы диагностике было к чему привязаться
	res.FileID = fileSet.AddVirtual(res.Path, nil)
	anchor := source.Span{File: res.FileID}
	var encErr *source.EncodingError
	switch {
	case errors.As(err, &encErr):
		res.Err = err
		diag.ReportError(diag.BagReporter{Bag: res.Bag}, diag.IOInvalidEncoding, anchor,
			fmt.Sprintf("file is not valid UTF-8: first invalid byte at offset %d", encErr.Offset)).Emit()
	default:
		res.Err = err
		diag.ReportError(diag.BagReporter{Bag: res.Bag}, diag.IOLoadFileError, anchor,
			"cannot read file: "+res.ErrorText()).Emit()
	}
}

// forEachLoaded runs fn for every loaded file without an error on a bounded
// pool. Each worker writes only into its own slot of results.
func forEachLoaded(ctx context.Context, results []FileResult, jobs int, fn func(context.Context, *FileResult)) error {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if len(results) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(results)))
	for i := range results {
		res := &results[i]
		if !res.Loaded || res.Err != nil {
			continue
		}
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(gctx, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func normalizeFile(ctx context.Context, fileSet *source.FileSet, res *FileResult, opts NormalizeOptions) {
	start := time.Now()
	emit(opts.Progress, Event{File: res.Path, Stage: StageNormalize, Status: StatusWorking})

	span, ctx := trace.Start(ctx, trace.ScopeFile, "file:"+res.Path)
	defer func() {
		span.WithExtra("rewrites", strconv.Itoa(res.Rewrites))
		span.End(changedDetail(res.Changed))
	}()

	file := fileSet.Get(res.FileID)
	key := cacheKey(file, opts)
	if opts.Cache != nil && !opts.Stdout {
		var v Verdict
		if ok, err := opts.Cache.Get(key, &v); err == nil && ok {
			res.Cached = true
			res.Literals = v.Literals
			trace.Point(trace.FromContext(ctx), trace.ScopeFile, "cache-hit", res.Path, span.ID())
			emit(opts.Progress, Event{File: res.Path, Stage: StageNormalize, Status: StatusDone, Elapsed: time.Since(start)})
			return
		}
	}

	out, err := arraylit.Normalize(file.Content, arraylit.Options{Unicode: opts.Unicode})
	if err != nil {
		res.Err = err
		emit(opts.Progress, Event{File: res.Path, Stage: StageNormalize, Status: StatusError, Err: err})
		return
	}

	tracer := trace.FromContext(ctx)
	if tracer.Level().ShouldEmit(trace.ScopeLiteral) {
		for i := range out.Literals {
			lit := &out.Literals[i]
			if lit.Changed() {
				trace.Point(tracer, trace.ScopeLiteral, "rewrite", lit.Canonical, span.ID())
			}
		}
	}

	arraylit.Report(out, res.FileID, diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag}), opts.Report)

	res.Changed = out.Changed
	res.Literals = len(out.Literals)
	res.Rewrites = out.Rewritten()
	res.Dropped = out.Dropped()
	res.Output = out.Content

	if opts.Cache != nil && !res.Changed && res.Bag.Len() == 0 {
		// ошибка кэша не должна ронять прогон
		_ = opts.Cache.Put(key, &Verdict{Path: res.Path, Literals: res.Literals, Checked: time.Now()})
	}
	emit(opts.Progress, Event{File: res.Path, Stage: StageNormalize, Status: StatusDone, Changed: res.Changed, Elapsed: time.Since(start)})
}

func cacheKey(file *source.File, opts NormalizeOptions) Digest {
	return combineDigest(file.Hash,
		string(opts.Unicode),
		strconv.FormatBool(opts.Report.Rewrites),
		strconv.FormatBool(opts.Report.Unchanged))
}

// promoteWarnings turns warnings into errors and reports whether any existed.
func promoteWarnings(results []FileResult) bool {
	found := false
	for i := range results {
		bag := results[i].Bag
		if bag == nil || !bag.HasWarnings() {
			continue
		}
		bag.Transform(func(d diag.Diagnostic) diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
				found = true
			}
			return d
		})
	}
	return found
}

func changedDetail(changed bool) string {
	if changed {
		return "changed"
	}
	return "unchanged"
}

func timed(t *observ.Timer, name string, fn func() (string, error)) error {
	if t == nil {
		_, err := fn()
		return err
	}
	done := t.Track(name)
	note, err := fn()
	done(note)
	return err
}
