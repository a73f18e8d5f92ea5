package driver

import (
	"context"
	"os"
	"time"

	"seedfix/internal/diag"
	"seedfix/internal/source"
	"seedfix/internal/trace"
)

func writeResult(ctx context.Context, res *FileResult, opts NormalizeOptions) {
	if !res.Changed {
		return
	}
	start := time.Now()
	emit(opts.Progress, Event{File: res.Path, Stage: StageWrite, Status: StatusWorking})

	span, _ := trace.Start(ctx, trace.ScopeFile, "write:"+res.Path)
	err := writeSeedFile(res.Path, res.Output)
	span.End(changedDetail(err == nil))
	if err != nil {
		res.Err = err
		res.Changed = false
		diag.ReportError(diag.BagReporter{Bag: res.Bag}, diag.IOWriteFileError,
			source.Span{File: res.FileID}, "cannot write file: "+res.ErrorText()).Emit()
		emit(opts.Progress, Event{File: res.Path, Stage: StageWrite, Status: StatusError, Err: err, Elapsed: time.Since(start)})
		return
	}
}

// writeSeedFile rewrites path in place so symlinks keep pointing at the
// rewritten file and read-only files fail with a permission error.
func writeSeedFile(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	return os.WriteFile(path, data, mode.Perm())
}
