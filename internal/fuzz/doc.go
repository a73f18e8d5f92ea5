// Package fuzztests houses Go fuzz harnesses that exercise the ARRAY literal
// rewrite (source -> arraylit -> diagnostics). Its goal is to smoke test
// robustness and guard against panics or broken offsets on arbitrary inputs.
//
// Назначение: запускать fuzz-обработчики, которые загружают байты в FileSet и
// прогоняют их через arraylit.Normalize и arraylit.Report.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/arraylit, internal/diag,
// internal/testkit.

package fuzztests
