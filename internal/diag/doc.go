// Package diag defines the diagnostic model shared by the normalizer, the
// driver and the CLI.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – Info, Warning or Error (severity.go).
//   - Code – compact numeric identifier with a stable string form such as
//     ARR1001 or IO4002 (codes.go).
//   - Message – short human oriented text.
//   - Primary – the source.Span the finding points at.
//   - Notes – optional secondary spans with extra context.
//   - Fixes – optional Fix records; each is a list of TextEdit.
//
// The normalizer expresses every literal it rewrites as a Fix, so the same
// edits can be previewed by internal/diagfmt and applied by internal/fix.
//
// # Emitting diagnostics
//
// Producers talk to a Reporter. ReportBuilder (NewReportBuilder,
// ReportWarning, ...) collects notes and fixes before Emit. BagReporter stores
// into a Bag, which supports limits, sorting, deduplication and filtering.
//
// Package diag does no formatting and no IO.
package diag
