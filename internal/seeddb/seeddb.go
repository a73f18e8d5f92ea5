// Package seeddb executes normalised seed files against PostgreSQL.
package seeddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"seedfix/internal/trace"
)

// DriverName is the database/sql driver registered by lib/pq.
const DriverName = "postgres"

// ErrNoDSN is returned when neither a flag, the config nor the environment
// provides a connection string.
var ErrNoDSN = errors.New("no database DSN: pass --dsn, set [apply].dsn or DATABASE_URL")

// Script is one seed file ready to run.
type Script struct {
	Path string
	SQL  string
}

// Applied reports one executed script.
type Applied struct {
	Path    string
	Elapsed time.Duration
}

// ScriptError wraps the failure of one script.
type ScriptError struct {
	Path string
	SQL  string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, Describe(e.Err, e.SQL))
}

func (e *ScriptError) Unwrap() error { return e.Err }

// ConnString converts a postgres:// URL into lib/pq key=value form.
// Other non-empty values are passed through unchanged.
func ConnString(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", ErrNoDSN
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		conn, err := pq.ParseURL(dsn)
		if err != nil {
			return "", fmt.Errorf("invalid DSN: %w", err)
		}
		return conn, nil
	}
	if !strings.Contains(dsn, "=") {
		return "", fmt.Errorf("invalid DSN %q: expected postgres:// URL or key=value pairs", dsn)
	}
	return dsn, nil
}

// Open connects to PostgreSQL and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := ConnString(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(DriverName, conn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}
	return db, nil
}

// Apply runs every script in its own transaction, in order. It stops at the
// first failing script, whose transaction is rolled back; scripts before it
// stay committed.
func Apply(ctx context.Context, db *sql.DB, scripts []Script) ([]Applied, error) {
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "apply")
	defer span.End("")

	applied := make([]Applied, 0, len(scripts))
	for _, s := range scripts {
		start := time.Now()
		if err := applyOne(ctx, db, s); err != nil {
			span.WithExtra("failed", s.Path)
			return applied, err
		}
		applied = append(applied, Applied{Path: s.Path, Elapsed: time.Since(start)})
	}
	span.WithExtra("scripts", strconv.Itoa(len(applied)))
	return applied, nil
}

func applyOne(ctx context.Context, db *sql.DB, s Script) (err error) {
	span, ctx := trace.Start(ctx, trace.ScopeFile, "apply:"+s.Path)
	defer func() {
		detail := "committed"
		if err != nil {
			detail = "rolled back"
		}
		span.End(detail)
	}()

	if strings.TrimSpace(s.SQL) == "" {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &ScriptError{Path: s.Path, Err: fmt.Errorf("begin: %w", err)}
	}
	if _, err := tx.ExecContext(ctx, s.SQL); err != nil {
		_ = tx.Rollback()
		return &ScriptError{Path: s.Path, SQL: s.SQL, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &ScriptError{Path: s.Path, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// Describe formats err. Server errors carry their SQLSTATE and, when the
// server reports a position, the line and column inside script.
func Describe(err error, script string) string {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err.Error()
	}
	msg := fmt.Sprintf("%s %s: %s", pqErr.Severity, pqErr.Code, pqErr.Message)
	if pqErr.Severity == "" {
		msg = fmt.Sprintf("%s: %s", pqErr.Code, pqErr.Message)
	}
	if pos, convErr := strconv.Atoi(pqErr.Position); convErr == nil && pos > 0 {
		line, col := positionToLineCol(script, pos)
		msg += fmt.Sprintf(" (line %d, column %d)", line, col)
	}
	if pqErr.Detail != "" {
		msg += "; " + pqErr.Detail
	}
	return msg
}

// positionToLineCol converts the 1-based character position reported by the
// server into a 1-based line and column.
func positionToLineCol(script string, pos int) (line, col int) {
	line, col = 1, 1
	n := 0
	for _, r := range script {
		n++
		if n == pos {
			return line, col
		}
		if r == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
