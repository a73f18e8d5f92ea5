package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedfix/internal/diag"
	"seedfix/internal/fix"
	"seedfix/internal/source"
)

const seed = "INSERT INTO cv VALUES (\n  ARRAY[foo,'bar']\n);\n"

func seedBag(t *testing.T) (*source.FileSet, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("migrations/seed.sql", []byte(seed))

	lit := source.Span{File: id, Start: 26, End: 42}
	require.Equal(t, "ARRAY[foo,'bar']", seed[lit.Start:lit.End])

	rewrite := fix.ReplaceSpan("rewrite as ARRAY['bar']", lit, "ARRAY['bar']", "ARRAY[foo,'bar']")
	d := diag.New(diag.SevWarning, diag.ArrDroppedText, source.Span{File: id, Start: 32, End: 35},
		`unquoted item "foo" is dropped from ARRAY literal`).
		WithNote(lit, "literal becomes ARRAY['bar']").
		WithFix(rewrite.Title, rewrite.Edits...)

	bag := diag.NewBag(8)
	bag.Add(d)
	return fs, bag
}

func TestPrettyFull(t *testing.T) {
	fs, bag := seedBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true, ShowPreview: true})

	want := strings.Join([]string{
		`migrations/seed.sql:2:9: WARNING ARR1001: unquoted item "foo" is dropped from ARRAY literal`,
		` 2 |   ARRAY[foo,'bar']`,
		`   |         ^~~`,
		`  note: migrations/seed.sql:2:3: literal becomes ARRAY['bar']`,
		`  fix: rewrite as ARRAY['bar']`,
		`    -   ARRAY[foo,'bar']`,
		`    +   ARRAY['bar']`,
		``,
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestPrettyContextAndWidth(t *testing.T) {
	fs, bag := seedBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1, Width: 10})

	out := buf.String()
	assert.Contains(t, out, " 1 | INSERT ...\n")
	assert.Contains(t, out, " 3 | );\n")
	assert.NotContains(t, out, "note:")
	assert.NotContains(t, out, "fix:")
}

func TestPrettyPathModes(t *testing.T) {
	fs := source.NewFileSetWithBase("/home/user/project")
	id := fs.AddVirtual("/home/user/project/migrations/seed.sql", []byte("ARRAY[x]\n"))
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevInfo, diag.ArrNoQuotedItems, source.Span{File: id, Start: 0, End: 8}, "no quoted items"))

	tests := []struct {
		mode PathMode
		want string
	}{
		{PathModeAbsolute, "/home/user/project/migrations/seed.sql:1:1"},
		{PathModeRelative, "migrations/seed.sql:1:1"},
		{PathModeBasename, "seed.sql:1:1"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode})
		assert.True(t, strings.HasPrefix(buf.String(), tt.want+": INFO ARR1003"), buf.String())
	}
}

func TestUnderlineWideRunes(t *testing.T) {
	line := "ARRAY['日本', x]"
	start := source.LineCol{Line: 1, Col: uint32(strings.Index(line, "x") + 1)}
	end := source.LineCol{Line: 1, Col: start.Col + 1}
	assert.Equal(t, strings.Repeat(" ", 14)+"^", underline(line, start, end))
}

func TestJSON(t *testing.T) {
	fs, bag := seedBag(t)
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, bag, fs, JSONOpts{
		IncludePositions: true,
		IncludeNotes:     true,
		IncludeFixes:     true,
		IncludePreviews:  true,
	}))

	var out DiagnosticsOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, 1, out.Count)
	d := out.Diagnostics[0]
	assert.Equal(t, "WARNING", d.Severity)
	assert.Equal(t, "ARR1001", d.Code)
	assert.Equal(t, LocationJSON{File: "migrations/seed.sql", StartByte: 32, EndByte: 35, StartLine: 2, StartCol: 9, EndLine: 2, EndCol: 12}, d.Location)
	require.Len(t, d.Notes, 1)
	require.Len(t, d.Fixes, 1)
	require.Len(t, d.Fixes[0].Edits, 1)
	assert.Equal(t, "ARRAY['bar']", d.Fixes[0].Edits[0].NewText)
	assert.Equal(t, []string{"  ARRAY['bar']"}, d.Fixes[0].Edits[0].AfterLines)
}

func TestJSONMax(t *testing.T) {
	fs, bag := seedBag(t)
	bag.Add(bag.Items()[0])
	out := BuildDiagnosticsOutput(bag.Items(), fs, JSONOpts{Max: 1})
	assert.Equal(t, 1, out.Count)
	assert.Empty(t, out.Diagnostics[0].Notes)
}

func TestSarif(t *testing.T) {
	fs, bag := seedBag(t)
	var buf bytes.Buffer
	require.NoError(t, Sarif(&buf, bag, fs, SarifRunMeta{ToolName: "seedfix", ToolVersion: "1.0.0", InvocationArgs: []string{"seedfix", "--check"}}))

	var log map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &log))
	assert.Equal(t, "2.1.0", log["version"])

	runs := log["runs"].([]any)
	require.Len(t, runs, 1)
	run := runs[0].(map[string]any)
	results := run["results"].([]any)
	require.Len(t, results, 1)
	res := results[0].(map[string]any)
	assert.Equal(t, "ARR1001", res["ruleId"])
	assert.Equal(t, "warning", res["level"])
	assert.Len(t, res["fixes"], 1)
}

func TestShort(t *testing.T) {
	fs, bag := seedBag(t)
	var buf bytes.Buffer
	require.NoError(t, Short(&buf, bag, fs, false))
	assert.Equal(t, "warning ARR1001 migrations/seed.sql:2:9 unquoted item \"foo\" is dropped from ARRAY literal\n", buf.String())
}

func TestWriteDispatch(t *testing.T) {
	fs, bag := seedBag(t)
	for _, name := range []string{"pretty", "json", "sarif", "short", ""} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, f, bag, fs, Options{}))
		assert.NotEmpty(t, buf.String(), name)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
