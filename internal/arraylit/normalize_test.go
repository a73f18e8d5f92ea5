package arraylit

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedfix/internal/source"
)

func TestNormalizeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "no array literal",
			input:    "INSERT INTO t VALUES (1, 'x', \"y\");",
			expected: "INSERT INTO t VALUES (1, 'x', \"y\");",
		},
		{
			name:     "already canonical",
			input:    "ARRAY['a','b','c']",
			expected: "ARRAY['a','b','c']",
		},
		{
			name:     "double quoted items",
			input:    `ARRAY["x","y"]`,
			expected: "ARRAY['x','y']",
		},
		{
			name:     "unquoted item is dropped",
			input:    "ARRAY[foo,'bar']",
			expected: "ARRAY['bar']",
		},
		{
			name:     "no quoted items leaves literal unchanged",
			input:    "ARRAY[1,2,3]",
			expected: "ARRAY[1,2,3]",
		},
		{
			name:     "spaces after commas are removed",
			input:    "ARRAY['Skill A', 'Skill B', 'Skill C']",
			expected: "ARRAY['Skill A','Skill B','Skill C']",
		},
		{
			name:     "mismatched quotes still extract",
			input:    `ARRAY['a","b']`,
			expected: "ARRAY['a','b']",
		},
		{
			name:     "empty payload is not a match",
			input:    `ARRAY[] || ARRAY["z"]`,
			expected: `ARRAY[] || ARRAY['z']`,
		},
		{
			name:     "payload spanning lines",
			input:    "ARRAY[\n  \"one\",\n  \"two\"\n]",
			expected: "ARRAY['one','two']",
		},
		{
			name:     "lower case keyword is not touched",
			input:    `array["x"]`,
			expected: `array["x"]`,
		},
		{
			name:     "first closing bracket ends the literal",
			input:    `ARRAY["a]b"]`,
			expected: `ARRAY["a]b"]`,
		},
		{
			name:     "apostrophe inside double quotes splits the item",
			input:    `ARRAY["it's"]`,
			expected: "ARRAY['it']",
		},
		{
			name:     "several literals in one statement",
			input:    `INSERT INTO cvs VALUES (ARRAY["a"], '{"k": 1}'::jsonb, ARRAY[ 'b' , "c" ]);`,
			expected: `INSERT INTO cvs VALUES (ARRAY['a'], '{"k": 1}'::jsonb, ARRAY['b','c']);`,
		},
		{
			name:     "non ascii items",
			input:    `ARRAY["عربي","English"]`,
			expected: "ARRAY['عربي','English']",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeEmptyPayloadLiteral(t *testing.T) {
	// ARRAY[] has no payload, so the first match starts at the next ARRAY[.
	got, err := NormalizeString(`ARRAY[]`)
	require.NoError(t, err)
	assert.Equal(t, `ARRAY[]`, got)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		`ARRAY["x","y"]`,
		"ARRAY[foo,'bar'] and ARRAY[1,2]",
		"ARRAY['Skill A', \"Skill B\"]\nARRAY[\"it's\"]",
		`ARRAY['a","b'] ARRAY[ ]`,
	}
	for _, in := range inputs {
		once, err := NormalizeString(in)
		require.NoError(t, err)
		twice, err := NormalizeString(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice, "input %q", in)
	}
}

func TestNormalizeResult(t *testing.T) {
	content := []byte(`(ARRAY[foo,"bar"], ARRAY['ok'], ARRAY[1])`)
	res, err := Normalize(content, Options{})
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, `(ARRAY['bar'], ARRAY['ok'], ARRAY[1])`, string(res.Content))
	require.Len(t, res.Literals, 3)
	assert.Equal(t, 1, res.Rewritten())
	assert.Equal(t, 1, res.Dropped())
	assert.Equal(t, `(ARRAY[foo,"bar"], ARRAY['ok'], ARRAY[1])`, string(content), "input must not be modified")

	unchanged := res.Literals[2]
	assert.Empty(t, unchanged.Canonical)
	assert.False(t, unchanged.Changed())
}

func TestNormalizeUnchangedReturnsSameContent(t *testing.T) {
	content := []byte("ARRAY['a'] -- nothing to do")
	res, err := Normalize(content, Options{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, content, res.Content)
}

func TestNormalizeUnicodeForm(t *testing.T) {
	decomposed := "Cafe\u0301"
	content := []byte(`ARRAY["` + decomposed + `"]`)

	res, err := Normalize(content, Options{Unicode: UnicodeNFC})
	require.NoError(t, err)
	assert.Equal(t, "ARRAY['Caf\u00e9']", string(res.Content))

	res, err = Normalize(content, Options{})
	require.NoError(t, err)
	assert.Equal(t, "ARRAY['"+decomposed+"']", string(res.Content))
}

func TestParseUnicodeForm(t *testing.T) {
	for in, want := range map[string]UnicodeForm{"": UnicodeNone, "NFC": UnicodeNFC, " nfd ": UnicodeNFD, "none": UnicodeNone} {
		got, err := ParseUnicodeForm(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseUnicodeForm("nfkc")
	require.Error(t, err)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "ARRAY['a']", Canonical([]string{"a"}))
	assert.Equal(t, "ARRAY['a','b c']", Canonical([]string{"a", "b c"}))
}

func TestCheckSizeRejectsOversizedContent(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("lengths above MaxUint32 do not fit into int")
	}
	limit := int64(math.MaxUint32)
	require.NoError(t, checkSize(0))
	require.NoError(t, checkSize(int(limit)))

	err := checkSize(int(limit + 1))
	require.ErrorIs(t, err, source.ErrFileTooLarge)
}
