package arraylit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedfix/internal/arraylit"
	"seedfix/internal/testkit"
)

func readTestdata(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	return data
}

func TestNormalizeSeedFileGolden(t *testing.T) {
	input := readTestdata(t, "seed_test_data_cvs.sql")
	want := readTestdata(t, "seed_test_data_cvs.golden")

	res, err := arraylit.Normalize(input, arraylit.Options{})
	require.NoError(t, err)
	require.NoError(t, testkit.CheckLiteralInvariants(res, input))

	assert.Equal(t, string(want), string(res.Content))
	assert.True(t, res.Changed)
	assert.Len(t, res.Literals, 6)
	assert.Equal(t, 5, res.Rewritten())
	assert.Equal(t, 1, res.Dropped(), "the unquoted English item is lost")
}

func TestNormalizeCanonicalSeedFileIsFixedPoint(t *testing.T) {
	input := readTestdata(t, "seed_test_data_cvs.canonical.sql")

	res, err := arraylit.Normalize(input, arraylit.Options{})
	require.NoError(t, err)
	require.NoError(t, testkit.CheckLiteralInvariants(res, input))
	assert.False(t, res.Changed)
	assert.Equal(t, 0, res.Rewritten())

	golden := readTestdata(t, "seed_test_data_cvs.golden")
	again, err := arraylit.Normalize(golden, arraylit.Options{})
	require.NoError(t, err)
	assert.False(t, again.Changed, "golden output must already be canonical")
}
