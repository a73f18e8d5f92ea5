package arraylit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanOffsets(t *testing.T) {
	content := []byte(`x ARRAY[foo, "bar", 'baz'] y`)
	lits := Scan(content)
	require.Len(t, lits, 1)

	lit := lits[0]
	assert.Equal(t, `ARRAY[foo, "bar", 'baz']`, lit.Text)
	assert.Equal(t, 2, lit.Start)
	assert.Equal(t, len(content)-2, lit.End)
	assert.Equal(t, `foo, "bar", 'baz'`, string(content[lit.PayloadStart:lit.PayloadEnd]))

	require.Len(t, lit.Items, 2)
	assert.Equal(t, "bar", lit.Items[0].Text)
	assert.Equal(t, `"bar"`, string(content[lit.Items[0].Start:lit.Items[0].End]))
	assert.Equal(t, byte('\''), lit.Items[1].Open)

	require.Len(t, lit.Dropped, 1)
	assert.Equal(t, "foo", lit.Dropped[0].Text)
	assert.Equal(t, "foo", string(content[lit.Dropped[0].Start:lit.Dropped[0].End]))
}

func TestScanDroppedPieces(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		dropped []string
	}{
		{"clean", `ARRAY['a', "b"]`, nil},
		{"leading and trailing", `ARRAY[1, 'a', 2 ,3]`, []string{"1", "2", "3"}},
		{"glued to item", `ARRAY[x'a'y]`, []string{"x", "y"}},
		{"broken quote", `ARRAY["it's"]`, []string{`s"`}},
		{"blank pieces ignored", "ARRAY[ ,\n, 'a' ,, ]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lits := Scan([]byte(tt.input))
			require.Len(t, lits, 1)
			var got []string
			for _, seg := range lits[0].Dropped {
				got = append(got, seg.Text)
			}
			assert.Equal(t, tt.dropped, got)
		})
	}
}

func TestScanNoLiterals(t *testing.T) {
	assert.Nil(t, Scan([]byte("SELECT 'ARRAY' FROM t;")))
	assert.Nil(t, Scan(nil))
}
