package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestTemplateIsValid(t *testing.T) {
	p := writeConfig(t, t.TempDir(), Template())
	m, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(m.Root, "migrations", "seed_test_data_part5_cvs.sql")}, m.Config.Normalize.Paths)
	assert.Equal(t, DefaultMessage, m.Config.Output.Message)

	var raw map[string]any
	_, err = toml.Decode(Template(), &raw)
	require.NoError(t, err)
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "[normalize]\njobs = 4\nextensions = [\"psql\"]\n")
	m, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 4, m.Config.Normalize.Jobs)
	assert.Equal(t, []string{".psql"}, m.Config.Normalize.Extensions)
	assert.Equal(t, "pretty", m.Config.Output.Diagnostics)
	assert.Equal(t, "auto", m.Config.Output.Color)
	assert.Empty(t, m.Config.Normalize.Paths)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"syntax", "[normalize\n", "failed to parse TOML"},
		{"unknown key", "[normalize]\nthreads = 2\n", "unknown key normalize.threads"},
		{"negative jobs", "[normalize]\njobs = -1\n", "[normalize].jobs"},
		{"bad unicode", "[normalize]\nunicode = \"nfkc\"\n", "[normalize].unicode"},
		{"bad color", "[output]\ncolor = \"rainbow\"\n", "[output].color"},
		{"bad diagnostics", "[output]\ndiagnostics = \"xml\"\n", "[output].diagnostics"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeConfig(t, t.TempDir(), tt.body)
			_, err := Load(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), p)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDiagnosticsOffIsAccepted(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "[output]\ndiagnostics = \"off\"\n")
	_, err := Load(p)
	require.NoError(t, err)
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[normalize]\npaths = [\"seeds\", \"/abs/x.sql\"]\n")
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	m, ok, err := Discover(deep)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, FileName), m.Path)
	assert.Equal(t, []string{filepath.Join(root, "seeds"), filepath.FromSlash("/abs/x.sql")}, m.Config.Normalize.Paths)
}

func TestDiscoverNone(t *testing.T) {
	m, ok, err := Discover(t.TempDir())
	require.NoError(t, err)
	// a seedfix.toml above the temp dir would make this test meaningless
	if ok {
		t.Skip("seedfix.toml found above the temp dir")
	}
	assert.Equal(t, Default(), m.Config)
}
