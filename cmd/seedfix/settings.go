package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"seedfix/internal/arraylit"
	"seedfix/internal/config"
	"seedfix/internal/driver"
)

// settings is the effective configuration of one invocation:
// flags override seedfix.toml, which overrides the defaults.
type settings struct {
	manifest    *config.Manifest
	fromFile    bool
	paths       []string
	extensions  []string
	jobs        int
	unicode     arraylit.UnicodeForm
	cache       bool
	color       string
	diagnostics string // pretty|short|json|sarif|off
	message     string
	dsn         string
}

func loadManifest(cmd *cobra.Command) (*config.Manifest, bool, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, false, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		m, err := config.Load(path)
		if err != nil {
			return nil, false, err
		}
		return m, true, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, false, err
	}
	return config.Discover(wd)
}

func resolveSettings(cmd *cobra.Command, args []string) (*settings, error) {
	manifest, found, err := loadManifest(cmd)
	if err != nil {
		return nil, err
	}
	s, err := layerSettings(manifest.Config, cmd.Flags(), args)
	if err != nil {
		return nil, err
	}
	s.manifest = manifest
	s.fromFile = found
	return s, nil
}

// layerSettings applies changed flags and positional paths on top of cfg.
// Flags that a command does not define are ignored.
func layerSettings(cfg config.Config, flags *pflag.FlagSet, args []string) (*settings, error) {
	s := &settings{
		paths:       cfg.Normalize.Paths,
		extensions:  cfg.Normalize.Extensions,
		jobs:        cfg.Normalize.Jobs,
		cache:       cfg.Normalize.Cache,
		color:       cfg.Output.Color,
		diagnostics: cfg.Output.Diagnostics,
		message:     cfg.Output.Message,
		dsn:         cfg.Apply.DSN,
	}
	unicode := cfg.Normalize.Unicode

	var err error
	if changed(flags, "jobs") {
		if s.jobs, err = flags.GetInt("jobs"); err != nil {
			return nil, err
		}
		if s.jobs < 0 {
			return nil, fmt.Errorf("--jobs must be >= 0, got %d", s.jobs)
		}
	}
	if changed(flags, "ext") {
		exts, err := flags.GetStringSlice("ext")
		if err != nil {
			return nil, err
		}
		s.extensions = normalizeExtensions(exts)
	}
	if changed(flags, "unicode") {
		if unicode, err = flags.GetString("unicode"); err != nil {
			return nil, err
		}
	}
	if changed(flags, "cache") {
		if s.cache, err = flags.GetBool("cache"); err != nil {
			return nil, err
		}
	}
	if changed(flags, "color") {
		if s.color, err = flags.GetString("color"); err != nil {
			return nil, err
		}
	}
	if changed(flags, "diagnostics") {
		if s.diagnostics, err = flags.GetString("diagnostics"); err != nil {
			return nil, err
		}
	}
	if changed(flags, "message") {
		if s.message, err = flags.GetString("message"); err != nil {
			return nil, err
		}
	}
	if changed(flags, "dsn") {
		if s.dsn, err = flags.GetString("dsn"); err != nil {
			return nil, err
		}
	}

	if s.unicode, err = arraylit.ParseUnicodeForm(unicode); err != nil {
		return nil, err
	}
	switch s.color {
	case "", "auto", "on", "off":
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", s.color)
	}
	if len(s.extensions) == 0 {
		s.extensions = driver.DefaultExtensions
	}

	switch {
	case len(args) > 0:
		s.paths = args
	case len(s.paths) == 0:
		s.paths = []string{driver.DefaultTarget}
	}
	return s, nil
}

// changed reports whether name exists in flags and was set explicitly.
func changed(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// useColor resolves auto|on|off against the terminal.
func useColor(mode string, f *os.File) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(f)
	}
}
