package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"seedfix/internal/diagfmt"
	"seedfix/internal/driver"
	"seedfix/internal/observ"
	"seedfix/internal/seeddb"
)

// dsnEnv is consulted when neither --dsn nor [apply].dsn is set.
const dsnEnv = "DATABASE_URL"

var applyCmd = &cobra.Command{
	Use:   "apply [flags] [path...]",
	Short: "Normalise seed files in memory and execute them against PostgreSQL",
	Long: `apply rewrites ARRAY literals like the root command but leaves the files on
disk untouched: the normalised text of each file is executed in its own
transaction, in path order. The first failing file is rolled back and stops
the run.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runApply,
}

func init() {
	applyCmd.Flags().String("dsn", "", "PostgreSQL connection string (postgres:// URL or key=value)")
	applyCmd.Flags().Bool("warnings-as-errors", false, "refuse to apply files with warnings")
	addNormalizeFlags(applyCmd)
}

func resolveDSN(flagOrConfig string) (string, error) {
	if dsn := strings.TrimSpace(flagOrConfig); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(os.Getenv(dsnEnv)); dsn != "" {
		return dsn, nil
	}
	return "", seeddb.ErrNoDSN
}

func runApply(cmd *cobra.Command, args []string) (err error) {
	s, err := resolveSettings(cmd, args)
	if err != nil {
		return err
	}
	dsn, err := resolveDSN(s.dsn)
	if err != nil {
		return err
	}
	warningsAsErr, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return err
	}
	root := cmd.Root().PersistentFlags()
	quiet, err := root.GetBool("quiet")
	if err != nil {
		return err
	}
	timings, err := root.GetBool("timings")
	if err != nil {
		return err
	}
	maxDiagnostics, err := root.GetInt("max-diagnostics")
	if err != nil {
		return err
	}

	tr, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { tr.close(err != nil) }()

	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	ctx := cmd.Context()
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	timer := observ.NewTimer()

	run, err := driver.NormalizePaths(ctx, s.paths, driver.NormalizeOptions{
		Stdout:           true,
		Jobs:             s.jobs,
		Extensions:       s.extensions,
		Unicode:          s.unicode,
		WarningsAsErrors: warningsAsErr,
		MaxDiagnostics:   maxDiagnostics,
		BaseDir:          baseDir(s),
		Timer:            timer,
	})
	if err != nil {
		return err
	}

	if s.diagnostics != "off" {
		flags := &normalizeFlags{pathMode: diagfmt.PathModeAuto, maxDiagnostics: maxDiagnostics}
		if err := writeDiagnostics(stderr, run, s, flags); err != nil {
			return err
		}
	}
	for i := range run.Files {
		if res := &run.Files[i]; res.Err != nil {
			fmt.Fprintf(stderr, "seedfix: %s: %s\n", res.Path, res.ErrorText())
		}
	}
	if run.Err != nil {
		fmt.Fprintf(stderr, "seedfix: %v: nothing was applied\n", run.Err)
		return silentError{run.Err}
	}
	if run.Failed() {
		return silentError{errFilesFailed}
	}

	db, err := seeddb.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	done := timer.Track("apply")
	applied, err := seeddb.Apply(ctx, db, scriptsOf(run))
	done(fmt.Sprintf("%d scripts", len(applied)))

	if !quiet {
		printApplied(stdout, applied)
	}
	if timings {
		printTimings(stderr, timer.Report())
	}
	return err
}

func scriptsOf(run *driver.Run) []seeddb.Script {
	scripts := make([]seeddb.Script, 0, len(run.Files))
	for i := range run.Files {
		res := &run.Files[i]
		scripts = append(scripts, seeddb.Script{Path: res.Path, SQL: string(res.Output)})
	}
	return scripts
}

func printApplied(out io.Writer, applied []seeddb.Applied) {
	for _, a := range applied {
		fmt.Fprintf(out, "applied %s (%s)\n", a.Path, a.Elapsed.Round(time.Millisecond))
	}
}
