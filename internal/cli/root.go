// Package cli implements the vinv command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vinv-group/vinv-go/internal/metrics"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string
	metrics   bool
}

// app carries the state shared by one command invocation.
type app struct {
	flags   rootFlags
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func newApp() *app {
	return &app{
		metrics: metrics.New(),
		logger:  slog.New(slog.DiscardHandler),
	}
}

// NewRootCmd creates the top-level "vinv" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vinv",
		Short: "Maintain a schema-validated virtual tree inventory",
		Long: "vinv keeps a virtual inventory of tree records. Every change is\n" +
			"validated against the schema set selected by the document's version tag.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: platform data dir)")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default: config log_level or warn)")
	pf.BoolVar(&a.flags.metrics, "metrics", false, "print Prometheus metrics to stderr after the command")

	root.AddCommand(
		a.newInitCmd(),
		a.newAddCmd(),
		a.newShowCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newSchemaCmd(),
		a.newHistoryCmd(),
		a.newRestoreCmd(),
		a.newVersionsCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	a := newApp()
	os.Exit(a.execute(a.rootCmd(), os.Stderr))
}

// execute runs root and returns the process exit code. Errors and, when
// requested, metrics are written to stderr.
func (a *app) execute(root *cobra.Command, stderr io.Writer) int {
	err := root.Execute()
	if a.flags.metrics {
		if werr := a.metrics.WriteText(stderr); werr != nil {
			fmt.Fprintln(stderr, "vinv: metrics:", werr)
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, "vinv:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// sysError marks failures of the environment (disk, database, network)
// rather than of the user's input.
type sysError struct {
	err error
}

func (e *sysError) Error() string { return e.err.Error() }
func (e *sysError) Unwrap() error { return e.err }

// sysErrorf wraps a system failure with context.
func sysErrorf(format string, args ...any) error {
	return &sysError{err: fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var se *sysError
	if errors.As(err, &se) {
		return exitSysError
	}
	return exitUserError
}
