package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrgeneko/namknob"
	"github.com/mrgeneko/namknob/internal/config"
	"github.com/mrgeneko/namknob/internal/logging"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitUsage    = 2
	exitPartial  = 3
	exitDelivery = 4
)

// exitError carries a process exit code. Its message has already been
// reported when silent is set.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

type app struct {
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	flags := &exportFlags{}

	root := &cobra.Command{
		Use:   "namknob",
		Short: "Batch-adjust the output gain of NAM capture files",
		Long: `namknob rescales the output of Neural Amp Modeler captures by one or more
gain values and writes one capture per (file, gain) pair.

When a batch produces more than one file and archiving is enabled, the
outputs are bundled into a single uncompressed zip.

Running namknob without a subcommand is the same as "namknob export".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, flags)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "namknob.yaml", "Config file (optional)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.register(root)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &exitError{code: exitUsage, err: err}
	})

	root.AddCommand(newExportCmd(a))
	root.AddCommand(newPreviewCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newHistoryCmd(a))
	root.AddCommand(newConfigCmd(a))

	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(cfg.Env, level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if !ee.silent {
			fmt.Fprintln(stderr, "Error:", ee.err)
		}
		return ee.code
	}

	fmt.Fprintln(stderr, "Error:", err)
	return exitFailure
}

// gateExit maps an error returned before processing to its exit code.
func gateExit(err error) error {
	if errorx.IsOfType(err, namknob.ParseError) ||
		errorx.IsOfType(err, namknob.ValidationError) ||
		errorx.IsOfType(err, namknob.NoInputError) {
		return &exitError{code: exitUsage, err: err, silent: true}
	}
	return &exitError{code: exitFailure, err: err, silent: true}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
