package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mrgeneko/namknob"
	"github.com/mrgeneko/namknob/internal/delivery"
	"github.com/mrgeneko/namknob/internal/gain"
	"github.com/mrgeneko/namknob/internal/source"
	"github.com/mrgeneko/namknob/internal/status"
	"github.com/mrgeneko/namknob/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Export every capture that appears in DIR",
		Long: `Watches DIR and runs one export batch for each .nam file that is created
or rewritten there, until interrupted. Outputs must go to a different
directory so they do not retrigger the watcher.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, flags, args[0])
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&flags.outputDir, "output-dir", "o", "", "Output directory (default from config)")
	fs.StringVar(&flags.gainDB, "gain-db", "", "Comma-separated gains in dB, at most +9")
	fs.StringVar(&flags.gainLinear, "gain-linear", "", "Comma-separated linear gains in (0, 2.81838]")
	fs.BoolVar(&flags.noArchive, "no-archive", false, "Never bundle outputs into a zip")

	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, flags *exportFlags, dir string) error {
	if err := flags.check(cmd); err != nil {
		return err
	}
	reporter := status.NewReporter(cmd.ErrOrStderr())

	raw, unit := flags.gains(cmd)
	gains, err := gain.Parse(raw)
	if err == nil {
		err = gain.Validate(gains, unit)
	}
	if err != nil {
		reporter.Error(err)
		return gateExit(err)
	}

	outDir := flags.outputDir
	if outDir == "" {
		outDir = a.cfg.Output.Dir
	}
	if same, err := sameDir(dir, outDir); err != nil {
		return err
	} else if same {
		return &exitError{code: exitUsage, err: fmt.Errorf("output dir must differ from watched dir %s", dir)}
	}

	tel, closeTel, err := a.telemetry()
	if err != nil {
		return err
	}
	defer closeTel()

	controller := a.controller(delivery.NewNotifying(delivery.NewDir(outDir), tel), tel, flags.noArchive, reporter)

	w := watch.New(dir, func(ctx context.Context, path string) {
		report, err := controller.Export(ctx, namknob.Request{
			Files: []namknob.InputFile{source.NewFile(path)},
			Gains: raw,
			Unit:  unit,
		})
		if err != nil {
			reporter.Error(err)
			return
		}
		if err := reportExit(reporter, report); err != nil {
			a.logger.Debug("batch incomplete", zap.String("path", path), zap.Error(err))
		}
	}, a.logger)

	err = w.Run(cmd.Context(), nil)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func sameDir(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
