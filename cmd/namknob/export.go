package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"

	"github.com/mrgeneko/namknob"
	"github.com/mrgeneko/namknob/internal/archive"
	"github.com/mrgeneko/namknob/internal/delivery"
	"github.com/mrgeneko/namknob/internal/domain"
	"github.com/mrgeneko/namknob/internal/source"
	"github.com/mrgeneko/namknob/internal/status"
	"github.com/mrgeneko/namknob/internal/telemetry"
)

type exportFlags struct {
	inputs     []string
	inputDirs  []string
	outputDir  string
	output     string
	gainDB     string
	gainLinear string
	noArchive  bool
}

func (f *exportFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringArrayVarP(&f.inputs, "input", "i", nil, "Capture file (repeatable)")
	fs.StringArrayVar(&f.inputDirs, "input-dir", nil, "Directory scanned for .nam files (repeatable)")
	fs.StringVarP(&f.outputDir, "output-dir", "o", "", "Output directory (default from config)")
	fs.StringVar(&f.output, "output", "", "Write the single resulting file or archive to this path")
	fs.StringVar(&f.gainDB, "gain-db", "", "Comma-separated gains in dB, at most +9")
	fs.StringVar(&f.gainLinear, "gain-linear", "", "Comma-separated linear gains in (0, 2.81838]")
	fs.BoolVar(&f.noArchive, "no-archive", false, "Never bundle outputs into a zip")
}

var exclusiveFlags = [][2]string{
	{"gain-db", "gain-linear"},
	{"output", "output-dir"},
}

// check rejects flag pairs that cannot be combined. Cobra's own flag groups
// fail outside the flag error hook and would not exit with a usage code.
func (f *exportFlags) check(cmd *cobra.Command) error {
	fs := cmd.Flags()
	for _, pair := range exclusiveFlags {
		if fs.Changed(pair[0]) && fs.Changed(pair[1]) {
			return &exitError{
				code: exitUsage,
				err:  fmt.Errorf("--%s and --%s cannot be used together", pair[0], pair[1]),
			}
		}
	}
	return nil
}

// gains returns the raw list and its unit. The linear list wins only when
// it was given; an absent list is left to validation.
func (f *exportFlags) gains(cmd *cobra.Command) (string, domain.GainUnit) {
	if cmd.Flags().Changed("gain-linear") {
		return f.gainLinear, domain.UnitLinear
	}
	return f.gainDB, domain.UnitDecibel
}

func newExportCmd(a *app) *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one rescaled capture per file and gain",
		Example: `  namknob export -i clean.nam -i crunch.nam --gain-db "-3, 3, 6" -o exports
  namknob export --input-dir captures --gain-linear 0.5 --no-archive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, flags *exportFlags) error {
	if err := flags.check(cmd); err != nil {
		return err
	}
	reporter := status.NewReporter(cmd.ErrOrStderr())

	files, err := source.Collect(flags.inputs, flags.inputDirs)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	tel, closeTel, err := a.telemetry()
	if err != nil {
		return err
	}
	defer closeTel()

	var target domain.Deliverer
	if flags.output != "" {
		target = delivery.NewFile(flags.output)
	} else {
		dir := flags.outputDir
		if dir == "" {
			dir = a.cfg.Output.Dir
		}
		target = delivery.NewDir(dir)
	}

	controller := a.controller(delivery.NewNotifying(target, tel), tel, flags.noArchive, reporter)

	raw, unit := flags.gains(cmd)
	req := namknob.Request{Files: files, Gains: raw, Unit: unit}

	if flags.output != "" {
		names, err := controller.Preview(req)
		if err != nil {
			return gateFailed(reporter, err)
		}
		if len(names) != 1 {
			return &exitError{code: exitUsage, err: errors.New("--output can only be used when producing exactly one output")}
		}
	}

	report, err := controller.Export(cmd.Context(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return gateFailed(reporter, err)
	}

	return reportExit(reporter, report)
}

func gateFailed(reporter *status.Reporter, err error) error {
	if errorx.IsOfType(err, domain.NoInputError) {
		reporter.NoInput()
	} else {
		reporter.Error(err)
	}
	return gateExit(err)
}

func (a *app) controller(deliverer domain.Deliverer, tel domain.Telemetry, noArchive bool, reporter *status.Reporter) *namknob.Controller {
	var archiver domain.Archiver
	if !noArchive && !a.cfg.Output.Individual {
		archiver = archive.NewZip()
	}

	return namknob.NewController(namknob.Options{
		Deliverer:    deliverer,
		Archiver:     archiver,
		Telemetry:    tel,
		Logger:       a.logger,
		ArchiveLabel: a.cfg.Output.ArchiveLabel,
		OnStateChange: func(s namknob.StateChange) {
			if s.To == namknob.StateProcessing {
				reporter.Processing(s.Files, s.Gains)
			}
		},
	})
}

// telemetry builds the event sinks for one command. The returned func
// releases the history store.
func (a *app) telemetry() (domain.Telemetry, func(), error) {
	sinks := telemetry.Multi{telemetry.NewLogSink(a.logger)}
	if !a.cfg.History.Enabled {
		return sinks, func() {}, nil
	}

	history, err := telemetry.OpenHistory(a.cfg.History.Path, a.logger)
	if err != nil {
		return nil, nil, err
	}
	return append(sinks, history), func() { _ = history.Close() }, nil
}

func reportExit(reporter *status.Reporter, report *namknob.Report) error {
	reporter.Failures(report.Outcome.Failures)
	reporter.Delivered(report.Delivery)

	switch {
	case len(report.Delivery.Failures) > 0:
		return &exitError{
			code:   exitDelivery,
			err:    fmt.Errorf("%d delivery failure(s)", len(report.Delivery.Failures)),
			silent: true,
		}
	case len(report.Outcome.Failures) > 0:
		return &exitError{
			code:   exitPartial,
			err:    fmt.Errorf("%d unit(s) failed", len(report.Outcome.Failures)),
			silent: true,
		}
	}
	return nil
}
