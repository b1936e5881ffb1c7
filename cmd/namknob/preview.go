package main

import (
	"github.com/spf13/cobra"

	"github.com/mrgeneko/namknob"
	"github.com/mrgeneko/namknob/internal/delivery"
	"github.com/mrgeneko/namknob/internal/source"
	"github.com/mrgeneko/namknob/internal/status"
)

func newPreviewCmd(a *app) *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "List the files an export would write, without writing them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.check(cmd); err != nil {
				return err
			}
			errs := status.NewReporter(cmd.ErrOrStderr())

			files, err := source.Collect(flags.inputs, flags.inputDirs)
			if err != nil {
				return &exitError{code: exitUsage, err: err}
			}

			controller := namknob.NewController(namknob.Options{
				Deliverer:    delivery.NewDir(a.cfg.Output.Dir),
				Logger:       a.logger,
				ArchiveLabel: a.cfg.Output.ArchiveLabel,
			})

			raw, unit := flags.gains(cmd)
			names, err := controller.Preview(namknob.Request{Files: files, Gains: raw, Unit: unit})
			if err != nil {
				errs.Error(err)
				return gateExit(err)
			}

			out := status.NewReporter(cmd.OutOrStdout())
			out.Plan(names)
			if len(names) > 1 && !flags.noArchive && !a.cfg.Output.Individual {
				out.Plan([]string{"→ " + controller.ArchiveName(unit)})
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
