package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/mhplugin/internal/syncer"
)

type syncOptions struct {
	watch bool
}

func newSyncCmd(flags *rootFlags) *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the plugin registry with the plugin directory",
		Long: "Scan the plugin directory, register valid new plugins, refresh the manifest of known ones, " +
			"and drop registry rows whose directory is gone or invalid.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, flags, true, func(s *session) error {
				if opts.watch {
					return runSyncWatch(cmd, s, flags)
				}
				return runSync(cmd, s, flags)
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Keep running and re-sync when the plugin directory changes")

	return cmd
}

func runSync(cmd *cobra.Command, s *session, flags *rootFlags) error {
	report, err := s.app.Syncer.Sync(s.ctx)
	if err != nil {
		return newCommandError("sync", "reconciling the plugin registry", err, "Check the registry connection and retry.")
	}
	return respond(cmd.OutOrStdout(), flags, report, func(w io.Writer) error {
		renderReport(w, report)
		return nil
	})
}

func runSyncWatch(cmd *cobra.Command, s *session, flags *rootFlags) error {
	out := cmd.OutOrStdout()
	if !flags.jsonOutput {
		fmt.Fprintf(out, "%s %s\n", titleStyle.Render("Watching"), s.app.Resolver.Root())
	}

	err := s.app.Syncer.Watch(s.ctx, func(report *syncer.Report, err error) {
		switch {
		case flags.jsonOutput && err != nil:
			_ = writeEnvelope(out, failureEnvelope(err))
		case flags.jsonOutput:
			_ = writeEnvelope(out, successEnvelope(report))
		case err != nil:
			fmt.Fprintln(out, errorStyle.Render("sync failed: "+err.Error()))
		default:
			renderReport(out, report)
		}
	})
	if err != nil {
		return newCommandError("sync", "watching the plugin directory", err, "Check that the plugin directory exists and is readable.")
	}
	return nil
}

func renderReport(w io.Writer, report *syncer.Report) {
	if report == nil {
		return
	}
	mark := successStyle.Render(checkMark(w))
	if report.Invalid > 0 || report.Skipped > 0 {
		mark = warningStyle.Render("!")
	}
	fmt.Fprintf(w, "%s Sync complete: %s\n", mark, report.String())
}
