package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mediafx/internal/logging"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var opts renderOptions
	var watch bool

	cmd := &cobra.Command{
		Use:   "render MANIFEST",
		Short: "Apply a timeline manifest and render it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.loggerFor(cfg)
			opts.manifestPath = args[0]
			r := newRenderer(cfg, logger)
			out := cmd.OutOrStdout()

			if !watch {
				report, err := r.run(cmd.Context(), opts)
				if err != nil {
					return err
				}
				printRenderReport(out, report, opts.dryRun)
				return nil
			}

			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", opts.manifestPath)
			return watchFile(cmd.Context(), opts.manifestPath, watchDebounce, logger, func(runCtx context.Context) {
				report, err := r.run(runCtx, opts)
				if err != nil {
					if runCtx.Err() != nil {
						return
					}
					logging.ErrorWithContext(logger, "render failed", "render_failed",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "fix the manifest and save it again"),
					)
					fmt.Fprintf(out, "Render failed: %s\n", describeError(err))
					return
				}
				printRenderReport(out, report, opts.dryRun)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Render destination (overrides the manifest output)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Render on the in-memory host without journal or archive")
	cmd.Flags().StringVar(&opts.saveDebug, "save-debug", "", "Also save the composed project to this path")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-render whenever the manifest changes")
	return cmd
}

func printRenderReport(out io.Writer, report *renderReport, dryRun bool) {
	label := "Rendered"
	if dryRun {
		label = "Dry-run rendered"
	}
	fmt.Fprintf(out, "%s %d entries to %s\n", label, len(report.Entries), report.Output)
	if len(report.Skipped) > 0 {
		fmt.Fprintf(out, "Skipped without audio: %s\n", strings.Join(report.Skipped, ", "))
	}
	if report.ArchivePath != "" {
		fmt.Fprintf(out, "Archived to %s\n", report.ArchivePath)
	}
	fmt.Fprintf(out, "Session %s\n", report.SessionID)
}
