package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"mediafx/internal/config"
	"mediafx/internal/host"
	"mediafx/internal/logging"
	"mediafx/internal/media/ffprobe"
	"mediafx/internal/sequencer"
	"mediafx/internal/timeline"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect MANIFEST",
		Short: "Place a manifest on the in-memory host and list the resulting entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, skipped, err := inspectManifest(cmd.Context(), cfg, ctx.loggerFor(cfg), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Manifest places no entries")
			} else {
				fmt.Fprintln(out, renderEntryTable(entries))
			}
			for _, source := range skipped {
				fmt.Fprintf(out, "Skipped without audio: %s\n", source)
			}
			return nil
		},
	}
}

// inspectManifest applies the manifest to a throwaway in-memory session.
// Nothing is rendered and nothing is journaled.
func inspectManifest(ctx context.Context, cfg *config.Config, logger *slog.Logger, path string) ([]host.Entry, []string, error) {
	manifest, err := timeline.Load(path)
	if err != nil {
		return nil, nil, err
	}
	logger = logging.NewComponentLogger(logger, "inspect")
	engine, err := newEngine(ctx, cfg, true, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("start host: %w", err)
	}
	defer engine.Close()

	settings := manifest.Settings(encoderDefaults(cfg))
	session, err := sequencer.NewRegistry(sequencer.WithRegistryLogger(logger)).Create(ctx, engine, &settings,
		sequencer.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}
	defer session.Dispose()

	applied, err := timeline.Apply(ctx, session, manifest, ffprobe.Runner{Binary: cfg.Host.FFprobeBinary}, logger)
	if err != nil {
		return nil, nil, err
	}
	entries, err := snapshotEntries(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	return entries, applied.Skipped, nil
}

func renderEntryTable(entries []host.Entry) string {
	headers := []string{"#", "Name", "Kind", "Channel", "Start", "Frames", "Source"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			entry.Name,
			string(entry.Kind),
			strconv.Itoa(entry.Channel),
			strconv.Itoa(entry.FrameStart),
			strconv.Itoa(entry.FrameDuration),
			timeline.Label(entry.Filepath),
		})
	}
	return renderTable(headers, rows, aligns)
}
