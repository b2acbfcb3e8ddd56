package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mediafx/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent renders from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.Journal.Enabled {
				fmt.Fprintln(out, "Journal disabled (journal.enabled = false)")
				return nil
			}
			jr, err := journal.Open(cfg)
			if err != nil {
				return err
			}
			defer jr.Close()

			renders, err := jr.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(renders) == 0 {
				fmt.Fprintln(out, "No renders recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(renders))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of renders to show")
	return cmd
}

func renderHistoryTable(renders []journal.Render) string {
	headers := []string{"ID", "Started", "Status", "Entries", "Duration", "Output", "Manifest"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}
	rows := make([][]string, 0, len(renders))
	for _, r := range renders {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.Duration().Round(100 * time.Millisecond).String()
		}
		status := string(r.Status)
		if r.Status == journal.RenderFailed && r.Error != "" {
			status = fmt.Sprintf("%s: %s", status, truncate(r.Error, 40))
		}
		manifest := "-"
		if r.Manifest != "" {
			manifest = filepath.Base(r.Manifest)
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			status,
			strconv.Itoa(r.EntryCount),
			duration,
			r.Output,
			manifest,
		})
	}
	return renderTable(headers, rows, aligns)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
