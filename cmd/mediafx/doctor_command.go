package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mediafx/internal/config"
	"mediafx/internal/deps"
	"mediafx/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, the host lock and external binaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			checks := preflight.RunAll(cmd.Context(), cfg)
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			writeDoctorReport(out, cfg, checks, statuses, shouldColorize(out))

			failed := len(preflight.Failed(checks)) + len(deps.Missing(statuses))
			if failed > 0 {
				return fmt.Errorf("doctor found %d problem(s)", failed)
			}
			return nil
		},
	}
}

func writeDoctorReport(out io.Writer, cfg *config.Config, checks []preflight.Result, statuses []deps.Status, colorize bool) {
	fmt.Fprintln(out, renderSectionHeader("Host", colorize))
	fmt.Fprintln(out, renderStatusLine("engine", statusInfo, cfg.Host.Engine, colorize))
	fmt.Fprintln(out, renderStatusLine("workspace", statusInfo, cfg.Host.Workspace, colorize))

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSectionHeader("Checks", colorize))
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		fmt.Fprintln(out, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderSectionHeader("Binaries", colorize))
	for _, status := range statuses {
		kind, message := statusOK, status.Version
		switch {
		case status.Available && message == "":
			message = status.Detail
		case !status.Available && status.Optional:
			kind, message = statusWarn, status.Detail+" (optional: "+status.Description+")"
		case !status.Available:
			kind, message = statusError, status.Detail
		}
		fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
	}
}
