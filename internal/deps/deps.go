// Package deps reports which external binaries mediafx can reach.
package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"mediafx/internal/config"
)

// Requirement is an external binary mediafx may run.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// VersionArgs, when set, are passed to Command to capture a version line.
	VersionArgs []string
}

// Status reports the availability of a Requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Version     string
	Detail      string
}

const versionTimeout = 5 * time.Second

// Requirements lists the binaries the configuration calls for. Blender is
// only required when it backs the host engine; ffmpeg only when renders are
// archived.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{{
		Name:        "ffprobe",
		Command:     cfg.Host.FFprobeBinary,
		Description: "Inspects sources before they join the timeline",
		Optional:    true,
		VersionArgs: []string{"-version"},
	}}
	if cfg.Host.Engine == config.EngineBlender {
		reqs = append([]Requirement{{
			Name:        "Blender",
			Command:     cfg.Host.BlenderBinary,
			Description: "Host engine for composition and rendering",
			VersionArgs: []string{"--version"},
		}}, reqs...)
	}
	if cfg.Archive.Enabled {
		reqs = append(reqs, Requirement{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Used by Drapto to archive renders",
			VersionArgs: []string{"-version"},
		})
	}
	return reqs
}

// CheckBinaries evaluates each requirement in order.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		if len(req.VersionArgs) > 0 {
			status.Version = probeVersion(ctx, resolved, req.VersionArgs)
		}
		results = append(results, status)
	}
	return results
}

// Missing returns the required statuses that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s)
		}
	}
	return missing
}

// probeVersion returns the first non-empty output line, or "" when the
// binary fails to answer in time.
func probeVersion(ctx context.Context, binary string, args []string) string {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}
