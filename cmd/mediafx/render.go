package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mediafx/internal/archive"
	"mediafx/internal/config"
	"mediafx/internal/deps"
	"mediafx/internal/host"
	"mediafx/internal/host/blender"
	"mediafx/internal/host/memhost"
	"mediafx/internal/journal"
	"mediafx/internal/logging"
	"mediafx/internal/media/ffprobe"
	"mediafx/internal/metrics"
	"mediafx/internal/notifications"
	"mediafx/internal/preflight"
	"mediafx/internal/sequencer"
	"mediafx/internal/timeline"
)

// engineFactory builds the host engine for one run. dryRun requests the
// in-memory host regardless of host.engine.
type engineFactory func(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (host.Engine, error)

// transcoderFactory builds the archive transcoder.
type transcoderFactory func(logger *slog.Logger) archive.Transcoder

var (
	newEngine     engineFactory     = startEngine
	newTranscoder transcoderFactory = func(logger *slog.Logger) archive.Transcoder { return archive.NewDrapto(logger) }
)

func startEngine(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (host.Engine, error) {
	if dryRun || cfg.Host.Engine == config.EngineMemory {
		fps := float64(cfg.Encoder.FPS)
		if cfg.Encoder.FPSBase > 0 {
			fps /= float64(cfg.Encoder.FPSBase)
		}
		return memhost.New(
			memhost.WithLogger(logger),
			memhost.WithProber(memhost.FFprobe{Binary: cfg.Host.FFprobeBinary, FPS: fps}),
			memhost.WithTemplateRoots(cfg.Host.TemplateRoots...),
		), nil
	}
	return blender.Start(ctx, blender.Options{
		Binary:         cfg.Host.BlenderBinary,
		StartupTimeout: cfg.StartupTimeout(),
		Logger:         logger,
	})
}

type renderOptions struct {
	manifestPath string
	output       string
	saveDebug    string
	dryRun       bool
}

// renderReport summarizes one pipeline run.
type renderReport struct {
	SessionID   string
	Output      string
	Entries     []host.Entry
	Skipped     []string
	ArchivePath string
	Elapsed     time.Duration
}

// renderer runs manifests against a fresh host session. One renderer may run
// many times; watch mode reuses it.
type renderer struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *sequencer.Registry
	notifier notifications.Service
}

func newRenderer(cfg *config.Config, logger *slog.Logger) *renderer {
	logger = logging.NewComponentLogger(logger, "render")
	return &renderer{
		cfg:    cfg,
		logger: logger,
		registry: sequencer.NewRegistry(
			sequencer.WithLockFile(cfg.LockPath()),
			sequencer.WithRegistryLogger(logger),
		),
		notifier: notifications.NewService(cfg),
	}
}

// run executes one render and publishes its outcome. Dry runs stay quiet.
func (r *renderer) run(ctx context.Context, opts renderOptions) (*renderReport, error) {
	report, err := r.execute(ctx, opts)
	if opts.dryRun || ctx.Err() != nil {
		return report, err
	}
	if err != nil {
		payload := notifications.Payload{"error": err.Error()}
		if report != nil {
			payload["output"] = report.Output
		}
		r.publish(ctx, notifications.EventRenderFailed, payload)
		return report, err
	}
	r.publish(ctx, notifications.EventRenderCompleted, notifications.Payload{
		"output":   report.Output,
		"entries":  len(report.Entries),
		"duration": report.Elapsed.Round(time.Second),
	})
	if report.ArchivePath != "" {
		r.publish(ctx, notifications.EventArchiveCompleted, notifications.Payload{
			"output":  report.Output,
			"archive": report.ArchivePath,
		})
	}
	return report, nil
}

func (r *renderer) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := r.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(r.logger, "notification not sent", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func (r *renderer) execute(ctx context.Context, opts renderOptions) (report *renderReport, err error) {
	started := time.Now()
	manifest, err := timeline.Load(opts.manifestPath)
	if err != nil {
		return nil, err
	}
	output := strings.TrimSpace(opts.output)
	if output == "" {
		output = manifest.Output
	}
	output = r.cfg.ResolveOutput(output)
	if output == "" {
		return nil, errors.New("no output path: set output in the manifest or pass --output")
	}

	dirs := []string{r.cfg.Paths.OutputDir, filepath.Dir(output)}
	if r.cfg.Archive.Enabled && !opts.dryRun {
		dirs = append(dirs, r.cfg.Archive.OutputDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if !opts.dryRun {
		if err := r.preflight(ctx); err != nil {
			return nil, err
		}
	}

	engine, err := newEngine(ctx, r.cfg, opts.dryRun, r.logger)
	if err != nil {
		return nil, fmt.Errorf("start host: %w", err)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			logging.WarnWithContext(r.logger, "host close failed", "host_close_failed",
				logging.Error(cerr),
				logging.String(logging.FieldImpact, "the host process may need to be stopped manually"),
			)
		}
	}()

	var (
		registry  *prometheus.Registry
		collector *metrics.Collector
	)
	if r.cfg.Metrics.Textfile != "" {
		registry = prometheus.NewRegistry()
		collector, err = metrics.New(registry)
		if err != nil {
			return nil, err
		}
		engine = collector.Instrument(engine)
	}

	settings := manifest.Settings(encoderDefaults(r.cfg))
	session, err := r.registry.Create(ctx, engine, &settings,
		sequencer.WithLogger(r.logger),
		sequencer.WithWorkspaceTemplate(sequencer.WorkspaceTemplate{
			Workspace:  r.cfg.Host.Workspace,
			ExtraRoots: r.cfg.Host.TemplateRoots,
		}),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if derr := session.Dispose(); derr != nil && err == nil {
			err = derr
		}
	}()

	ctx = logging.WithSessionID(ctx, session.ID())
	ctx = logging.WithManifest(ctx, manifest.Path())
	logger := logging.WithContext(ctx, r.logger)
	logger.Info("session created",
		logging.String("output", output),
		logging.Int("manifest_entries", manifest.EntryCount()),
		logging.Bool("dry_run", opts.dryRun),
	)

	var jr *journal.Journal
	if r.cfg.Journal.Enabled && !opts.dryRun {
		jr, err = journal.Open(r.cfg)
		if err != nil {
			return nil, err
		}
		defer jr.Close()
		if err := jr.StartSession(ctx, journal.Session{
			ID:        session.ID(),
			StartedAt: session.CreatedAt(),
			Engine:    r.cfg.Host.Engine,
			Manifest:  manifest.Path(),
			Settings:  session.Settings(),
		}); err != nil {
			return nil, err
		}
		defer func() {
			if eerr := jr.EndSession(context.WithoutCancel(ctx), session.ID()); eerr != nil {
				logging.WarnWithContext(logger, "journal session not closed", "journal_write_failed",
					logging.Error(eerr),
					logging.String(logging.FieldImpact, "history shows the session as still open"),
				)
			}
		}()
	}

	applied, err := timeline.Apply(ctx, session, manifest, ffprobe.Runner{Binary: r.cfg.Host.FFprobeBinary}, logger)
	if err != nil {
		return nil, err
	}

	report = &renderReport{
		SessionID: session.ID(),
		Output:    output,
		Skipped:   applied.Skipped,
	}
	report.Entries, err = snapshotEntries(ctx, session)
	if err != nil {
		return nil, err
	}
	if jr != nil {
		records := make([]journal.Entry, 0, len(report.Entries))
		for i, entry := range report.Entries {
			records = append(records, journal.EntryFromHost(i, entry))
		}
		if err := jr.RecordEntries(ctx, session.ID(), records); err != nil {
			return nil, err
		}
	}

	if opts.saveDebug != "" {
		if err := session.SaveDebugState(ctx, opts.saveDebug); err != nil {
			return nil, err
		}
	}

	var renderID int64
	if jr != nil {
		renderID, err = jr.StartRender(ctx, session.ID(), output)
		if err != nil {
			return nil, err
		}
		ctx = logging.WithRenderID(ctx, renderID)
		logger = logging.WithContext(ctx, r.logger)
	}

	renderErr := session.Encode(ctx, output)
	if renderErr == nil && r.cfg.Archive.Enabled && !opts.dryRun {
		archiver := archive.NewArchiver(newTranscoder(logger), r.cfg.Archive.OutputDir, logger)
		archived, aerr := archiver.Archive(ctx, output)
		if aerr != nil {
			logging.WarnWithContext(logger, "archive transcode failed", "archive_failed",
				logging.Error(aerr),
				logging.String(logging.FieldImpact, "the render is kept without an archive copy"),
			)
		} else {
			report.ArchivePath = archived
		}
	}

	if jr != nil {
		if ferr := jr.FinishRender(context.WithoutCancel(ctx), renderID, renderErr, report.ArchivePath); ferr != nil {
			logging.WarnWithContext(logger, "journal render not finished", "journal_write_failed",
				logging.Error(ferr),
				logging.String(logging.FieldImpact, "history shows the render as still running"),
			)
		}
	}
	if registry != nil {
		if merr := metrics.WriteTextfile(r.cfg.Metrics.Textfile, registry); merr != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
				logging.Error(merr),
				logging.String(logging.FieldImpact, "node-exporter keeps the previous values"),
			)
		}
	}
	if renderErr != nil {
		return report, renderErr
	}

	report.Elapsed = time.Since(started)
	logger.Info("render complete",
		logging.String("output", output),
		logging.Int("entries", len(report.Entries)),
		logging.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

func (r *renderer) preflight(ctx context.Context) error {
	if failed := preflight.Failed(preflight.RunAll(ctx, r.cfg)); len(failed) > 0 {
		parts := make([]string, 0, len(failed))
		for _, res := range failed {
			parts = append(parts, fmt.Sprintf("%s: %s", res.Name, res.Detail))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
	}
	if missing := deps.Missing(preflight.CheckSystemDeps(ctx, r.cfg)); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, status := range missing {
			names = append(names, status.Command)
		}
		return fmt.Errorf("missing required binaries: %s (run mediafx doctor)", strings.Join(names, ", "))
	}
	return nil
}

func snapshotEntries(ctx context.Context, session *sequencer.Session) ([]host.Entry, error) {
	handles, err := session.Entries(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]host.Entry, 0, len(handles))
	for _, h := range handles {
		entry, err := h.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func encoderDefaults(cfg *config.Config) sequencer.EncoderSettings {
	return sequencer.EncoderSettings{
		ResolutionX: cfg.Encoder.ResolutionX,
		ResolutionY: cfg.Encoder.ResolutionY,
		FPS:         cfg.Encoder.FPS,
		FPSBase:     cfg.Encoder.FPSBase,
		Format:      cfg.Encoder.Format,
		Codec:       cfg.Encoder.Codec,
		AudioCodec:  cfg.Encoder.AudioCodec,
	}
}
