package archive

import (
	"log/slog"
	"time"

	draptolib "github.com/five82/drapto"

	"mediafx/internal/logging"
)

// reporter forwards Drapto events to slog and a progress callback.
type reporter struct {
	logger   *slog.Logger
	progress func(Progress)
}

func newReporter(logger *slog.Logger, progress func(Progress)) *reporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &reporter{logger: logger, progress: progress}
}

func (r *reporter) emit(p Progress) {
	if r.progress != nil {
		r.progress(p)
	}
}

func (r *reporter) Hardware(s draptolib.HardwareSummary) {
	r.logger.Debug("drapto hardware", logging.String("hostname", s.Hostname))
}

func (r *reporter) Initialization(s draptolib.InitializationSummary) {
	r.logger.Info("drapto input",
		logging.String("input", s.InputFile),
		logging.String("output", s.OutputFile),
		logging.Any("duration", s.Duration),
		logging.Any("resolution", s.Resolution),
	)
}

func (r *reporter) StageProgress(s draptolib.StageProgress) {
	var eta time.Duration
	if s.ETA != nil {
		eta = *s.ETA
	}
	r.emit(Progress{Stage: s.Stage, Percent: float64(s.Percent), Message: s.Message, ETA: eta})
}

func (r *reporter) CropResult(s draptolib.CropSummary) {
	r.logger.Debug("drapto crop",
		logging.Any("crop", s.Crop),
		logging.Bool("required", s.Required),
		logging.Bool("disabled", s.Disabled),
		logging.String("message", s.Message),
	)
}

func (r *reporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.logger.Info("drapto encoding config",
		logging.String("encoder", s.Encoder),
		logging.String("preset", s.Preset),
		logging.Any("quality", s.Quality),
		logging.String("audio_codec", s.AudioCodec),
	)
}

func (r *reporter) EncodingStarted(totalFrames uint64) {
	r.logger.Debug("drapto encoding started", logging.Any("total_frames", totalFrames))
	r.emit(Progress{Stage: "encoding"})
}

func (r *reporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.emit(Progress{
		Stage:   "encoding",
		Percent: float64(s.Percent),
		ETA:     s.ETA,
	})
}

func (r *reporter) ValidationComplete(s draptolib.ValidationSummary) {
	for _, step := range s.Steps {
		if step.Passed {
			continue
		}
		logging.WarnWithContext(r.logger, "drapto validation step failed", "archive_validation",
			logging.String("step", step.Name),
			logging.String("details", step.Details),
			logging.String(logging.FieldImpact, "archive copy may not match the render"),
		)
	}
	r.logger.Debug("drapto validation", logging.Bool("passed", s.Passed), logging.Int("steps", len(s.Steps)))
}

func (r *reporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.logger.Info("drapto encoding complete",
		logging.String("output", s.OutputPath),
		logging.Any("original_bytes", s.OriginalSize),
		logging.Any("encoded_bytes", s.EncodedSize),
		logging.Any("elapsed", s.TotalTime),
	)
	r.emit(Progress{Stage: "complete", Percent: 100})
}

func (r *reporter) Warning(message string) {
	logging.WarnWithContext(r.logger, "drapto warning", "archive_warning", logging.String("message", message))
}

func (r *reporter) Error(e draptolib.ReporterError) {
	logging.ErrorWithContext(r.logger, "drapto error", "archive_error",
		logging.String("title", e.Title),
		logging.String("message", e.Message),
		logging.String("context", e.Context),
		logging.String(logging.FieldErrorHint, e.Suggestion),
	)
}

func (r *reporter) OperationComplete(message string) {
	r.logger.Debug("drapto operation complete", logging.String("message", message))
}

func (r *reporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.logger.Debug("drapto batch started", logging.Any("files", s.TotalFiles), logging.Any("output_dir", s.OutputDir))
}

func (r *reporter) FileProgress(s draptolib.FileProgressContext) {
	r.logger.Debug("drapto file progress", logging.Any("current", s.CurrentFile), logging.Any("total", s.TotalFiles))
}

func (r *reporter) BatchComplete(s draptolib.BatchSummary) {
	r.logger.Debug("drapto batch complete",
		logging.Any("succeeded", s.SuccessfulCount),
		logging.Any("total", s.TotalFiles),
		logging.Any("elapsed", s.TotalDuration),
	)
}

var _ draptolib.Reporter = (*reporter)(nil)
