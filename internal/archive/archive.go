package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	draptolib "github.com/five82/drapto"

	"mediafx/internal/logging"
)

// Progress is a transcode progress event.
type Progress struct {
	Stage   string
	Percent float64
	Message string
	ETA     time.Duration
}

// Transcoder converts input into an archive copy under outputDir and
// returns the written path.
type Transcoder interface {
	Transcode(ctx context.Context, input, outputDir string, progress func(Progress)) (string, error)
}

// Drapto transcodes with the Drapto library.
type Drapto struct {
	logger *slog.Logger
}

// NewDrapto returns a Drapto transcoder. Drapto's own events are logged to
// logger.
func NewDrapto(logger *slog.Logger) *Drapto {
	return &Drapto{logger: logging.NewComponentLogger(logger, "drapto")}
}

// Transcode implements Transcoder.
func (d *Drapto) Transcode(ctx context.Context, input, outputDir string, progress func(Progress)) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", errors.New("input path required")
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", errors.New("output directory required")
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", fmt.Errorf("create drapto encoder: %w", err)
	}
	if _, err := encoder.EncodeWithReporter(ctx, input, outputDir, newReporter(d.logger, progress)); err != nil {
		return "", err
	}
	return OutputPath(input, outputDir), nil
}

// OutputPath is where Drapto writes the archive copy of input.
func OutputPath(input, outputDir string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}

// Archiver archives renders into a fixed directory.
type Archiver struct {
	transcoder Transcoder
	outputDir  string
	logger     *slog.Logger
}

// NewArchiver builds an Archiver writing into outputDir.
func NewArchiver(transcoder Transcoder, outputDir string, logger *slog.Logger) *Archiver {
	return &Archiver{
		transcoder: transcoder,
		outputDir:  outputDir,
		logger:     logging.NewComponentLogger(logger, "archive"),
	}
}

// Archive transcodes render and returns the archive path. Progress is
// logged at each ten percent step.
func (a *Archiver) Archive(ctx context.Context, render string) (string, error) {
	info, err := os.Stat(render)
	if err != nil {
		return "", fmt.Errorf("archive source: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("archive source %s is a directory", render)
	}
	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	logger := logging.WithContext(ctx, a.logger)
	logger.Info("archive started",
		logging.String("source", render),
		logging.String("output_dir", a.outputDir),
		logging.Int64("source_bytes", info.Size()),
	)

	lastStep := -1
	start := time.Now()
	out, err := a.transcoder.Transcode(ctx, render, a.outputDir, func(p Progress) {
		step := int(p.Percent) / 10
		if step <= lastStep {
			return
		}
		lastStep = step
		logger.Info("archive progress",
			logging.String("stage", p.Stage),
			logging.Int("percent", step*10),
			logging.Duration("eta", p.ETA),
		)
	})
	if err != nil {
		logging.ErrorWithContext(logger, "archive failed", "archive_failed",
			logging.String("source", render),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that ffmpeg with libsvtav1 is installed"),
		)
		return "", fmt.Errorf("archive %s: %w", render, err)
	}

	attrs := []logging.Attr{
		logging.String("archive", out),
		logging.Duration("elapsed", time.Since(start)),
	}
	if archived, statErr := os.Stat(out); statErr == nil {
		attrs = append(attrs, logging.Int64("archive_bytes", archived.Size()))
	}
	logger.Info("archive complete", logging.Args(attrs...)...)
	return out, nil
}
