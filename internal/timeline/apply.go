package timeline

import (
	"context"
	"fmt"
	"log/slog"

	"mediafx/internal/logging"
	"mediafx/internal/media/ffprobe"
	"mediafx/internal/sequencer"
)

// Prober inspects a source before it is offered to the host.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Applied lists what Apply put on the timeline.
type Applied struct {
	Movies []*sequencer.Movie
	Sounds []*sequencer.Sound
	// Skipped holds the sources of audio = "auto" sound entries that carried
	// no audio stream.
	Skipped []string
}

// Apply adds the manifest's movies and then its sounds to session, in
// declaration order. The first failure stops the run; entries already added
// stay on the timeline. prober may be nil, in which case audio = "auto"
// behaves like "require".
func Apply(ctx context.Context, session *sequencer.Session, m *Manifest, prober Prober, logger *slog.Logger) (*Applied, error) {
	logger = logging.NewComponentLogger(logger, "timeline")
	applied := &Applied{}

	for i, mv := range m.Movies {
		source := m.Resolve(mv.Path)
		movie, err := session.AddMovie(ctx, source, mv.Channel,
			sequencer.WithFrameStart(mv.FrameStart),
			sequencer.WithFitMethod(mv.FitMethod),
		)
		if err != nil {
			return applied, fmt.Errorf("movie[%d] %s: %w", i, source, err)
		}
		logger.Debug("movie placed",
			logging.String("label", Label(source)),
			logging.String("entry", movie.Name()),
			logging.Int("channel", mv.Channel),
		)
		applied.Movies = append(applied.Movies, movie)
	}

	for i, snd := range m.Sounds {
		source := m.Resolve(snd.Path)
		if snd.Audio == AudioAuto && prober != nil {
			skip, err := lacksAudio(ctx, prober, source)
			if err != nil {
				logging.WarnWithContext(logger, "audio probe failed", "audio_probe_failed",
					logging.String("source", source),
					logging.Error(err),
					logging.String(logging.FieldImpact, "offering the source to the host anyway"),
				)
			} else if skip {
				logger.Info("sound skipped, no audio stream", logging.String("source", source))
				applied.Skipped = append(applied.Skipped, source)
				continue
			}
		}
		sound, err := session.AddSound(ctx, source, snd.Channel,
			sequencer.WithFrameStart(snd.FrameStart),
			sequencer.WithMono(snd.Mono),
		)
		if err != nil {
			return applied, fmt.Errorf("sound[%d] %s: %w", i, source, err)
		}
		logger.Debug("sound placed",
			logging.String("label", Label(source)),
			logging.String("entry", sound.Name()),
			logging.Int("channel", snd.Channel),
		)
		applied.Sounds = append(applied.Sounds, sound)
	}

	logger.Info("manifest applied",
		logging.Int("movies", len(applied.Movies)),
		logging.Int("sounds", len(applied.Sounds)),
		logging.Int("skipped", len(applied.Skipped)),
	)
	return applied, nil
}

func lacksAudio(ctx context.Context, prober Prober, source string) (bool, error) {
	result, err := prober.Inspect(ctx, source)
	if err != nil {
		return false, err
	}
	return result.AudioStreamCount() == 0, nil
}
