package memhost

import (
	"context"
	"strconv"
	"strings"

	"mediafx/internal/media/ffprobe"
)

// Media describes what the engine can decode from a source file.
type Media struct {
	Frames   int
	Width    int
	Height   int
	HasVideo bool
	HasAudio bool
}

// Prober decides how a source path decodes. Undecodable sources return an
// error.
type Prober interface {
	Probe(ctx context.Context, path string) (Media, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, path string) (Media, error)

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context, path string) (Media, error) {
	return f(ctx, path)
}

// FFprobe decodes sources with the ffprobe binary. FPS converts container
// durations into frame counts.
type FFprobe struct {
	Binary string
	FPS    float64
}

// Probe implements Prober.
func (p FFprobe) Probe(ctx context.Context, path string) (Media, error) {
	result, err := ffprobe.Inspect(ctx, p.Binary, path)
	if err != nil {
		return Media{}, err
	}
	media := Media{
		HasVideo: result.VideoStreamCount() > 0,
		HasAudio: result.AudioStreamCount() > 0,
	}
	if w, h, ok := result.VideoSize(); ok {
		media.Width, media.Height = w, h
	}
	fps := p.FPS
	if fps <= 0 {
		fps = 25
	}
	media.Frames = result.FrameCount(fps)
	if media.Frames == 0 {
		media.Frames = 1
	}
	return media, nil
}

// nameFor derives the entry name the host would assign to path.
func nameFor(path string) string {
	base := path
	if idx := strings.LastIndexAny(base, `/\`); idx >= 0 {
		base = base[idx+1:]
	}
	if base == "" {
		base = "Strip"
	}
	return base
}

func uniqueName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "." + leftPad(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func leftPad(n int) string {
	s := strconv.Itoa(n)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}
