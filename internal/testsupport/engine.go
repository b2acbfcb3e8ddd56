package testsupport

import (
	"path/filepath"
	"testing"

	"mediafx/internal/host/memhost"
)

// Fixture sources registered by NewEngine. The files themselves do not need
// to exist; the in-memory engine decodes them from the registered table.
var (
	ClipPath  = filepath.FromSlash("/media/clip.mp4")
	MusicPath = filepath.FromSlash("/media/music.wav")
	MutePath  = filepath.FromSlash("/media/mute.mp4")
)

// NewEngine returns an in-memory host preloaded with the fixture sources.
func NewEngine(t testing.TB, opts ...memhost.Option) *memhost.Engine {
	t.Helper()

	base := []memhost.Option{
		memhost.WithMedia(ClipPath, memhost.Media{Frames: 50, Width: 1280, Height: 720, HasVideo: true, HasAudio: true}),
		memhost.WithMedia(MusicPath, memhost.Media{Frames: 120, HasAudio: true}),
		memhost.WithMedia(MutePath, memhost.Media{Frames: 20, Width: 320, Height: 240, HasVideo: true}),
	}
	engine := memhost.New(append(base, opts...)...)
	t.Cleanup(func() {
		_ = engine.Close()
	})
	return engine
}
