package timeline_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mediafx/internal/host/memhost"
	"mediafx/internal/media/ffprobe"
	"mediafx/internal/sequencer"
	"mediafx/internal/testsupport"
	"mediafx/internal/timeline"
)

type fakeProber struct {
	results map[string]ffprobe.Result
	err     error
	calls   []string
}

func (f *fakeProber) Inspect(_ context.Context, path string) (ffprobe.Result, error) {
	f.calls = append(f.calls, path)
	if f.err != nil {
		return ffprobe.Result{}, f.err
	}
	return f.results[path], nil
}

func newSession(t *testing.T, opts ...memhost.Option) (*sequencer.Session, *memhost.Engine) {
	t.Helper()
	engine := testsupport.NewEngine(t, opts...)
	session, err := sequencer.NewRegistry().Create(context.Background(), engine, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Dispose() })
	return session, engine
}

func TestApplyPlacesEntries(t *testing.T) {
	session, _ := newSession(t)
	m := &timeline.Manifest{
		Output: "out.mp4",
		Movies: []timeline.MovieEntry{{Path: testsupport.ClipPath, Channel: 1, FrameStart: 1, FitMethod: sequencer.FitMethodFit}},
		Sounds: []timeline.SoundEntry{{Path: testsupport.MusicPath, Channel: 2, FrameStart: 1, Audio: timeline.AudioRequire}},
	}
	require.NoError(t, m.Validate())

	applied, err := timeline.Apply(context.Background(), session, m, nil, nil)
	require.NoError(t, err)
	require.Len(t, applied.Movies, 1)
	require.Len(t, applied.Sounds, 1)
	require.Empty(t, applied.Skipped)

	channel, err := applied.Movies[0].Channel(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, channel)

	duration, err := applied.Sounds[0].Duration(context.Background())
	require.NoError(t, err)
	require.Equal(t, 120, duration)
}

func TestApplyResolvesRelativeSources(t *testing.T) {
	path := writeManifest(t, "cut.toml", "output = \"o.mp4\"\n[[movie]]\npath = \"a.mp4\"\nchannel = 1\n")
	local := filepath.Join(filepath.Dir(path), "a.mp4")
	session, _ := newSession(t, memhost.WithMedia(local, memhost.Media{Frames: 10, Width: 64, Height: 64, HasVideo: true}))

	m, err := timeline.Load(path)
	require.NoError(t, err)
	applied, err := timeline.Apply(context.Background(), session, m, nil, nil)
	require.NoError(t, err)

	source, err := applied.Movies[0].Source(context.Background())
	require.NoError(t, err)
	require.Equal(t, local, source)
}

func TestApplyAutoAudioSkipsSilentSources(t *testing.T) {
	session, engine := newSession(t)
	prober := &fakeProber{results: map[string]ffprobe.Result{
		testsupport.MutePath:  {Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "h264"}}},
		testsupport.MusicPath: {Streams: []ffprobe.Stream{{CodecType: "audio", CodecName: "pcm_s16le"}}},
	}}
	m := &timeline.Manifest{
		Output: "out.mp4",
		Sounds: []timeline.SoundEntry{
			{Path: testsupport.MutePath, Channel: 2, Audio: timeline.AudioAuto},
			{Path: testsupport.MusicPath, Channel: 3, Audio: timeline.AudioAuto},
		},
	}

	applied, err := timeline.Apply(context.Background(), session, m, prober, nil)
	require.NoError(t, err)
	require.Equal(t, []string{testsupport.MutePath}, applied.Skipped)
	require.Len(t, applied.Sounds, 1)
	require.Len(t, prober.calls, 2)

	count, err := engine.EntryCount(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestApplyRequireAudioFailsOnSilentSource(t *testing.T) {
	session, _ := newSession(t)
	prober := &fakeProber{}
	m := &timeline.Manifest{
		Output: "out.mp4",
		Movies: []timeline.MovieEntry{{Path: testsupport.ClipPath, Channel: 1, FitMethod: sequencer.FitMethodFit}},
		Sounds: []timeline.SoundEntry{{Path: testsupport.MutePath, Channel: 2, Audio: timeline.AudioRequire}},
	}

	applied, err := timeline.Apply(context.Background(), session, m, prober, nil)
	require.Error(t, err)
	require.True(t, sequencer.IsOperation(err), "expected operation failure, got %v", err)
	require.ErrorContains(t, err, "sound[0]")
	require.Len(t, applied.Movies, 1, "entries placed before the failure stay")
	require.Empty(t, prober.calls, "require never probes")
}

func TestApplyProbeErrorFallsBackToHost(t *testing.T) {
	session, _ := newSession(t)
	prober := &fakeProber{err: errors.New("ffprobe missing")}
	m := &timeline.Manifest{
		Output: "out.mp4",
		Sounds: []timeline.SoundEntry{{Path: testsupport.MusicPath, Channel: 2, Audio: timeline.AudioAuto}},
	}
	applied, err := timeline.Apply(context.Background(), session, m, prober, nil)
	require.NoError(t, err)
	require.Len(t, applied.Sounds, 1)
}

func TestApplyUndecodableMovie(t *testing.T) {
	session, _ := newSession(t)
	m := &timeline.Manifest{
		Output: "out.mp4",
		Movies: []timeline.MovieEntry{{Path: "/media/corrupt.mp4", Channel: 1, FitMethod: sequencer.FitMethodFit}},
	}
	applied, err := timeline.Apply(context.Background(), session, m, nil, nil)
	require.Error(t, err)
	var opsErr *sequencer.OpsError
	require.ErrorAs(t, err, &opsErr)
	require.Empty(t, applied.Movies)
}
