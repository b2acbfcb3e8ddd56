package timeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mediafx/internal/sequencer"
	"mediafx/internal/timeline"
)

func writeManifest(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadTOML(t *testing.T) {
	path := writeManifest(t, "cut.toml", `
output = "final.mp4"

[encoder]
resolution_x = 1280
resolution_y = 720

[[movie]]
path = "clips/a.mp4"
channel = 1
frame_start = 1
fit_method = "fill"

[[sound]]
path = "/media/music.wav"
channel = 2
mono = true
audio = "AUTO"
`)
	m, err := timeline.Load(path)
	require.NoError(t, err)
	require.Equal(t, "final.mp4", m.Output)
	require.Len(t, m.Movies, 1)
	require.Equal(t, sequencer.FitMethodFill, m.Movies[0].FitMethod)
	require.Len(t, m.Sounds, 1)
	require.Equal(t, timeline.AudioAuto, m.Sounds[0].Audio)
	require.True(t, m.Sounds[0].Mono)
	require.Equal(t, 2, m.EntryCount())

	require.Equal(t, filepath.Join(filepath.Dir(path), "clips", "a.mp4"), m.Resolve(m.Movies[0].Path))
	require.Equal(t, "/media/music.wav", m.Resolve(m.Sounds[0].Path))

	settings := m.Settings(sequencer.DefaultEncoderSettings())
	require.Equal(t, 1280, settings.ResolutionX)
	require.Equal(t, 720, settings.ResolutionY)
	require.Equal(t, sequencer.DefaultFPS, settings.FPS)
	require.Equal(t, sequencer.DefaultCodec, settings.Codec)
}

func TestLoadYAMLAndJSON(t *testing.T) {
	yamlPath := writeManifest(t, "cut.yml", `
output: out.mp4
movie:
  - path: /media/clip.mp4
    channel: 3
sound:
  - path: /media/music.wav
    channel: 4
`)
	m, err := timeline.Load(yamlPath)
	require.NoError(t, err)
	require.Equal(t, 3, m.Movies[0].Channel)
	require.Equal(t, sequencer.FitMethodFit, m.Movies[0].FitMethod)
	require.Equal(t, timeline.AudioRequire, m.Sounds[0].Audio)

	jsonPath := writeManifest(t, "cut.json", `{"output":"out.mp4","movie":[{"path":"/media/clip.mp4","channel":1}]}`)
	m, err = timeline.Load(jsonPath)
	require.NoError(t, err)
	require.Len(t, m.Movies, 1)
	require.Empty(t, m.Sounds)
	require.Nil(t, m.Encoder)
	require.Equal(t, sequencer.DefaultEncoderSettings(), m.Settings(sequencer.DefaultEncoderSettings()))
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := timeline.Parse([]byte("output = \"a.mp4\"\nspeed = 2\n"), ".toml")
	require.Error(t, err)

	_, err = timeline.Parse([]byte("output: a.mp4\nspeed: 2\n"), ".yaml")
	require.Error(t, err)

	_, err = timeline.Parse([]byte(`{"output":"a.mp4","speed":2}`), ".json")
	require.Error(t, err)
}

func TestParseRejectsUnknownExtension(t *testing.T) {
	_, err := timeline.Parse([]byte("output = 'a'"), ".ini")
	require.ErrorContains(t, err, "unsupported manifest format")
}

func TestValidateReportsEveryProblem(t *testing.T) {
	_, err := timeline.Parse([]byte(`
[[movie]]
path = ""
channel = 0
frame_start = -1
fit_method = "zoom"

[[sound]]
path = "a.wav"
channel = 129
audio = "maybe"

[encoder]
fps = -5
`), ".toml")
	require.Error(t, err)
	for _, want := range []string{
		"output: required",
		"movie[0].path: required",
		"movie[0].channel",
		"movie[0].frame_start",
		"movie[0].fit_method",
		"sound[0].channel",
		"sound[0].audio",
		"encoder:",
	} {
		require.ErrorContains(t, err, want)
	}
}

func TestLabel(t *testing.T) {
	require.Equal(t, "Intro Take 2", timeline.Label("/clips/intro_take-2.mp4"))
	require.Equal(t, "Music", timeline.Label("music.wav"))
	require.Equal(t, "___.mp4", timeline.Label("___.mp4"))
}
