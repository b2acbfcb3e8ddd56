package timeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mediafx/internal/sequencer"
)

// Audio policies for sound entries.
const (
	AudioRequire = "require"
	AudioAuto    = "auto"
)

// maxChannel is the highest channel the host accepts.
const maxChannel = 128

// Manifest is a composition description.
type Manifest struct {
	Output  string                     `toml:"output" yaml:"output" json:"output"`
	Encoder *sequencer.EncoderSettings `toml:"encoder,omitempty" yaml:"encoder,omitempty" json:"encoder,omitempty"`
	Movies  []MovieEntry               `toml:"movie" yaml:"movie" json:"movie"`
	Sounds  []SoundEntry               `toml:"sound" yaml:"sound" json:"sound"`

	// path is where the manifest was loaded from; "" for in-memory manifests.
	path string
}

// MovieEntry places a movie source on the timeline.
type MovieEntry struct {
	Path       string `toml:"path" yaml:"path" json:"path"`
	Channel    int    `toml:"channel" yaml:"channel" json:"channel"`
	FrameStart int    `toml:"frame_start" yaml:"frame_start" json:"frame_start"`
	FitMethod  string `toml:"fit_method" yaml:"fit_method" json:"fit_method"`
}

// SoundEntry places an audio source on the timeline.
type SoundEntry struct {
	Path       string `toml:"path" yaml:"path" json:"path"`
	Channel    int    `toml:"channel" yaml:"channel" json:"channel"`
	FrameStart int    `toml:"frame_start" yaml:"frame_start" json:"frame_start"`
	Mono       bool   `toml:"mono" yaml:"mono" json:"mono"`
	Audio      string `toml:"audio" yaml:"audio" json:"audio"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve manifest path: %w", err)
	}
	m.path = abs
	return m, nil
}

// Parse decodes a manifest. ext selects the format (".toml", ".yaml",
// ".yml" or ".json").
func Parse(data []byte, ext string) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, fmt.Errorf("parse toml: %s", strict.String())
			}
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported manifest format %q (want .toml, .yaml, .yml or .json)", ext)
	}
	m.normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) normalize() {
	m.Output = strings.TrimSpace(m.Output)
	for i := range m.Movies {
		m.Movies[i].Path = strings.TrimSpace(m.Movies[i].Path)
		m.Movies[i].FitMethod = strings.ToUpper(strings.TrimSpace(m.Movies[i].FitMethod))
		if m.Movies[i].FitMethod == "" {
			m.Movies[i].FitMethod = sequencer.FitMethodFit
		}
	}
	for i := range m.Sounds {
		m.Sounds[i].Path = strings.TrimSpace(m.Sounds[i].Path)
		m.Sounds[i].Audio = strings.ToLower(strings.TrimSpace(m.Sounds[i].Audio))
		if m.Sounds[i].Audio == "" {
			m.Sounds[i].Audio = AudioRequire
		}
	}
}

// Validate reports every problem in the manifest at once.
func (m *Manifest) Validate() error {
	var errs []error
	if m.Output == "" {
		errs = append(errs, errors.New("output: required"))
	}
	for i, mv := range m.Movies {
		prefix := fmt.Sprintf("movie[%d]", i)
		errs = append(errs, validatePlacement(prefix, mv.Path, mv.Channel, mv.FrameStart)...)
		if !sequencer.ValidFitMethod(mv.FitMethod) {
			errs = append(errs, fmt.Errorf("%s.fit_method: unknown value %q", prefix, mv.FitMethod))
		}
	}
	for i, snd := range m.Sounds {
		prefix := fmt.Sprintf("sound[%d]", i)
		errs = append(errs, validatePlacement(prefix, snd.Path, snd.Channel, snd.FrameStart)...)
		if snd.Audio != AudioRequire && snd.Audio != AudioAuto {
			errs = append(errs, fmt.Errorf("%s.audio: unknown value %q (want %q or %q)", prefix, snd.Audio, AudioRequire, AudioAuto))
		}
	}
	if m.Encoder != nil {
		if err := m.Settings(sequencer.DefaultEncoderSettings()).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("encoder: %w", err))
		}
	}
	return errors.Join(errs...)
}

func validatePlacement(prefix, path string, channel, frameStart int) []error {
	var errs []error
	if path == "" {
		errs = append(errs, fmt.Errorf("%s.path: required", prefix))
	}
	if channel < 1 || channel > maxChannel {
		errs = append(errs, fmt.Errorf("%s.channel: must be between 1 and %d, got %d", prefix, maxChannel, channel))
	}
	if frameStart < 0 {
		errs = append(errs, fmt.Errorf("%s.frame_start: must not be negative, got %d", prefix, frameStart))
	}
	return errs
}

// Path returns where the manifest was loaded from.
func (m *Manifest) Path() string { return m.path }

// Resolve turns a manifest-relative source path into an absolute one.
func (m *Manifest) Resolve(source string) string {
	if filepath.IsAbs(source) || m.path == "" {
		return source
	}
	return filepath.Join(filepath.Dir(m.path), source)
}

// Settings overlays the manifest's non-zero encoder fields on base.
func (m *Manifest) Settings(base sequencer.EncoderSettings) sequencer.EncoderSettings {
	if m.Encoder == nil {
		return base
	}
	o := *m.Encoder
	if o.ResolutionX != 0 {
		base.ResolutionX = o.ResolutionX
	}
	if o.ResolutionY != 0 {
		base.ResolutionY = o.ResolutionY
	}
	if o.FPS != 0 {
		base.FPS = o.FPS
	}
	if o.FPSBase != 0 {
		base.FPSBase = o.FPSBase
	}
	if o.Format != "" {
		base.Format = o.Format
	}
	if o.Codec != "" {
		base.Codec = o.Codec
	}
	if o.AudioCodec != "" {
		base.AudioCodec = o.AudioCodec
	}
	return base.WithDefaults()
}

// EntryCount returns how many entries the manifest declares.
func (m *Manifest) EntryCount() int {
	return len(m.Movies) + len(m.Sounds)
}
