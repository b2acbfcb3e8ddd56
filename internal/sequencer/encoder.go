package sequencer

import (
	"errors"
	"fmt"
	"strings"

	"mediafx/internal/host"
)

const (
	DefaultResolutionX = 640
	DefaultResolutionY = 360
	DefaultFPS         = 25
	DefaultFPSBase     = 1
	DefaultFormat      = "MPEG4"
	DefaultCodec       = "H264"
	DefaultAudioCodec  = "AAC"

	fileFormatFFmpeg      = "FFMPEG"
	viewTransformStandard = "Standard"
)

// EncoderSettings describes the rendered output. It is applied once when a
// Session is created.
type EncoderSettings struct {
	ResolutionX int    `toml:"resolution_x" yaml:"resolution_x" json:"resolution_x"`
	ResolutionY int    `toml:"resolution_y" yaml:"resolution_y" json:"resolution_y"`
	FPS         int    `toml:"fps" yaml:"fps" json:"fps"`
	FPSBase     int    `toml:"fps_base" yaml:"fps_base" json:"fps_base"`
	Format      string `toml:"format" yaml:"format" json:"format"`
	Codec       string `toml:"codec" yaml:"codec" json:"codec"`
	AudioCodec  string `toml:"audio_codec" yaml:"audio_codec" json:"audio_codec"`
}

// DefaultEncoderSettings returns the settings used when none are supplied.
func DefaultEncoderSettings() EncoderSettings {
	return EncoderSettings{
		ResolutionX: DefaultResolutionX,
		ResolutionY: DefaultResolutionY,
		FPS:         DefaultFPS,
		FPSBase:     DefaultFPSBase,
		Format:      DefaultFormat,
		Codec:       DefaultCodec,
		AudioCodec:  DefaultAudioCodec,
	}
}

// WithDefaults fills zero-valued fields from DefaultEncoderSettings.
func (s EncoderSettings) WithDefaults() EncoderSettings {
	def := DefaultEncoderSettings()
	if s.ResolutionX == 0 {
		s.ResolutionX = def.ResolutionX
	}
	if s.ResolutionY == 0 {
		s.ResolutionY = def.ResolutionY
	}
	if s.FPS == 0 {
		s.FPS = def.FPS
	}
	if s.FPSBase == 0 {
		s.FPSBase = def.FPSBase
	}
	s.Format = strings.ToUpper(strings.TrimSpace(s.Format))
	if s.Format == "" {
		s.Format = def.Format
	}
	s.Codec = strings.ToUpper(strings.TrimSpace(s.Codec))
	if s.Codec == "" {
		s.Codec = def.Codec
	}
	s.AudioCodec = strings.ToUpper(strings.TrimSpace(s.AudioCodec))
	if s.AudioCodec == "" {
		s.AudioCodec = def.AudioCodec
	}
	return s
}

// Validate reports settings the host would reject or silently clamp.
func (s EncoderSettings) Validate() error {
	if s.ResolutionX <= 0 || s.ResolutionY <= 0 {
		return fmt.Errorf("encoder resolution must be positive, got %dx%d", s.ResolutionX, s.ResolutionY)
	}
	if s.FPS <= 0 {
		return fmt.Errorf("encoder fps must be positive, got %d", s.FPS)
	}
	if s.FPSBase <= 0 {
		return fmt.Errorf("encoder fps_base must be positive, got %d", s.FPSBase)
	}
	if s.Format == "" || s.Codec == "" || s.AudioCodec == "" {
		return errors.New("encoder format, codec and audio_codec must be set")
	}
	return nil
}

// FrameRate returns the effective frames per second.
func (s EncoderSettings) FrameRate() float64 {
	if s.FPSBase == 0 {
		return 0
	}
	return float64(s.FPS) / float64(s.FPSBase)
}

func (s EncoderSettings) params() host.EncoderParams {
	return host.EncoderParams{
		ResolutionX:   s.ResolutionX,
		ResolutionY:   s.ResolutionY,
		FPS:           s.FPS,
		FPSBase:       s.FPSBase,
		FileFormat:    fileFormatFFmpeg,
		Format:        s.Format,
		Codec:         s.Codec,
		AudioCodec:    s.AudioCodec,
		ViewTransform: viewTransformStandard,
	}
}
