package host

// EncoderParams is the full set of output parameters applied to the project.
type EncoderParams struct {
	ResolutionX   int    `json:"resolution_x"`
	ResolutionY   int    `json:"resolution_y"`
	FPS           int    `json:"fps"`
	FPSBase       int    `json:"fps_base"`
	FileFormat    string `json:"file_format"`
	Format        string `json:"ffmpeg_format"`
	Codec         string `json:"ffmpeg_codec"`
	AudioCodec    string `json:"ffmpeg_audio_codec"`
	ViewTransform string `json:"view_transform"`
}

// MovieParams are the movie-import operator arguments.
type MovieParams struct {
	Filepath           string `json:"filepath"`
	RelativePath       bool   `json:"relative_path"`
	ShowMultiview      bool   `json:"show_multiview"`
	FrameStart         int    `json:"frame_start"`
	Channel            int    `json:"channel"`
	FitMethod          string `json:"fit_method"`
	SetViewTransform   bool   `json:"set_view_transform"`
	AdjustPlaybackRate bool   `json:"adjust_playback_rate"`
	UseFramerate       bool   `json:"use_framerate"`
	Overlap            bool   `json:"overlap"`
	Sound              bool   `json:"sound"`
}

// SoundParams are the sound-import operator arguments.
type SoundParams struct {
	Filepath     string `json:"filepath"`
	RelativePath bool   `json:"relative_path"`
	FrameStart   int    `json:"frame_start"`
	Channel      int    `json:"channel"`
	Overlap      bool   `json:"overlap"`
	Mono         bool   `json:"mono"`
}
