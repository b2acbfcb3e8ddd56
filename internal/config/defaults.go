package config

const (
	defaultStateDir          = "~/.local/share/mediafx"
	defaultLogDir            = "~/.local/share/mediafx/logs"
	defaultOutputDir         = "~/Videos/mediafx"
	defaultArchiveDir        = "~/Videos/mediafx/archive"
	defaultEngine            = EngineBlender
	defaultBlenderBinary     = "blender"
	defaultFFprobeBinary     = "ffprobe"
	defaultStartupTimeout    = 60
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 30
	defaultResolutionX       = 640
	defaultResolutionY       = 360
	defaultFPS               = 25
	defaultFPSBase           = 1
	defaultContainerFormat   = "MPEG4"
	defaultVideoCodec        = "H264"
	defaultAudioCodec        = "AAC"
	defaultWorkspace         = "Video Editing"
	defaultNotifyTimeout     = 10
	blenderEnvironmentBinary = "MEDIAFX_BLENDER"
)

// Engine names accepted by host.engine.
const (
	EngineBlender = "blender"
	EngineMemory  = "memory"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
		},
		Host: Host{
			Engine:         defaultEngine,
			BlenderBinary:  defaultBlenderBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			Workspace:      defaultWorkspace,
			StartupTimeout: defaultStartupTimeout,
			LockFile:       true,
		},
		Encoder: Encoder{
			ResolutionX: defaultResolutionX,
			ResolutionY: defaultResolutionY,
			FPS:         defaultFPS,
			FPSBase:     defaultFPSBase,
			Format:      defaultContainerFormat,
			Codec:       defaultVideoCodec,
			AudioCodec:  defaultAudioCodec,
		},
		Journal: Journal{
			Enabled: true,
		},
		Archive: Archive{
			OutputDir: defaultArchiveDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Renders:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
