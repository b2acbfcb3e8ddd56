package host

// EntryKind identifies the host-side type of a timeline entry.
type EntryKind string

const (
	KindMovie EntryKind = "MOVIE"
	KindSound EntryKind = "SOUND"
	KindOther EntryKind = "OTHER"
)

// Entry is a point-in-time snapshot of a strip on the host timeline. It is a
// copy; nothing in it tracks later host changes.
type Entry struct {
	Name       string    `json:"name"`
	Kind       EntryKind `json:"kind"`
	Channel    int       `json:"channel"`
	FrameStart int       `json:"frame_start"`
	// FrameDuration is the final length of the strip in frames.
	FrameDuration int    `json:"frame_duration"`
	Filepath      string `json:"filepath"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	FitMethod     string `json:"fit_method,omitempty"`
	Mono          bool   `json:"mono,omitempty"`
}

// AreaKind names a UI surface type.
type AreaKind string

const (
	AreaSequenceEditor AreaKind = "SEQUENCE_EDITOR"
	AreaView3D         AreaKind = "VIEW_3D"
	AreaProperties     AreaKind = "PROPERTIES"
	AreaOutliner       AreaKind = "OUTLINER"
)

// Area describes one UI surface of the host's current screen.
type Area struct {
	Index int      `json:"index"`
	Kind  AreaKind `json:"type"`
}
