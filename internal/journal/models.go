package journal

import (
	"time"

	"mediafx/internal/host"
)

// RenderStatus is the lifecycle state of a render attempt.
type RenderStatus string

const (
	RenderRunning   RenderStatus = "running"
	RenderSucceeded RenderStatus = "succeeded"
	RenderFailed    RenderStatus = "failed"
)

// Session describes one sequencer session.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
	Engine    string
	Manifest  string
	// Settings is stored as JSON.
	Settings any
}

// Entry is a composed timeline entry as it existed at render time.
type Entry struct {
	Position   int
	Name       string
	Kind       host.EntryKind
	Channel    int
	FrameStart int
	Duration   int
	Source     string
}

// EntryFromHost converts a host entry snapshot.
func EntryFromHost(position int, e host.Entry) Entry {
	return Entry{
		Position:   position,
		Name:       e.Name,
		Kind:       e.Kind,
		Channel:    e.Channel,
		FrameStart: e.FrameStart,
		Duration:   e.FrameDuration,
		Source:     e.Filepath,
	}
}

// Render is one render attempt joined with its session.
type Render struct {
	ID          int64
	SessionID   string
	Engine      string
	Manifest    string
	Output      string
	Status      RenderStatus
	Error       string
	ArchivePath string
	EntryCount  int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Duration returns how long the render ran, or zero while running.
func (r Render) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
