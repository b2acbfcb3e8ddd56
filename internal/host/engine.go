package host

import (
	"context"
	"errors"
)

var (
	// ErrNoArea is returned when the current screen has no area at all.
	ErrNoArea = errors.New("host screen has no areas")
	// ErrContextIncorrect mirrors the host's poll failure when an operator
	// runs without the UI surface it requires.
	ErrContextIncorrect = errors.New("operator poll failed, context is incorrect")
	// ErrNoOverride is returned when popping an override that was never pushed.
	ErrNoOverride = errors.New("no area override active")
	// ErrIndexOutOfRange is returned for an entry or area index past the end.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrClosed is returned by engines that have been shut down.
	ErrClosed = errors.New("host engine closed")
)

// Engine is the host editing engine as seen by the sequencer. Implementations
// are not safe for concurrent use; the host owns a single mutable project.
type Engine interface {
	// ResetProject discards the current project and starts an empty one.
	ResetProject(ctx context.Context) error
	// TemplateRoots lists the host's application template directories.
	TemplateRoots(ctx context.Context) ([]string, error)
	// ActivateWorkspace appends the named workspace from a template file and
	// makes it current.
	ActivateWorkspace(ctx context.Context, idname, filepath string) (Result, error)
	// ApplyEncoder writes output parameters into the project.
	ApplyEncoder(ctx context.Context, params EncoderParams) error

	// Areas lists the UI surfaces of the current screen.
	Areas(ctx context.Context) ([]Area, error)
	// SetAreaType changes the surface type of the area at index.
	SetAreaType(ctx context.Context, index int, kind AreaKind) error
	// PushAreaOverride makes the area at index current for subsequent
	// operator calls until the matching PopAreaOverride.
	PushAreaOverride(ctx context.Context, index int) error
	// PopAreaOverride restores the override state in effect before the most
	// recent PushAreaOverride.
	PopAreaOverride(ctx context.Context) error

	// EntryCount returns the size of the full entry table, meta strips included.
	EntryCount(ctx context.Context) (int, error)
	// EntryAt returns the entry currently stored at index.
	EntryAt(ctx context.Context, index int) (Entry, error)
	// LookupEntry finds an entry by name in the full entry table.
	LookupEntry(ctx context.Context, name string) (Entry, bool, error)

	AddMovie(ctx context.Context, params MovieParams) (Result, error)
	AddSound(ctx context.Context, params SoundParams) (Result, error)

	SetRenderPath(ctx context.Context, path string) error
	SetRangeToEntries(ctx context.Context) (Result, error)
	RenderAnimation(ctx context.Context) (Result, error)
	SaveProject(ctx context.Context, path string) (Result, error)

	// Close releases the engine. Further calls fail with ErrClosed.
	Close() error
}
