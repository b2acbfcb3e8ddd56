package sequencer_test

import (
	"errors"
	"testing"

	"mediafx/internal/host"
	"mediafx/internal/sequencer"
)

func TestErrorKindsShareRoot(t *testing.T) {
	for _, kind := range []error{sequencer.ErrLifecycle, sequencer.ErrOperation, sequencer.ErrInvalidHandle} {
		if !errors.Is(kind, sequencer.ErrSequencer) {
			t.Fatalf("%v does not match ErrSequencer", kind)
		}
	}
	if errors.Is(sequencer.ErrOperation, sequencer.ErrLifecycle) {
		t.Fatal("kinds must be distinct")
	}
}

func TestOpsErrorMessage(t *testing.T) {
	err := &sequencer.OpsError{Operator: "sequencer.movie_strip_add", Message: "failed to load movie", Result: host.CancelledResult()}
	want := "failed to load movie (sequencer.movie_strip_add returned {'CANCELLED'})"
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !sequencer.IsOperation(err) || !errors.Is(err, sequencer.ErrSequencer) {
		t.Fatal("OpsError must classify as an operation failure")
	}
}

func TestHandleErrorMessage(t *testing.T) {
	err := &sequencer.HandleError{Name: "clip.mp4", Reason: "entry no longer exists"}
	if err.Error() != `invalid handle "clip.mp4": entry no longer exists` {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !sequencer.IsInvalidHandle(err) {
		t.Fatal("HandleError must classify as an invalid handle")
	}
	anon := &sequencer.HandleError{Reason: "session is not active"}
	if anon.Error() != "invalid handle: session is not active" {
		t.Fatalf("unexpected message %q", anon.Error())
	}
}
