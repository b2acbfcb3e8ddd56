package host_test

import (
	"testing"

	"mediafx/internal/host"
)

func TestResultIsFinishedRequiresExactSet(t *testing.T) {
	cases := []struct {
		name   string
		result host.Result
		want   bool
	}{
		{"finished", host.Result{"FINISHED"}, true},
		{"lowercase", host.Result{"finished"}, true},
		{"duplicate", host.Result{"FINISHED", "FINISHED"}, true},
		{"cancelled", host.Result{"CANCELLED"}, false},
		{"mixed", host.Result{"FINISHED", "CANCELLED"}, false},
		{"empty", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.result.IsFinished(); got != tc.want {
				t.Fatalf("IsFinished(%v) = %v, want %v", tc.result, got, tc.want)
			}
		})
	}
}

func TestResultString(t *testing.T) {
	if got := host.ResultOf("cancelled", "FINISHED").String(); got != "{'CANCELLED', 'FINISHED'}" {
		t.Fatalf("unexpected rendering: %s", got)
	}
	if got := host.Result(nil).String(); got != "set()" {
		t.Fatalf("unexpected empty rendering: %s", got)
	}
}

func TestResultEqualIgnoresOrderAndCase(t *testing.T) {
	a := host.Result{"cancelled", "FINISHED"}
	b := host.ResultOf("FINISHED", "CANCELLED")
	if !a.Equal(b) {
		t.Fatalf("expected %s to equal %s", a, b)
	}
	if a.Equal(host.FinishedResult()) {
		t.Fatal("expected mixed result to differ from {FINISHED}")
	}
	if !a.Has("finished") || a.Has("RUNNING_MODAL") {
		t.Fatalf("unexpected Has results for %s", a)
	}
}
