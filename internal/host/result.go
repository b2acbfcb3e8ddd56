package host

import (
	"slices"
	"strings"
)

// Operator outcome flags reported by the host.
const (
	Finished  = "FINISHED"
	Cancelled = "CANCELLED"
)

// Result is the set of outcome flags returned by a host operator.
type Result []string

// ResultOf builds a normalized result set from the provided flags.
func ResultOf(flags ...string) Result {
	out := make(Result, 0, len(flags))
	for _, flag := range flags {
		flag = strings.ToUpper(strings.TrimSpace(flag))
		if flag == "" || slices.Contains(out, flag) {
			continue
		}
		out = append(out, flag)
	}
	slices.Sort(out)
	return out
}

// FinishedResult is the single success indicator.
func FinishedResult() Result {
	return Result{Finished}
}

// CancelledResult is the result reported when an operator refused to run.
func CancelledResult() Result {
	return Result{Cancelled}
}

// IsFinished reports whether the result is exactly {FINISHED}.
func (r Result) IsFinished() bool {
	normalized := ResultOf(r...)
	return len(normalized) == 1 && normalized[0] == Finished
}

// String renders the set the way the host prints it, e.g. {'CANCELLED'}.
func (r Result) String() string {
	normalized := ResultOf(r...)
	if len(normalized) == 0 {
		return "set()"
	}
	parts := make([]string, len(normalized))
	for i, flag := range normalized {
		parts[i] = "'" + flag + "'"
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Equal reports whether r and other hold the same flags.
func (r Result) Equal(other Result) bool {
	return slices.Equal(ResultOf(r...), ResultOf(other...))
}

// Has reports whether flag is present in r.
func (r Result) Has(flag string) bool {
	return slices.Contains(ResultOf(r...), strings.ToUpper(strings.TrimSpace(flag)))
}
