package errors

import (
	"fmt"
	"strings"
)

// ResolveError explains why an entry produced no song ID.
type ResolveError struct {
	Type  ErrorType
	Entry string
	Cause error
}

type ErrorType int

const (
	ErrUnrecognized ErrorType = iota
	ErrNoCandidate
)

func (e *ResolveError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Type.String(), e.Entry)
	if e.Cause != nil {
		fmt.Fprintf(&b, " (%v)", e.Cause)
	}
	return b.String()
}

func (e *ResolveError) Unwrap() error { return e.Cause }

// Note is the audit label recorded for an entry that failed with this error.
func (e *ResolveError) Note() string {
	if e.Type == ErrUnrecognized {
		return "unrecognized_entry"
	}
	return "unresolved"
}

func (t ErrorType) String() string {
	switch t {
	case ErrUnrecognized:
		return "unrecognized entry"
	case ErrNoCandidate:
		return "no matching song"
	default:
		return "resolve error"
	}
}

// FetchError is returned by catalog calls that kept failing after every retry.
type FetchError struct {
	Op       string // "detail", "lyric" or "search"
	SongID   string // empty for searches
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", e.Op)
	if e.SongID != "" {
		fmt.Fprintf(&b, " %s", e.SongID)
	}
	fmt.Fprintf(&b, ": failed after %d attempt", e.Attempts)
	if e.Attempts != 1 {
		b.WriteString("s")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Cause }
