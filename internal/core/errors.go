package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFile means the file has no header row.
	ErrEmptyFile = errors.New("empty file: a header row is required")

	// ErrInvalidEncoding means the file is not valid UTF-8.
	ErrInvalidEncoding = errors.New("encoding error: file is not valid UTF-8")

	// ErrUnknownHeader is returned when a mapping names a header the file does not have.
	ErrUnknownHeader = errors.New("unknown header")

	// ErrInvalidTarget is returned for a target name outside the known set.
	ErrInvalidTarget = errors.New("invalid target")

	// ErrLockTimeout is returned when the catalog commit lock could not be
	// acquired in time.
	ErrLockTimeout = errors.New("timed out waiting for catalog lock")
)

// ParseError reports a file that could not be read as a table.
type ParseError struct {
	Format string // "csv" or "xlsx"
	Line   int    // 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid %s on line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("invalid %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TargetError reports an unrecognized target name.
type TargetError struct {
	Target string
}

func (e *TargetError) Error() string {
	return fmt.Sprintf("invalid target %q", e.Target)
}

func (e *TargetError) Is(target error) bool { return target == ErrInvalidTarget }

// HeaderError reports a mapping entry whose header is not in the file.
type HeaderError struct {
	Header string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("unknown header %q", e.Header)
}

func (e *HeaderError) Is(target error) bool { return target == ErrUnknownHeader }

// CommitError reports a store failure during insert. Nothing was persisted.
type CommitError struct {
	Attempted int
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("store failure inserting %d products: %v", e.Attempted, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
