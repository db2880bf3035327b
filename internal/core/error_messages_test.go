package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{name: "nil error returns empty", err: nil, wantCode: ""},
		{
			name:     "commit error is a store failure even when the cause looks like a connection error",
			err:      &CommitError{Attempted: 3, Err: errors.New("dial tcp: connection refused")},
			wantCode: "IMP003",
		},
		{
			name:     "invalid encoding inside parse error",
			err:      &ParseError{Format: "csv", Line: 4, Err: fmt.Errorf("%w (byte offset 12)", ErrInvalidEncoding)},
			wantCode: "FILE003",
		},
		{
			name:     "empty file",
			err:      &ParseError{Format: "csv", Err: ErrEmptyFile},
			wantCode: "FILE005",
		},
		{
			name:     "malformed quotes",
			err:      &ParseError{Format: "csv", Line: 2, Err: errors.New(`extraneous or missing " in quoted-field`)},
			wantCode: "FILE002",
		},
		{name: "unknown header", err: &HeaderError{Header: "Renk"}, wantCode: "MAP001"},
		{name: "invalid target", err: &TargetError{Target: "colour"}, wantCode: "MAP002"},
		{name: "busy", err: fmt.Errorf("acquire import slot: %w", ErrTooManyImports), wantCode: "IMP001"},
		{name: "lock timeout", err: ErrLockTimeout, wantCode: "IMP004"},
		{name: "cancelled", err: fmt.Errorf("import cancelled before commit: %w", context.Canceled), wantCode: "IMP002"},
		{name: "pattern fallback for body limit", err: errors.New("http: request body too large"), wantCode: "FILE001"},
		{name: "pattern fallback for missing file", err: errors.New("no file provided"), wantCode: "FILE004"},
		{name: "pattern fallback is case insensitive", err: errors.New("Connection Reset by peer"), wantCode: "DB005"},
		{name: "unknown error returns default", err: errors.New("something odd"), wantCode: "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrTooManyImports)
	want := "Too many imports are in progress (Code: IMP001). Please wait a moment and try again"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: ErrEmptyFile, want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	if got := NewUserError(nil); got != nil {
		t.Errorf("NewUserError(nil) = %v, want nil", got)
	}

	tech := &CommitError{Attempted: 1, Err: errors.New("disk full")}
	ue := NewUserError(tech)
	if ue.User.Code != "IMP003" {
		t.Errorf("User.Code = %q, want IMP003", ue.User.Code)
	}
	if ue.Error() != ue.User.Message {
		t.Errorf("Error() = %q, want the user message", ue.Error())
	}
	if !errors.Is(ue, tech) {
		t.Error("Unwrap() should return the technical error")
	}
}
