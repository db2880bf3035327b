package core

// error_messages.go maps errors to operator-facing messages.
//
// Errors shown to operators carry a short code they can quote to support.
// Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: The file exceeds the upload size limit
//	          Action: Split the catalog into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Invalid file: The file could not be read as CSV or XLSX
//	          Action: Check quoting and that the file is comma, semicolon or tab separated
//	          Patterns: "invalid csv", "invalid xlsx"
//
//	FILE003 - Encoding error: The file contains invalid characters
//	          Action: Save the file as UTF-8
//	          Patterns: "encoding error"
//
//	FILE004 - No file: No file was selected
//	          Action: Choose a CSV or XLSX file to import
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The file has no header row
//	          Action: Upload a file with a header row and product rows
//	          Patterns: "empty file"
//
// # Mapping Errors (MAP001-MAP099)
//
//	MAP001 - Unknown header: The mapping names a column the file does not have
//	MAP002 - Invalid target: The mapping uses an unknown product field
//	MAP003 - Invalid mapping: The mapping could not be read
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Busy: Too many imports in progress
//	IMP002 - Cancelled: The import was cancelled before anything was saved
//	IMP003 - Store failure: Products could not be saved; nothing was imported
//	IMP004 - Lock timeout: Another import of this catalog is still running
//
// # Database Errors (DB004-DB006)
//
//	DB004 - Connection refused: Unable to connect to the database
//	DB005 - Connection reset: The database connection was interrupted
//	DB006 - Timeout: The operation timed out
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// # Matching
//
// Typed errors (ParseError, CommitError and the sentinels) are matched first
// with errors.Is/As. Anything else falls through to case-insensitive substring
// patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage is the operator-facing form of an error.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

var (
	msgFileTooLarge = UserMessage{
		Message: "The file exceeds the upload size limit",
		Action:  "Split the catalog into smaller files",
		Code:    "FILE001",
	}
	msgInvalidFile = UserMessage{
		Message: "The file could not be read as CSV or XLSX",
		Action:  "Check quoting and that the file is comma, semicolon or tab separated",
		Code:    "FILE002",
	}
	msgEncoding = UserMessage{
		Message: "The file contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose a CSV or XLSX file to import",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The file has no header row",
		Action:  "Upload a file with a header row and product rows",
		Code:    "FILE005",
	}
	msgUnknownHeader = UserMessage{
		Message: "The mapping names a column the file does not have",
		Action:  "Analyze the file again and map its columns",
		Code:    "MAP001",
	}
	msgInvalidTarget = UserMessage{
		Message: "The mapping uses an unknown product field",
		Action:  "Pick one of the listed product fields or ignore",
		Code:    "MAP002",
	}
	msgInvalidMapping = UserMessage{
		Message: "The column mapping could not be read",
		Action:  "Send the mapping as a JSON list of header and target pairs",
		Code:    "MAP003",
	}
	msgBusy = UserMessage{
		Message: "Too many imports are in progress",
		Action:  "Please wait a moment and try again",
		Code:    "IMP001",
	}
	msgCancelled = UserMessage{
		Message: "The import was cancelled before anything was saved",
		Action:  "Start the import again when ready",
		Code:    "IMP002",
	}
	msgStoreFailure = UserMessage{
		Message: "Products could not be saved; nothing was imported",
		Action:  "Try again; if it keeps failing contact support",
		Code:    "IMP003",
	}
	msgLockTimeout = UserMessage{
		Message: "Another import of this catalog is still running",
		Action:  "Wait for it to finish and try again",
		Code:    "IMP004",
	}
)

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is the fallback for untyped errors. Specific patterns come
// before general ones.
var errorPatterns = []errorPattern{
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "empty file", msg: msgEmptyFile},
	{pattern: "encoding error", msg: msgEncoding},
	{pattern: "invalid csv", msg: msgInvalidFile},
	{pattern: "invalid xlsx", msg: msgInvalidFile},
	{pattern: "unknown header", msg: msgUnknownHeader},
	{pattern: "invalid target", msg: msgInvalidTarget},
	{pattern: "invalid mapping", msg: msgInvalidMapping},
	{pattern: "too many imports", msg: msgBusy},
	{pattern: "store failure", msg: msgStoreFailure},
	{pattern: "catalog lock", msg: msgLockTimeout},
	{pattern: "import cancelled", msg: msgCancelled},
	{pattern: "context canceled", msg: msgCancelled},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts err to an operator-facing message. Unknown errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var commitErr *CommitError
	var parseErr *ParseError
	switch {
	case errors.As(err, &commitErr):
		return msgStoreFailure
	case errors.Is(err, ErrInvalidEncoding):
		return msgEncoding
	case errors.Is(err, ErrEmptyFile):
		return msgEmptyFile
	case errors.As(err, &parseErr):
		return msgInvalidFile
	case errors.Is(err, ErrUnknownHeader):
		return msgUnknownHeader
	case errors.Is(err, ErrInvalidTarget):
		return msgInvalidTarget
	case errors.Is(err, ErrTooManyImports):
		return msgBusy
	case errors.Is(err, ErrLockTimeout):
		return msgLockTimeout
	case errors.Is(err, context.Canceled):
		return msgCancelled
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its operator-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err, keeping the original for logs. Returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
