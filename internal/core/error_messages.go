package core

// error_messages.go maps engine errors to user-facing messages with a code
// that support staff can look up.
//
// # Scan Errors (SCN)
//
//	SCN001 - Empty scan: the scanned code was blank
//	SCN002 - Not found: no article has this EAN
//
// # Import Errors (IMP)
//
//	IMP001 - Wrong columns: the file does not have exactly three columns
//	IMP002 - Empty file: the file has no header row
//	IMP003 - Unsupported format: the file is not xlsx or csv
//	IMP004 - System busy: too many imports are running (retryable)
//	IMP005 - Unreadable file: the file could not be parsed
//	IMP006 - File too large: the upload exceeds the size limit
//	IMP007 - No file: the request carried no file
//
// # Export Errors (EXP)
//
//	EXP001 - Export failed: the file could not be produced
//	EXP002 - Too many rows: the history does not fit in one xlsx sheet
//
// # Database Errors (DB)
//
//	DB001 - Pool exhausted: every connection is busy (retryable)
//	DB002 - Unavailable: the database could not be reached (retryable)
//	DB003 - Misconfigured: credentials or database name are wrong
//	DB004 - Duplicate: a value that must be unique already exists
//
// # Request Errors (REQ)
//
//	REQ001 - Cancelled: the request was cancelled
//	REQ002 - Timed out: the request took too long (retryable)
//	REQ003 - Bad request: a parameter or the body could not be read
//
// # Default (ERR000)
//
//	ERR000 - Unknown: check the application logs for the technical error
//
// Sentinel errors are matched first with errors.Is. Anything else falls
// back to case-insensitive substring patterns, first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/scanmaster/internal/database"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message   string // What happened (user-friendly)
	Action    string // What to do about it
	Code      string // Error code for support reference
	Retryable bool   // Whether trying again later can succeed
}

var (
	msgInvalidInput = UserMessage{
		Message: "The scanned code is empty",
		Action:  "Scan the barcode again",
		Code:    "SCN001",
	}
	msgNotFound = UserMessage{
		Message: "No article has this code",
		Action:  "Check the barcode or import the article first",
		Code:    "SCN002",
	}
	msgColumnCount = UserMessage{
		Message: "The file must have exactly three columns",
		Action:  "Use the columns Codigo Articulo, Descripcion, EAN in that order",
		Code:    "IMP001",
	}
	msgEmptyTable = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row and data rows",
		Code:    "IMP002",
	}
	msgUnsupportedFormat = UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload an .xlsx or .csv file",
		Code:    "IMP003",
	}
	msgTooManyImports = UserMessage{
		Message:   "The system is busy processing other imports",
		Action:    "Please wait a moment and try again",
		Code:      "IMP004",
		Retryable: true,
	}
	msgExportTooLarge = UserMessage{
		Message: "The selection has more readings than an xlsx sheet can hold",
		Action:  "Export as csv or narrow the date range",
		Code:    "EXP002",
	}
	msgPoolExhausted = UserMessage{
		Message:   "All database connections are busy",
		Action:    "Please try again in a few moments",
		Code:      "DB001",
		Retryable: true,
	}
	msgUnavailable = UserMessage{
		Message:   "Unable to reach the database",
		Action:    "Please try again in a few moments",
		Code:      "DB002",
		Retryable: true,
	}
	msgMisconfigured = UserMessage{
		Message: "The database rejected the connection settings",
		Action:  "Contact support",
		Code:    "DB003",
	}
	msgCanceled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}
	msgTimeout = UserMessage{
		Message:   "Request timed out",
		Action:    "Try a smaller file or try again later",
		Code:      "REQ002",
		Retryable: true,
	}
)

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrInvalidInput, msgInvalidInput},
	{ErrNotFound, msgNotFound},
	{ErrColumnCount, msgColumnCount},
	{ErrEmptyTable, msgEmptyTable},
	{ErrUnsupportedFormat, msgUnsupportedFormat},
	{ErrTooManyImports, msgTooManyImports},
	{ErrExportTooLarge, msgExportTooLarge},
	{database.ErrPoolExhausted, msgPoolExhausted},
	{database.ErrConnectionUnavailable, msgUnavailable},
	{context.Canceled, msgCanceled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that carry no sentinel. Order matters.
var errorPatterns = []errorPattern{
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "IMP006",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "IMP006",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Select an .xlsx or .csv file to upload",
			Code:    "IMP007",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "The file could not be read as CSV",
			Action:  "Save the file as CSV (UTF-8) or as .xlsx",
			Code:    "IMP005",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The file could not be read as a workbook",
			Action:  "Open the file in a spreadsheet tool and save it again as .xlsx",
			Code:    "IMP005",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "The file contains invalid characters",
			Action:  "Save the file as UTF-8",
			Code:    "IMP005",
		},
	},
	{
		pattern: "export readings",
		msg: UserMessage{
			Message: "The export could not be completed",
			Action:  "Please try again",
			Code:    "EXP001",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this value already exists",
			Action:  "Review your data for duplicate values",
			Code:    "DB004",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be read",
			Action:  "Check the parameters and try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "connection refused",
		msg:     msgUnavailable,
	},
	{
		pattern: "connection reset",
		msg:     msgUnavailable,
	},
	{
		pattern: "timeout",
		msg:     msgTimeout,
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Sentinels
// are matched first, then the text patterns. Unknown errors map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}
	if database.IsFatal(err) {
		return msgMisconfigured
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its message.
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

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
