// Package core provides the business logic behind the data sweeper.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
// Errors related to the uploaded file itself:
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the file into smaller chunks
//	          Patterns: "file too large"
//
//	FILE002 - Unsupported format: Only CSV and XLSX files can be loaded
//	          Action: Save the file as .csv or .xlsx and upload it again
//	          Patterns: "unsupported file format"
//
//	FILE003 - Encoding error: The file could not be decoded
//	          Action: Save the file as UTF-8 and upload it again
//	          Patterns: "any of the tried encodings", "encoding error"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV or XLSX file to upload
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The uploaded file is empty
//	          Action: Please upload a file with a header row
//	          Patterns: "empty file"
//
//	FILE006 - Too many files: Too many files in one upload
//	          Action: Upload fewer files at a time
//	          Patterns: "too many files"
//
// # Parse Errors (PARSE001)
//
//	PARSE001 - Malformed file: The file structure could not be read
//	           Action: Check that every row has the same number of columns
//	           Patterns: "parse error"
//
// # Session Errors (SESS001-SESS099)
//
//	SESS001 - Session expired: Your session has expired
//	          Action: Upload your files again
//	          Patterns: "session not found"
//
//	SESS002 - File not found: The file is no longer available
//	          Action: Upload the file again
//	          Patterns: "file not found"
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Column not found: A selected column does not exist
//	         Action: Refresh the page and select from the listed columns
//	         Patterns: "column not found"
//
//	COL002 - No numeric columns: Nothing to chart
//	         Action: Select at least one numeric column
//	         Patterns: "numeric columns"
//
// # Export Errors (EXP001)
//
//	EXP001 - Unknown format: Conversion target not supported
//	         Action: Choose CSV or Excel
//	         Patterns: "unknown export format"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many uploads"
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout: Request timed out
//	         Action: Try uploading a smaller file or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Typed errors are matched first with errors.Is and errors.As, so text
// supplied by the user (a file named "file too large.csv") never changes
// the code. Only errors outside the known chains fall back to the patterns,
// matched case-insensitively using strings.Contains. The first matching
// pattern wins, so more specific patterns should be defined before general
// ones.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/datasweeper/internal/chart"
	"github.com/JonMunkholm/datasweeper/internal/export"
	"github.com/JonMunkholm/datasweeper/internal/loader"
	"github.com/JonMunkholm/datasweeper/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "unsupported file format",
		msg: UserMessage{
			Message: "Only CSV and XLSX files can be loaded",
			Action:  "Save the file as .csv or .xlsx and upload it again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "any of the tried encodings",
		msg: UserMessage{
			Message: "Could not read the file with any supported encoding",
			Action:  "Save the file as UTF-8 and upload it again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8 and upload it again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or XLSX file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload fewer files at a time",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Parse Errors (PARSE001)
	// =========================================================================
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The file structure could not be read",
			Action:  "Check that every row has the same number of columns",
			Code:    "PARSE001",
		},
	},

	// =========================================================================
	// Session Errors (SESS001-SESS002)
	// =========================================================================
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Upload your files again",
			Code:    "SESS001",
		},
	},
	{
		pattern: "file not found",
		msg: UserMessage{
			Message: "The file is no longer available",
			Action:  "Upload the file again",
			Code:    "SESS002",
		},
	},

	// =========================================================================
	// Column Errors (COL001-COL002)
	// =========================================================================
	{
		pattern: "column not found",
		msg: UserMessage{
			Message: "A selected column does not exist",
			Action:  "Refresh the page and select from the listed columns",
			Code:    "COL001",
		},
	},
	{
		pattern: "numeric columns",
		msg: UserMessage{
			Message: "Data must have numeric columns in order to visualize",
			Action:  "Select at least one numeric column",
			Code:    "COL002",
		},
	},

	// =========================================================================
	// Export Errors (EXP001)
	// =========================================================================
	{
		pattern: "unknown export format",
		msg: UserMessage{
			Message: "Conversion target not supported",
			Action:  "Choose CSV or Excel",
			Code:    "EXP001",
		},
	},

	// =========================================================================
	// Upload Errors (UPL002-UPL005)
	// =========================================================================
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// typedError maps an error chain to the message of one of errorPatterns.
type typedError struct {
	match   func(error) bool
	pattern string
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func isEmptyFile(err error) bool {
	var perr *loader.ParseError
	if errors.As(err, &perr) && perr.Detail == loader.ErrEmptyFile.Error() {
		return true
	}
	return errors.Is(err, loader.ErrEmptyFile)
}

func isParseError(err error) bool {
	var perr *loader.ParseError
	return errors.As(err, &perr)
}

// typedErrors is checked before any text matching. An empty file is also a
// parse error, so it comes first.
var typedErrors = []typedError{
	{isEmptyFile, "empty file"},
	{is(loader.ErrAllEncodingsExhausted), "any of the tried encodings"},
	{is(loader.ErrUnsupportedFormat), "unsupported file format"},
	{isParseError, "parse error"},
	{is(ErrFileTooLarge), "file too large"},
	{is(ErrNoFile), "no file provided"},
	{is(ErrTooManyFiles), "too many files"},
	{is(ErrSessionNotFound), "session not found"},
	{is(ErrFileNotFound), "file not found"},
	{is(table.ErrUnknownColumn), "column not found"},
	{is(chart.ErrNoNumericColumns), "numeric columns"},
	{is(export.ErrUnknownFormat), "unknown export format"},
	{is(ErrTooManyLoads), "too many uploads"},
	{is(context.Canceled), "context canceled"},
	{is(context.DeadlineExceeded), "context deadline exceeded"},
}

// patternMessage returns the message registered for pattern.
func patternMessage(pattern string) UserMessage {
	for _, ep := range errorPatterns {
		if ep.pattern == pattern {
			return ep.msg
		}
	}
	return defaultMessage
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known typed errors anywhere in the chain win; otherwise it searches the
// error patterns (case-insensitive) and returns the first match. If nothing
// matches, a generic fallback message with code ERR000 is returned.
//
// Example:
//
//	msg := MapError(loader.ErrAllEncodingsExhausted)
//	// msg.Code == "FILE003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, te := range typedErrors {
		if te.match(err) {
			return patternMessage(te.pattern)
		}
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

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
