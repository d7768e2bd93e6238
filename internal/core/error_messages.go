// Package core provides the business logic for CSV upload, statistics and
// chart shaping.
//
// # Error Codes Reference
//
// Errors returned to clients carry a code for support reference.
// Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	          Action: Split the file into smaller chunks
//	FILE002 - Invalid CSV: File could not be parsed as CSV
//	          Action: Ensure file is comma-separated with consistent columns
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save file as UTF-8 encoding
//	          Patterns: "invalid utf-8"
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to upload
//	FILE005 - Empty file: The uploaded file has no header row
//	          Action: Please upload a CSV file with a header row
//	          Patterns: "no columns to parse"
//	FILE006 - Unsupported type: File type is not allowed
//	          Action: Please upload a .csv file
//
// # Dataset Errors (DS001-DS099)
//
//	DS001 - Dataset not found: The dataset id is unknown
//	        Action: Upload the file again; datasets do not survive restarts
//	DS002 - Invalid parameters: A query parameter is out of range
//	        Action: Use a non-negative offset and a positive limit
//
// # Chart Errors (CHT001-CHT099)
//
//	CHT001 - Invalid chart request: A required axis is missing or the chart type is unknown
//	         Action: Check the required fields for the chart type
//	CHT002 - Unknown column: A referenced column is not in the dataset
//	         Action: Pick a column from the dataset header
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many uploads in progress
//	         Action: Please wait a moment and try again
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Audit Store Errors (DB004-DB099)
//
//	DB004 - Connection refused: Unable to connect to the audit database
//	DB005 - Connection reset: Audit database connection was interrupted
//	DB006 - Timeout: Operation timed out
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Error kinds are matched first with errors.Is, in table order. Errors
// without a kind fall back to case-insensitive substring patterns; the
// first match wins.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// kindMessages maps error kinds to user messages. Parse errors are not
// listed: their message decides between FILE002, FILE003 and FILE005.
var kindMessages = []struct {
	kind error
	msg  UserMessage
}{
	{ErrPayloadTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the file into smaller chunks", "FILE001"}},
	{ErrNoFile, UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE004"}},
	{ErrUnsupportedFormat, UserMessage{"File type is not allowed", "Please upload a .csv file", "FILE006"}},
	{ErrNotFound, UserMessage{"Dataset not found", "Upload the file again; datasets do not survive restarts", "DS001"}},
	{ErrUnknownColumn, UserMessage{"Column not found in dataset", "Pick a column from the dataset header", "CHT002"}},
	{ErrTooManyUploads, UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns refine kinds that share a sentinel and cover errors from
// outside the service (context, database driver, rate limiter).
var errorPatterns = []errorPattern{
	{
		pattern: "invalid utf-8",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no columns to parse",
		msg: UserMessage{
			Message: "The uploaded file has no header row",
			Action:  "Please upload a CSV file with a header row",
			Code:    "FILE005",
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
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the audit database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Audit database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var (
	parseMessage = UserMessage{
		Message: "File could not be parsed as CSV",
		Action:  "Ensure file is comma-separated with consistent columns",
		Code:    "FILE002",
	}
	validationMessage = UserMessage{
		Message: "Invalid request parameters",
		Action:  "Check the required fields for the request",
		Code:    "CHT001",
	}
	paginationMessage = UserMessage{
		Message: "Invalid query parameters",
		Action:  "Use a non-negative offset and a positive limit",
		Code:    "DS002",
	}
)

// defaultMessage is returned when nothing matches (ERR000). Support staff
// should check application logs for the original error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, km := range kindMessages {
		if errors.Is(err, km.kind) {
			return km.msg
		}
	}

	switch {
	case errors.Is(err, errInvalidPage):
		return paginationMessage
	case errors.Is(err, ErrValidation):
		return validationMessage
	}

	if msg, ok := matchPattern(err); ok {
		return msg
	}
	if errors.Is(err, ErrParse) {
		return parseMessage
	}
	return defaultMessage
}

func matchPattern(err error) (UserMessage, bool) {
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// PublicMessage returns the text to show a client for err. Domain errors
// carry their own precise message; anything else is replaced by the mapped
// user message so internals never leak.
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	if IsDomainError(err) {
		return err.Error()
	}
	return MapError(err).Message
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

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
