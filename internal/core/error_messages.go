package core

// error_messages.go defines user-friendly error messages with codes for
// support reference. When users encounter errors, they can quote the code to
// support staff for faster diagnosis.
//
// # Error Codes Reference
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Schema mismatch: Tables do not share a compatible structure
//	         Action: Run an inspection to see per-table differences
//	         Patterns: "schema mismatch"
//
//	SCH002 - Coercion failed: A cell could not be converted to the reference type
//	         Action: Fix the named cell, or make the source columns match
//	         Patterns: "coercion failed"
//
//	SCH003 - Duplicate column: A table declares the same column label twice
//	         Action: Ensure each column header is unique
//	         Patterns: "duplicate column label"
//
// # Join Errors (JN001-JN099)
//
//	JN001 - Key not found: A declared key column is absent from its table
//	        Action: Check the key column name for each table
//	        Patterns: "join key not found"
//
//	JN002 - Key type mismatch: Key columns hold incomparable value types
//	        Action: Ensure key columns hold the same type of values in every table
//	        Patterns: "join key type mismatch"
//
//	JN003 - Result too large: The join output crossed the row ceiling
//	        Action: Join on more selective keys or raise the row ceiling
//	        Patterns: "join result too large"
//
// # Operation Errors (OP001-OP099)
//
//	OP001 - Unknown operation: The requested operation is not registered
//	        Action: List available operations and pick a valid key
//	        Patterns: "unknown operation"
//
//	OP002 - Wrong input count: Too few or too many input files
//	        Action: Check how many files this operation accepts
//	        Patterns: "requires at least", "accepts at most"
//
//	OP003 - Bad input type: An input file type is not accepted by the operation
//	        Action: Check the file types this operation accepts
//	        Patterns: "does not accept"
//
//	OP004 - Invalid parameters: The params payload failed to parse or validate
//	        Action: Review the operation's parameter description
//	        Patterns: "invalid parameters"
//
// # Job Errors (JOB001-JOB099)
//
//	JOB001 - Job not found: No job exists with the given id
//	         Action: The job may have been purged. Submit a new one
//	         Patterns: "job not found"
//
//	JOB002 - Job cancelled: The job was cancelled before completion
//	         Action: Submit a new job when ready
//	         Patterns: "job cancelled", "context canceled"
//
//	JOB003 - Timeout: The operation ran out of time
//	         Action: Try smaller inputs or try again later
//	         Patterns: "context deadline exceeded", "timed out", "timeout"
//
//	JOB004 - Queue full: Too many jobs are queued or running
//	         Action: Wait for current jobs to finish and resubmit
//	         Patterns: "job queue is full"
//
//	JOB005 - No output yet: The job has not produced a downloadable file
//	         Action: Wait for the job to succeed, then download
//	         Patterns: "has no artifact"
//
//	JOB006 - Output expired: The output file has been cleaned up
//	         Action: Run the operation again
//	         Patterns: "no longer exists"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: The upload exceeds the size ceiling
//	          Action: Split the workbook into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Empty file: The uploaded file has no content
//	          Action: Upload a file with at least a header row
//	          Patterns: "empty file", "file is empty"
//
//	FILE003 - Corrupt workbook: The file could not be opened as a workbook
//	          Action: Re-export the file and upload again
//	          Patterns: "not a valid zip", "corrupt"
//
//	FILE004 - Unsupported type: The file extension is not supported
//	          Action: Upload .xlsx, .xlsm, or .csv files
//	          Patterns: "unsupported file type"
//
//	FILE005 - Upload not found: No staged upload exists with the given id
//	          Action: The upload may have expired. Stage the file again
//	          Patterns: "upload not found"
//
//	FILE006 - Malformed CSV: The CSV file failed to parse
//	          Action: Check for unbalanced quotes near the named line
//	          Patterns: "parse error"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused: Unable to connect to the database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused", "failed to connect"
//
//	DB002 - Connection reset: The database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB003 - Constraint violation: A database constraint rejected the write
//	        Action: Please try again or contact support
//	        Patterns: "duplicate key", "violates"
//
// # Throttling (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests from this client
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
//	RATE002 - Upload slots busy: Too many uploads in flight
//	          Action: Please wait a moment and try again
//	          Patterns: "too many concurrent uploads"
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches:
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are defined
// before general ones. When users report ERR000, check application logs
// for the original technical error.

import (
	"fmt"
	"strings"
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

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. Patterns are matched using strings.Contains and the first match
// wins, so more specific patterns come before general ones.
//
// To add a new error pattern:
//  1. Choose the appropriate category and code range
//  2. Add the pattern in the correct position (specific before general)
//  3. Update the reference at the top of this file
var errorPatterns = []errorPattern{
	// =========================================================================
	// Schema Errors (SCH001-SCH003)
	// Raised by the inspector and the concatenation engine.
	// =========================================================================
	{
		pattern: "schema mismatch",
		msg: UserMessage{
			Message: "The tables do not share a compatible structure",
			Action:  "Run an inspection to see per-table differences",
			Code:    "SCH001",
		},
	},
	{
		pattern: "coercion failed",
		msg: UserMessage{
			Message: "A cell could not be converted to the reference column type",
			Action:  "Fix the named cell, or make the source columns match",
			Code:    "SCH002",
		},
	},
	{
		pattern: "duplicate column label",
		msg: UserMessage{
			Message: "A table declares the same column label twice",
			Action:  "Ensure each column header is unique",
			Code:    "SCH003",
		},
	},

	// =========================================================================
	// Join Errors (JN001-JN003)
	// Raised by the join engine before or during row emission.
	// =========================================================================
	{
		pattern: "join key not found",
		msg: UserMessage{
			Message: "A declared key column is missing from its table",
			Action:  "Check the key column name for each table",
			Code:    "JN001",
		},
	},
	{
		pattern: "join key type mismatch",
		msg: UserMessage{
			Message: "The key columns hold values that cannot be compared",
			Action:  "Ensure key columns hold the same type of values in every table",
			Code:    "JN002",
		},
	},
	{
		pattern: "join result too large",
		msg: UserMessage{
			Message: "The join produced more rows than the configured ceiling",
			Action:  "Join on more selective keys or raise the row ceiling",
			Code:    "JN003",
		},
	},

	// =========================================================================
	// Operation Errors (OP001-OP004)
	// Raised while validating a job submission.
	// =========================================================================
	{
		pattern: "unknown operation",
		msg: UserMessage{
			Message: "The requested operation does not exist",
			Action:  "List available operations and pick a valid key",
			Code:    "OP001",
		},
	},
	{
		pattern: "requires at least",
		msg: UserMessage{
			Message: "Too few input files for this operation",
			Action:  "Check how many files this operation accepts",
			Code:    "OP002",
		},
	},
	{
		pattern: "accepts at most",
		msg: UserMessage{
			Message: "Too many input files for this operation",
			Action:  "Check how many files this operation accepts",
			Code:    "OP002",
		},
	},
	{
		pattern: "does not accept",
		msg: UserMessage{
			Message: "An input file type is not accepted by this operation",
			Action:  "Check the file types this operation accepts",
			Code:    "OP003",
		},
	},
	{
		pattern: "invalid parameters",
		msg: UserMessage{
			Message: "The operation parameters failed to parse",
			Action:  "Review the operation's parameter description",
			Code:    "OP004",
		},
	},

	// =========================================================================
	// Job Errors (JOB001-JOB006)
	// Raised by the job service and runner.
	// =========================================================================
	{
		pattern: "job not found",
		msg: UserMessage{
			Message: "No job exists with that id",
			Action:  "The job may have been purged. Submit a new one",
			Code:    "JOB001",
		},
	},
	{
		pattern: "job cancelled",
		msg: UserMessage{
			Message: "The job was cancelled before completion",
			Action:  "Submit a new job when ready",
			Code:    "JOB002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "JOB002",
		},
	},
	{
		pattern: "job queue is full",
		msg: UserMessage{
			Message: "Too many jobs are queued or running",
			Action:  "Wait for current jobs to finish and resubmit",
			Code:    "JOB004",
		},
	},
	{
		pattern: "has no artifact",
		msg: UserMessage{
			Message: "The job has not produced a downloadable file",
			Action:  "Wait for the job to succeed, then download",
			Code:    "JOB005",
		},
	},
	{
		pattern: "no longer exists",
		msg: UserMessage{
			Message: "The output file has been cleaned up",
			Action:  "Run the operation again",
			Code:    "JOB006",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE006)
	// Raised while staging or reading uploaded files.
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The file exceeds the upload size ceiling",
			Action:  "Split the workbook into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "The file exceeds the upload size ceiling",
			Action:  "Split the workbook into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file has no content",
			Action:  "Upload a file with at least a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "file is empty",
		msg: UserMessage{
			Message: "The uploaded file has no content",
			Action:  "Upload a file with at least a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "not a valid zip",
		msg: UserMessage{
			Message: "The file could not be opened as a workbook",
			Action:  "Re-export the file and upload again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "corrupt",
		msg: UserMessage{
			Message: "The file could not be opened as a workbook",
			Action:  "Re-export the file and upload again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "That file type is not supported",
			Action:  "Upload .xlsx, .xlsm, or .csv files",
			Code:    "FILE004",
		},
	},
	{
		pattern: "upload not found",
		msg: UserMessage{
			Message: "No staged upload exists with that id",
			Action:  "The upload may have expired. Stage the file again",
			Code:    "FILE005",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The CSV file failed to parse",
			Action:  "Check for unbalanced quotes near the named line",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Database Errors (DB001-DB003)
	// Raised by the job store.
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "failed to connect",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "The database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A database constraint rejected the write",
			Action:  "Please try again or contact support",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates",
		msg: UserMessage{
			Message: "A database constraint rejected the write",
			Action:  "Please try again or contact support",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Timeouts (JOB003)
	// These patterns are broad, so they sit near the end of the table.
	// =========================================================================
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The operation ran out of time",
			Action:  "Try smaller inputs or try again later",
			Code:    "JOB003",
		},
	},
	{
		pattern: "timed out",
		msg: UserMessage{
			Message: "The operation ran out of time",
			Action:  "Try smaller inputs or try again later",
			Code:    "JOB003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation ran out of time",
			Action:  "Try smaller inputs or try again later",
			Code:    "JOB003",
		},
	},

	// =========================================================================
	// Throttling (RATE001-RATE002)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "Too many uploads are in flight",
			Action:  "Please wait a moment and try again",
			Code:    "RATE002",
		},
	},
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
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := engine.Join(...)
//	msg := MapError(err)
//	// msg.Code == "JN001"
//	// msg.Message == "A declared key column is missing from its table"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
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
//
// Example output: "The tables do not share a compatible structure (Code: SCH001). Run an inspection to see per-table differences"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be
// shown to users. Returns false for the generic ERR000 fallback, whose
// technical text belongs in logs rather than responses.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	msg := MapError(err)
	return msg.Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while Error() yields a clean
// message for display.
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

// NewUserError creates a UserError by mapping a technical error to a
// user-friendly message. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
