package core

import (
	"errors"
	"testing"

	"github.com/excelops/sheetops/internal/engine"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "schema mismatch maps correctly",
			err:         &engine.SchemaMismatchError{},
			wantCode:    "SCH001",
			wantMessage: "The tables do not share a compatible structure",
		},
		{
			name:        "coercion failure maps correctly",
			err:         &engine.CoercionError{Table: "west", Row: 3, Column: "total"},
			wantCode:    "SCH002",
			wantMessage: "A cell could not be converted to the reference column type",
		},
		{
			name:        "missing join key maps correctly",
			err:         &engine.KeyNotFoundError{Table: "orders", Column: "cust_id"},
			wantCode:    "JN001",
			wantMessage: "A declared key column is missing from its table",
		},
		{
			name:        "join blow-up maps correctly",
			err:         &engine.ResultTooLargeError{Limit: 1000, Rows: 1001},
			wantCode:    "JN003",
			wantMessage: "The join produced more rows than the configured ceiling",
		},
		{
			name:        "unknown operation maps correctly",
			err:         errors.New(`unknown operation: "rotate"`),
			wantCode:    "OP001",
			wantMessage: "The requested operation does not exist",
		},
		{
			name:        "input arity maps correctly",
			err:         errors.New(`operation "join" requires at least 2 inputs, got 1`),
			wantCode:    "OP002",
			wantMessage: "Too few input files for this operation",
		},
		{
			name:        "upload slots maps correctly",
			err:         ErrTooManyUploads,
			wantCode:    "RATE002",
			wantMessage: "Too many uploads are in flight",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode:    "DB001",
			wantMessage: "Unable to connect to the database",
		},
		{
			name:        "deadline maps to timeout",
			err:         errors.New("context deadline exceeded"),
			wantCode:    "JOB003",
			wantMessage: "The operation ran out of time",
		},
		{
			name:        "missing artifact maps correctly",
			err:         errors.New("job 9a1 has no artifact: status is running"),
			wantCode:    "JOB005",
			wantMessage: "The job has not produced a downloadable file",
		},
		{
			name:        "unsupported file type maps correctly",
			err:         errors.New(`unsupported file type ".pdf"`),
			wantCode:    "FILE004",
			wantMessage: "That file type is not supported",
		},
		{
			name:        "corrupt workbook maps correctly",
			err:         errors.New("zip: not a valid zip file"),
			wantCode:    "FILE003",
			wantMessage: "The file could not be opened as a workbook",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("SCHEMA MISMATCH: table x"),
			wantCode:    "SCH001",
			wantMessage: "The tables do not share a compatible structure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := &engine.KeyNotFoundError{Table: "orders", Column: "cust_id"}
	result := FormatUserError(err)

	expected := "A declared key column is missing from its table (Code: JN001). Check the key column name for each table"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  &engine.SchemaMismatchError{},
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &engine.ResultTooLargeError{Limit: 10, Rows: 11}
		userErr := NewUserError(techErr)

		if userErr.Error() != "The join produced more rows than the configured ceiling" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if userErr.User.Code != "JN003" {
			t.Errorf("Code = %q, want JN003", userErr.User.Code)
		}
		if !errors.Is(userErr, engine.ErrResultTooLarge) {
			t.Error("Unwrap() should reach the original error")
		}
	})
}
