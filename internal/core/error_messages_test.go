package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/scanmaster/internal/database"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      string
		wantRetryable bool
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "blank scan",
			err:      ErrInvalidInput,
			wantCode: "SCN001",
		},
		{
			name:     "wrapped column count",
			err:      fmt.Errorf("%w: header has 2 columns", ErrColumnCount),
			wantCode: "IMP001",
		},
		{
			name:     "unsupported format",
			err:      fmt.Errorf("%w: \".pdf\"", ErrUnsupportedFormat),
			wantCode: "IMP003",
		},
		{
			name:     "xlsx row limit",
			err:      fmt.Errorf("export readings: %w", ErrExportTooLarge),
			wantCode: "EXP002",
		},
		{
			name:          "too many imports",
			err:           ErrTooManyImports,
			wantCode:      "IMP004",
			wantRetryable: true,
		},
		{
			name:          "pool exhausted deep in chain",
			err:           fmt.Errorf("import row 7: %w", fmt.Errorf("upsert article: %w", database.ErrPoolExhausted)),
			wantCode:      "DB001",
			wantRetryable: true,
		},
		{
			name:          "connection unavailable",
			err:           fmt.Errorf("%w: dial tcp: connection refused", database.ErrConnectionUnavailable),
			wantCode:      "DB002",
			wantRetryable: true,
		},
		{
			name:     "authentication failure",
			err:      fmt.Errorf("acquire: %w", &pgconn.PgError{Code: "28P01"}),
			wantCode: "DB003",
		},
		{
			name:     "cancelled",
			err:      fmt.Errorf("import aborted: %w", context.Canceled),
			wantCode: "REQ001",
		},
		{
			name:          "deadline",
			err:           context.DeadlineExceeded,
			wantCode:      "REQ002",
			wantRetryable: true,
		},
		{
			name:     "csv parse failure by pattern",
			err:      errors.New("invalid csv: record on line 3: wrong number of fields"),
			wantCode: "IMP005",
		},
		{
			name:     "body too large by pattern",
			err:      errors.New("http: request body too large"),
			wantCode: "IMP006",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("DUPLICATE KEY value violates"),
			wantCode: "DB004",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("MapError() retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrInvalidInput)

	expected := "The scanned code is empty (Code: SCN001). Scan the barcode again"
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
		{"nil error is not user facing", nil, false},
		{"sentinel is user facing", ErrEmptyTable, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
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
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := fmt.Errorf("lookup: %w", database.ErrConnectionUnavailable)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Unable to reach the database" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, database.ErrConnectionUnavailable) {
			t.Error("Unwrap() should expose the original error")
		}
	})
}
