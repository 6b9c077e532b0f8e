package database

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes and classes the engine reacts to.
const (
	CodeUniqueViolation  = "23505"
	CodeInvalidCatalog   = "3D000"
	ClassIntegrity       = "23"
	ClassDataException   = "22"
	ClassConnection      = "08"
	ClassInvalidAuth     = "28"
	CodeAdminShutdown    = "57P01"
	CodeCannotConnectNow = "57P03"
)

// acquireError marks a failure to check a connection out of the pool. No
// statement was sent, so the unit of work can be run again.
type acquireError struct {
	err error
}

func (e *acquireError) Error() string { return "acquire connection: " + e.err.Error() }
func (e *acquireError) Unwrap() error { return e.err }

// SQLState returns the SQLSTATE of a server error in err's chain, or "".
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return SQLState(err) == CodeUniqueViolation
}

func sqlClass(code string) string {
	if len(code) < 2 {
		return ""
	}
	return code[:2]
}

// IsFatal reports failures that retrying cannot fix: bad credentials, an
// unknown database or an unparsable connection string.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var parseErr *pgconn.ParseConfigError
	if errors.As(err, &parseErr) {
		return true
	}
	code := SQLState(err)
	return sqlClass(code) == ClassInvalidAuth || code == CodeInvalidCatalog
}

// isConnectionError reports whether err came from the transport rather than
// from statement execution.
func isConnectionError(err error) bool {
	if err == nil || IsFatal(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrPoolExhausted) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return sqlClass(pgErr.Code) == ClassConnection ||
			pgErr.Code == CodeAdminShutdown ||
			pgErr.Code == CodeCannotConnectNow
	}

	var acqErr *acquireError
	if errors.As(err, &acqErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// retryable reports whether running the unit of work again cannot apply
// its writes twice.
func retryable(err error) bool {
	var acqErr *acquireError
	if errors.As(err, &acqErr) {
		return true
	}
	return pgconn.SafeToRetry(err)
}

// IsUnavailable reports whether err means the database could not be used at
// all, as opposed to a statement being rejected.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrConnectionUnavailable) ||
		errors.Is(err, ErrPoolExhausted) ||
		IsFatal(err)
}
