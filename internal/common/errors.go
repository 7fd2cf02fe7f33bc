package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden access")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict") // Stale version or status changed underneath
	ErrInternalServer = errors.New("internal server error")
	ErrValidation     = errors.New("validation failed")

	// Jam domain errors. All are recoverable by the caller and translate to
	// 4xx responses; infrastructure failures pass through unwrapped.
	ErrInvalidJamState       = errors.New("operation not allowed in current jam state")
	ErrDuplicateRegistration = errors.New("team already has an active registration for this jam")
	ErrScoreOutOfRange       = errors.New("score outside the allowed range for this criteria")
	ErrNotAssignedJudge      = errors.New("judge is not assigned to this jam")
	ErrCriteriaJamMismatch   = errors.New("criteria belongs to a different jam")
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotAssignedJudge):
		return http.StatusForbidden
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrValidation),
		errors.Is(err, ErrScoreOutOfRange), errors.Is(err, ErrCriteriaJamMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict), errors.Is(err, ErrDuplicateRegistration),
		errors.Is(err, ErrInvalidJamState):
		return http.StatusConflict
	}

	// Unique-constraint violations that slipped past the service checks still
	// surface as conflicts, not as raw storage errors.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation, letting repositories translate it into a domain error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
