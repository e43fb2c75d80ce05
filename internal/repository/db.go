package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shopfront/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes the repositories react to.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
	pgAdminShutdown        = "57P01"
	pgTooManyConnections   = "53300"
)

// Classify maps transient infrastructure failures to model.ErrServiceUnavailable.
// Domain errors and anything else are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var de *model.DomainError
	if errors.As(err, &de) {
		return err
	}

	if IsTransient(err) {
		return fmt.Errorf("%w: %v", model.ErrServiceUnavailable, err)
	}

	return err
}

// IsTransient reports whether err is a timeout, a connectivity failure or a
// Postgres error that is safe to retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}

	if pgconn.Timeout(err) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "08") {
			return true
		}
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable,
			pgQueryCanceled, pgAdminShutdown, pgTooManyConnections:
			return true
		}
		return false
	}

	return pgconn.SafeToRetry(err)
}

// isUniqueViolation reports whether err violates the named unique constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}
