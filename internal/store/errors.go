package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

// Paging bounds shared by the list queries and their callers.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a unique constraint rejects a write.
	ErrAlreadyExists = errors.New("already exists")

	// ErrCheckViolation is returned when a CHECK constraint rejects a write.
	ErrCheckViolation = errors.New("check constraint violated")

	// ErrUnavailable is returned when the database cannot be reached.
	ErrUnavailable = errors.New("store unavailable")
)

const (
	pqUniqueViolation = pq.ErrorCode("23505")
	pqCheckViolation  = pq.ErrorCode("23514")
	pqAdminShutdown   = pq.ErrorCode("57P01")
	pqCrashShutdown   = pq.ErrorCode("57P02")
	pqCannotConnect   = pq.ErrorCode("57P03")
)

// translate maps driver errors onto the package sentinels so callers can
// dispatch with errors.Is without knowing about lib/pq.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == pqUniqueViolation:
			return fmt.Errorf("%w: %s", ErrAlreadyExists, pqErr.Constraint)
		case pqErr.Code == pqCheckViolation:
			return fmt.Errorf("%w: %s", ErrCheckViolation, pqErr.Constraint)
		case pqErr.Code.Class() == "08",
			pqErr.Code == pqAdminShutdown,
			pqErr.Code == pqCrashShutdown,
			pqErr.Code == pqCannotConnect:
			return fmt.Errorf("%w: %s", ErrUnavailable, pqErr.Message)
		}
		return err
	}

	// context errors satisfy net.Error; they belong to the caller, not the store.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
