package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net"

	"github.com/lib/pq"

	"github.com/aslima544/consultorio-api/pkg/errors"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeExclusionViolation  = "23P01"
	codeCheckViolation      = "23514"
)

// mapError turns driver errors into application errors. Anything it does not
// recognise is wrapped with the failing operation.
func mapError(err error, resource, op string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFound(resource, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return errors.NewUnavailable(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeExclusionViolation:
			return errors.NewConflict("room already booked for this time", err)
		case codeUniqueViolation:
			return errors.NewConflict(fmt.Sprintf("%s already exists", resource), err)
		case codeForeignKeyViolation:
			return errors.NewBadRequest("referenced record does not exist", err)
		case codeCheckViolation:
			return errors.NewBadRequest(fmt.Sprintf("invalid %s", resource), err)
		}
		if pqErr.Code.Class() == "08" || pqErr.Code.Class() == "57" {
			return errors.NewUnavailable(err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.NewUnavailable(err)
	}

	return fmt.Errorf("failed to %s %s: %w", op, resource, err)
}
