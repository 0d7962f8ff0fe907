package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/noah-isme/pantry-sync-api/pkg/errors"
)

// DefaultStoreTimeout bounds store calls when no timeout is configured.
const DefaultStoreTimeout = 5 * time.Second

const uniqueViolation = "23505"

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// mapStoreError classifies driver errors into the typed taxonomy. An expired
// or cancelled context always means the store is unavailable.
func mapStoreError(ctx context.Context, err error, op string) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavail.Code, appErrors.ErrStoreUnavail.Status, op+": "+ctx.Err().Error())
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, op+": not found")
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == uniqueViolation:
			return appErrors.Wrap(err, appErrors.ErrAlreadyExists.Code, appErrors.ErrAlreadyExists.Status, uniqueMessage(pqErr))
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57":
			return appErrors.Wrap(err, appErrors.ErrStoreUnavail.Code, appErrors.ErrStoreUnavail.Status, op+": store unavailable")
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.As(err, &netErr) {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavail.Code, appErrors.ErrStoreUnavail.Status, op+": store unavailable")
	}

	return fmt.Errorf("%s: %w", op, err)
}

func uniqueMessage(err *pq.Error) string {
	if strings.Contains(err.Constraint, "shoppers_family_name") {
		return "family is already assigned to another shopper"
	}
	if err.Constraint != "" {
		return fmt.Sprintf("record violates %s", err.Constraint)
	}
	return appErrors.ErrAlreadyExists.Message
}
