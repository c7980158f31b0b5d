package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ganot/quotagate/internal/repository"
)

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// wrapErr marks connection-level failures as repository.ErrUnavailable.
func wrapErr(op string, err error) error {
	if errors.Is(err, sql.ErrConnDone) || isBusy(err) {
		return fmt.Errorf("%s: %w: %v", op, repository.ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
