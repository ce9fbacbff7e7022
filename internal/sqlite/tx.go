package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/cardboxapp/cardbox/pkg/types"
)

// op is the query scope for a single logical operation. Every statement an
// operation runs goes through the same *sql.Tx, so a failure anywhere rolls
// back the whole change. The scope is created per operation; nothing about
// statement building is shared process-wide.
type op struct {
	tx *sql.Tx
}

// runTx executes fn inside one transaction. On error the transaction is
// rolled back and the error returned unchanged; commit and begin failures
// are reported as storage errors.
func (b *Backend) runTx(fn func(*op) error) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", types.ErrStorage, err)
	}
	if err := fn(&op{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", types.ErrStorage, err)
	}
	return nil
}

// exec runs a parameterized statement; what names the statement for error
// reporting.
func (o *op) exec(what, query string, args ...any) error {
	if _, err := o.tx.Exec(query, args...); err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrStorage, what, err)
	}
	return nil
}

// strings runs a parameterized query whose rows are single strings.
func (o *op) strings(what, query string, args ...any) ([]string, error) {
	return queryStrings(o.tx, what, query, args...)
}

// intval runs a parameterized query returning a single integer. Callers
// COALESCE in the query so missing rows scan as zero.
func (o *op) intval(what, query string, args ...any) (int, error) {
	var n int
	if err := o.tx.QueryRow(query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", types.ErrStorage, what, err)
	}
	return n, nil
}

// exists reports whether a parameterized query returns at least one row.
func (o *op) exists(what, query string, args ...any) (bool, error) {
	var one int
	err := o.tx.QueryRow(query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", types.ErrStorage, what, err)
	}
	return true, nil
}

// storagef wraps a read-path error in the storage taxonomy.
func storagef(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", types.ErrStorage, what, err)
}
