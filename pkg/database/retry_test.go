package database

import (
	"context"
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Messages as the two drivers behind sqliteshim report them.
var (
	errCgoBusy     = errors.New("database is locked")
	errCgoTable    = errors.New("database table is locked: dispositions")
	errModerncBusy = errors.New("database is locked (5) (SQLITE_BUSY)")
	errModerncLock = errors.New("database table is locked (6) (SQLITE_LOCKED)")
)

func TestIsBusyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cgo busy", errCgoBusy, true},
		{"cgo table locked", errCgoTable, true},
		{"modernc busy", errModerncBusy, true},
		{"modernc locked", errModerncLock, true},
		{"busy under a stack", errors.WithStack(errModerncBusy), true},
		{"busy wrapped by insert", errors.Wrap(errCgoBusy, "insert disposition"), true},
		{"busy wrapped with %w", fmt.Errorf("journal: %w", errModerncBusy), true},
		{"duplicate run row", errors.New("UNIQUE constraint failed: dispositions.id"), false},
		{"missing table", errors.New("no such table: dispositions"), false},
		{"read-only output dir", errors.New("attempt to write a readonly database"), false},
		{"driver skip", driver.ErrSkip, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isBusyError(tt.err))
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	t.Parallel()

	t.Run("a free journal is written once", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := retryWithBackoff(context.Background(), 3, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("waits out another writer", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := retryWithBackoff(context.Background(), 3, func() error {
			calls++
			if calls < 3 {
				return errModerncBusy
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("schema errors are not retried", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := retryWithBackoff(context.Background(), 3, func() error {
			calls++
			return errors.New("no such table: dispositions")
		})
		require.EqualError(t, err, "no such table: dispositions")
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up with the last busy error", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := retryWithBackoff(context.Background(), 2, func() error {
			calls++
			return errCgoBusy
		})
		require.ErrorIs(t, err, errCgoBusy)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops when the run is cancelled", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		calls := 0
		err := retryWithBackoff(ctx, 10, func() error {
			calls++
			return errCgoBusy
		})
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, calls, 11)
	})
}

// busyConn is a driver connection whose calls report SQLITE_BUSY a set number
// of times before going through.
type busyConn struct {
	busyFor int
	err     error
	execs   int
	begins  int
}

func (c *busyConn) fail(n *int) error {
	*n++
	if *n <= c.busyFor {
		return c.err
	}
	return nil
}

func (c *busyConn) Prepare(string) (driver.Stmt, error) {
	return &busyStmt{conn: c}, nil
}

func (c *busyConn) Close() error {
	return nil
}

func (c *busyConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *busyConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if err := c.fail(&c.begins); err != nil {
		return nil, err
	}
	return busyTx{}, nil
}

func (c *busyConn) ExecContext(context.Context, string, []driver.NamedValue) (driver.Result, error) {
	if err := c.fail(&c.execs); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}

type busyTx struct{}

func (busyTx) Commit() error   { return nil }
func (busyTx) Rollback() error { return nil }

type busyStmt struct {
	conn  *busyConn
	execs int
}

func (s *busyStmt) Close() error  { return nil }
func (s *busyStmt) NumInput() int { return -1 }

func (s *busyStmt) Exec([]driver.Value) (driver.Result, error) {
	if err := s.conn.fail(&s.execs); err != nil {
		return nil, err
	}
	return driver.RowsAffected(1), nil
}

func (s *busyStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("not supported")
}

func TestRetryConn(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	const insert = "INSERT INTO dispositions (run_id) VALUES (?)"

	t.Run("exec is retried through busy errors", func(t *testing.T) {
		t.Parallel()
		inner := &busyConn{busyFor: 2, err: errModerncBusy}
		conn := &retryConn{conn: inner, maxRetries: 3}

		res, err := conn.ExecContext(ctx, insert, []driver.NamedValue{{Ordinal: 1, Value: "run-a"}})
		require.NoError(t, err)
		n, _ := res.RowsAffected()
		assert.EqualValues(t, 1, n)
		assert.Equal(t, 3, inner.execs)
	})

	t.Run("begin is retried through locked tables", func(t *testing.T) {
		t.Parallel()
		inner := &busyConn{busyFor: 1, err: errCgoTable}
		conn := &retryConn{conn: inner, maxRetries: 3}

		tx, err := conn.BeginTx(ctx, driver.TxOptions{})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
		assert.Equal(t, 2, inner.begins)
	})

	t.Run("prepared statements retry too", func(t *testing.T) {
		t.Parallel()
		inner := &busyConn{busyFor: 1, err: errCgoBusy}
		conn := &retryConn{conn: inner, maxRetries: 3}

		stmt, err := conn.PrepareContext(ctx, insert)
		require.NoError(t, err)
		_, err = stmt.(driver.StmtExecContext).ExecContext(ctx, []driver.NamedValue{{Ordinal: 1, Value: "run-a"}})
		require.NoError(t, err)
		assert.Equal(t, 2, stmt.(*retryStmt).stmt.(*busyStmt).execs)
	})

	t.Run("retries run out", func(t *testing.T) {
		t.Parallel()
		inner := &busyConn{busyFor: 10, err: errModerncLock}
		conn := &retryConn{conn: inner, maxRetries: 1}

		_, err := conn.ExecContext(ctx, insert, nil)
		require.ErrorIs(t, err, errModerncLock)
		assert.Equal(t, 2, inner.execs)
	})

	t.Run("other failures pass straight through", func(t *testing.T) {
		t.Parallel()
		readOnly := errors.New("attempt to write a readonly database")
		inner := &busyConn{busyFor: 10, err: readOnly}
		conn := &retryConn{conn: inner, maxRetries: 3}

		_, err := conn.ExecContext(ctx, insert, nil)
		require.ErrorIs(t, err, readOnly)
		assert.Equal(t, 1, inner.execs)
	})
}

func TestRetry_ReturnsValue(t *testing.T) {
	t.Parallel()

	calls := 0
	id, err := retry(context.Background(), 2, func() (int64, error) {
		calls++
		if calls == 1 {
			return 0, errModerncBusy
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	assert.Equal(t, 2, calls)
}
