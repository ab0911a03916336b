package database

import (
	"context"
	"database/sql/driver"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	retryBaseDelay = 50 * time.Millisecond
	retryMaxDelay  = 2 * time.Second
)

// busyRetryConnector opens SQLite connections whose writes are retried with
// backoff when the database reports SQLITE_BUSY or SQLITE_LOCKED. Pragmas are
// per connection, so each new connection runs them before joining the pool.
type busyRetryConnector struct {
	driver     driver.Driver
	dsn        string
	maxRetries int
	pragmas    []string
}

func (c *busyRetryConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.driver.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	rc := &busyRetryConn{Conn: conn, maxRetries: c.maxRetries}
	for _, pragma := range c.pragmas {
		if _, err := rc.ExecContext(ctx, "PRAGMA "+pragma, nil); err != nil {
			conn.Close()
			return nil, fmt.Errorf("PRAGMA %s: %w", pragma, err)
		}
	}
	return rc, nil
}

func (c *busyRetryConnector) Driver() driver.Driver {
	return c.driver
}

// busyRetryConn retries the context-aware entry points used by database/sql.
// Prepared statements go through the embedded connection untouched.
type busyRetryConn struct {
	driver.Conn
	maxRetries int
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range []string{
		"database is locked",
		"database table is locked",
		"SQLITE_BUSY",
		"SQLITE_LOCKED",
		"(5)",
		"(6)",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func backoff(attempt int) time.Duration {
	delay := retryBaseDelay * time.Duration(1<<attempt)
	delay += time.Duration(rand.Int63n(int64(delay / 4)))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	return delay
}

func retryBusy(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !isBusyError(err) || attempt >= maxRetries {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
}

func (c *busyRetryConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	var tx driver.Tx
	err := retryBusy(ctx, c.maxRetries, func() error {
		var err error
		if b, ok := c.Conn.(driver.ConnBeginTx); ok {
			tx, err = b.BeginTx(ctx, opts)
		} else {
			tx, err = c.Conn.Begin() //nolint:staticcheck // fallback for drivers without BeginTx
		}
		return err
	})
	return tx, err
}

func (c *busyRetryConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if p, ok := c.Conn.(driver.ConnPrepareContext); ok {
		return p.PrepareContext(ctx, query)
	}
	return c.Conn.Prepare(query)
}

func (c *busyRetryConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	execer, ok := c.Conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var result driver.Result
	err := retryBusy(ctx, c.maxRetries, func() error {
		var err error
		result, err = execer.ExecContext(ctx, query, args)
		return err
	})
	return result, err
}

func (c *busyRetryConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	queryer, ok := c.Conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	var rows driver.Rows
	err := retryBusy(ctx, c.maxRetries, func() error {
		var err error
		rows, err = queryer.QueryContext(ctx, query, args)
		return err
	})
	return rows, err
}

func (c *busyRetryConn) ResetSession(ctx context.Context) error {
	if r, ok := c.Conn.(driver.SessionResetter); ok {
		return r.ResetSession(ctx)
	}
	return nil
}

func (c *busyRetryConn) IsValid() bool {
	if v, ok := c.Conn.(driver.Validator); ok {
		return v.IsValid()
	}
	return true
}
