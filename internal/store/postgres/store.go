// Package postgres is the production store backend on database/sql + pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"workspace-platform/internal/store"
	"workspace-platform/pkg/utils"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// conn carries the read methods; it runs against the pool or a transaction.
type conn struct {
	q queryer
}

// txConn adds the write methods, which only exist inside InTx.
type txConn struct {
	conn
}

type Store struct {
	conn
	db *sql.DB
}

var (
	_ store.Store = (*Store)(nil)
	_ store.Tx    = (*txConn)(nil)
)

func New(db *sql.DB) *Store {
	return &Store{conn: conn{q: db}, db: db}
}

// InTx runs fn at READ COMMITTED. Quota checks rely on LockQuota for
// exclusion rather than on the isolation level; each statement after the
// lock sees rows committed by the previous lock holder.
func (s *Store) InTx(ctx context.Context, fn store.TxFunc) error {
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	return utils.WithTx(ctx, s.db, opts, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &txConn{conn: conn{q: tx}})
	})
}

/* ===================== SQL HELPERS ===================== */

// args accumulates positional parameters.
type args []any

// add appends v and returns its placeholder.
func (a *args) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

type conds struct {
	args
	parts []string
}

// where adds a predicate; every "?" in cond refers to v.
func (c *conds) where(cond string, v any) {
	c.parts = append(c.parts, strings.ReplaceAll(cond, "?", c.add(v)))
}

func (c *conds) sql() string {
	if len(c.parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.parts, " AND ")
}

type assignments struct {
	args
	parts []string
}

func (a *assignments) set(col string, v any) {
	a.parts = append(a.parts, col+" = "+a.add(v))
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (c conn) count(ctx context.Context, query string, a []any) (int, error) {
	var n int
	if err := c.q.QueryRowContext(ctx, query, a...).Scan(&n); err != nil {
		return 0, mapPostgresError(err)
	}
	return n, nil
}

func expectOne(res sql.Result, err error) error {
	if err != nil {
		return mapPostgresError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
