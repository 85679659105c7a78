// Package sqlstore implements the SQL reference adapter (spec.md §6),
// grounded in original_source/lib/leech_psql.c's callback contract --
// stubbed there against PostgreSQL, implemented here against SQLite via
// github.com/ncruces/go-sqlite3, the pure-Go driver the teacher's own
// internal/storage/sqlite package is built on (see its sql.Open("sqlite3",
// dbPath) call sites). A locator is "<table>" within the adapter's bound
// database; column order always matches the configured table's schema
// (primary fields then subsidiary fields).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/untoldecay/leech/internal/adapter"
)

// Adapter binds a SQLite database to the adapter.Adapter contract. Primary
// is the count of a row's leading columns that form its primary key.
type Adapter struct {
	db      *sql.DB
	Primary int
}

// Open opens (creating if necessary) the SQLite database at dbPath.
func Open(dbPath string, primaryCount int) (*Adapter, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %q: %w", dbPath, err)
	}
	return &Adapter{db: db, Primary: primaryCount}, nil
}

// Close releases the underlying database handle.
func (a *Adapter) Close() error { return a.db.Close() }

// EnsureTable creates locator's backing table if it does not already exist,
// with one TEXT column per name in cols (primary fields first).
func (a *Adapter) EnsureTable(ctx context.Context, locator string, cols []string) error {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = fmt.Sprintf("%q TEXT", c)
	}
	pk := strings.Join(quotedNames(cols[:a.Primary]), ", ")
	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s, PRIMARY KEY (%s))", locator, strings.Join(quoted, ", "), pk)
	_, err := a.db.ExecContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("sqlstore: creating table %q: %w", locator, err)
	}
	return nil
}

func quotedNames(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = fmt.Sprintf("%q", c)
	}
	return out
}

// ReadState returns every row in locator's table, ordered by rowid.
func (a *Adapter) ReadState(ctx context.Context, locator string) ([]adapter.Row, error) {
	cols, err := a.columns(ctx, locator)
	if err != nil {
		return nil, err
	}
	if cols == nil {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM %q ORDER BY rowid", strings.Join(quotedNames(cols), ", "), locator)
	rows, err := a.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: reading %q: %w", locator, err)
	}
	defer rows.Close()

	var result []adapter.Row
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning row in %q: %w", locator, err)
		}
		row := make(adapter.Row, len(cols))
		for i, v := range vals {
			row[i] = fmt.Sprintf("%v", v)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// columns returns locator's column names, or nil if the table does not
// exist yet (a table that has never been committed to has no rows either).
func (a *Adapter) columns(ctx context.Context, locator string) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", locator))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: inspecting %q: %w", locator, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("sqlstore: reading table_info for %q: %w", locator, err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// BeginTx opens a SQL transaction on the adapter's database. locator is not
// used: each row operation names its table through tid.
func (a *Adapter) BeginTx(ctx context.Context, locator string) (adapter.Conn, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: beginning transaction: %w", err)
	}
	return &conn{tx: tx}, nil
}

type conn struct {
	tx *sql.Tx
}

func (c *conn) Insert(ctx context.Context, tid string, cols, vals []string) (bool, error) {
	placeholders := make([]string, len(vals))
	args := make([]any, len(vals))
	for i, v := range vals {
		placeholders[i] = "?"
		args[i] = v
	}
	stmt := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)", tid, strings.Join(quotedNames(cols), ", "), strings.Join(placeholders, ", "))
	if _, err := c.tx.ExecContext(ctx, stmt, args...); err != nil {
		return false, fmt.Errorf("sqlstore: insert into %q: %w", tid, err)
	}
	return true, nil
}

func (c *conn) Update(ctx context.Context, tid string, cols, vals []string) (bool, error) {
	return c.upsertByPrimary(ctx, tid, cols, vals, "UPDATE")
}

func (c *conn) Delete(ctx context.Context, tid string, cols, vals []string) (bool, error) {
	return c.upsertByPrimary(ctx, tid, cols, vals, "DELETE")
}

// upsertByPrimary runs an UPDATE or DELETE against tid. The WHERE clause is
// built from the columns the SQL schema declares as tid's primary key (read
// via PRAGMA table_info; see EnsureTable), and every other column goes into
// the SET list. The caller's table
// is always backed by an adapter.Adapter configured with the right Primary
// count, so cols/vals arrive in the same P-then-S order EnsureTable used.
func (c *conn) upsertByPrimary(ctx context.Context, tid string, cols, vals []string, op string) (bool, error) {
	pk, err := c.primaryKeyColumns(ctx, tid)
	if err != nil {
		return false, err
	}
	pkSet := make(map[string]struct{}, len(pk))
	for _, name := range pk {
		pkSet[name] = struct{}{}
	}

	var where []string
	var whereArgs []any
	var setCols []string
	var setArgs []any
	for i, col := range cols {
		if _, isPK := pkSet[col]; isPK {
			where = append(where, fmt.Sprintf("%q = ?", col))
			whereArgs = append(whereArgs, vals[i])
			continue
		}
		setCols = append(setCols, fmt.Sprintf("%q = ?", col))
		setArgs = append(setArgs, vals[i])
	}

	var stmt string
	var args []any
	switch op {
	case "DELETE":
		stmt = fmt.Sprintf("DELETE FROM %q WHERE %s", tid, strings.Join(where, " AND "))
		args = whereArgs
	default:
		stmt = fmt.Sprintf("UPDATE %q SET %s WHERE %s", tid, strings.Join(setCols, ", "), strings.Join(where, " AND "))
		args = append(setArgs, whereArgs...)
	}

	res, err := c.tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return false, fmt.Errorf("sqlstore: %s on %q: %w", op, tid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlstore: checking rows affected on %q: %w", tid, err)
	}
	if n == 0 {
		return false, fmt.Errorf("sqlstore: %s on %q affected no rows", op, tid)
	}
	return true, nil
}

func (c *conn) primaryKeyColumns(ctx context.Context, tid string) ([]string, error) {
	rows, err := c.tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", tid))
	if err != nil {
		return nil, fmt.Errorf("sqlstore: inspecting %q: %w", tid, err)
	}
	defer rows.Close()

	var pk []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pkIndex int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pkIndex); err != nil {
			return nil, fmt.Errorf("sqlstore: reading table_info for %q: %w", tid, err)
		}
		if pkIndex > 0 {
			pk = append(pk, name)
		}
	}
	return pk, rows.Err()
}

func (c *conn) EndTx(ctx context.Context, ok bool) (bool, error) {
	if !ok {
		if err := c.tx.Rollback(); err != nil {
			return false, fmt.Errorf("sqlstore: rolling back: %w", err)
		}
		return true, nil
	}
	if err := c.tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlstore: committing: %w", err)
	}
	return true, nil
}
