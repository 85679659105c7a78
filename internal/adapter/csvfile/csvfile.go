// Package csvfile implements the CSV reference adapter (spec.md §6),
// grounded in original_source/lib/leech_csv.c's load_callback /
// begin_tx_callback / insert_callback / delete_callback / update_callback
// contract -- stubbed there, implemented here on top of internal/csvcodec.
// A transaction buffers the whole file in memory and replaces it atomically
// on commit, matching the write-temp-then-rename pattern used throughout
// the chain store (e.g. cmd/bd/sync.go's writeFile in the teacher).
package csvfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/untoldecay/leech/internal/adapter"
	"github.com/untoldecay/leech/internal/csvcodec"
)

// Adapter reads and writes a single CSV file per configured table. Primary
// identifies how many of each row's leading columns form the primary key,
// matching the table's schema (a table's Primary field count).
type Adapter struct {
	Primary   int
	HasHeader bool
}

// New returns a csv file adapter for a table whose primary key occupies the
// first primaryCount columns of every row.
func New(primaryCount int, hasHeader bool) *Adapter {
	return &Adapter{Primary: primaryCount, HasHeader: hasHeader}
}

// ReadState parses the file at locator and returns its data rows (the
// header, if any, is stripped).
func (a *Adapter) ReadState(ctx context.Context, locator string) ([]adapter.Row, error) {
	data, err := os.ReadFile(locator)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("csvfile: reading %q: %w", locator, err)
	}
	table, err := csvcodec.ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("csvfile: parsing %q: %w", locator, err)
	}
	if len(table) == 1 && len(table[0]) == 1 && table[0][0] == "" {
		return nil, nil
	}
	start := 0
	if a.HasHeader && len(table) > 0 {
		start = 1
	}
	rows := make([]adapter.Row, 0, len(table)-start)
	for _, r := range table[start:] {
		rows = append(rows, adapter.Row(r))
	}
	return rows, nil
}

// BeginTx loads locator's current contents into memory for the duration of
// the transaction.
func (a *Adapter) BeginTx(ctx context.Context, locator string) (adapter.Conn, error) {
	var header []string
	var rows [][]string

	data, err := os.ReadFile(locator)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("csvfile: reading %q: %w", locator, err)
	}
	if err == nil {
		table, perr := csvcodec.ParseTable(data)
		if perr != nil {
			return nil, fmt.Errorf("csvfile: parsing %q: %w", locator, perr)
		}
		if !(len(table) == 1 && len(table[0]) == 1 && table[0][0] == "") {
			if a.HasHeader && len(table) > 0 {
				header = table[0]
				table = table[1:]
			}
			rows = table
		}
	}

	return &conn{locator: locator, primary: a.Primary, header: header, rows: rows}, nil
}

type conn struct {
	locator string
	primary int
	header  []string
	rows    [][]string
}

func (c *conn) indexOf(vals []string) int {
	for i, row := range c.rows {
		if rowKeyEqual(row, vals, c.primary) {
			return i
		}
	}
	return -1
}

func rowKeyEqual(row, vals []string, primary int) bool {
	if len(row) < primary || len(vals) < primary {
		return false
	}
	for i := 0; i < primary; i++ {
		if row[i] != vals[i] {
			return false
		}
	}
	return true
}

func (c *conn) Insert(ctx context.Context, tid string, cols, vals []string) (bool, error) {
	if c.indexOf(vals) >= 0 {
		return false, fmt.Errorf("csvfile: insert: row with this primary key already exists")
	}
	c.rows = append(c.rows, append([]string(nil), vals...))
	return true, nil
}

func (c *conn) Update(ctx context.Context, tid string, cols, vals []string) (bool, error) {
	i := c.indexOf(vals)
	if i < 0 {
		return false, fmt.Errorf("csvfile: update: no row with this primary key")
	}
	c.rows[i] = append([]string(nil), vals...)
	return true, nil
}

func (c *conn) Delete(ctx context.Context, tid string, cols, vals []string) (bool, error) {
	i := c.indexOf(vals)
	if i < 0 {
		return false, fmt.Errorf("csvfile: delete: no row with this primary key")
	}
	c.rows = append(c.rows[:i], c.rows[i+1:]...)
	return true, nil
}

func (c *conn) EndTx(ctx context.Context, ok bool) (bool, error) {
	if !ok {
		return true, nil
	}
	table := csvcodec.Table{}
	if c.header != nil {
		table = append(table, c.header)
	}
	table = append(table, c.rows...)

	dir := filepath.Dir(c.locator)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("csvfile: creating %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(c.locator)+".tmp-*")
	if err != nil {
		return false, fmt.Errorf("csvfile: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(csvcodec.ComposeTable(table)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return false, fmt.Errorf("csvfile: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("csvfile: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.locator); err != nil {
		os.Remove(tmpPath)
		return false, fmt.Errorf("csvfile: renaming temp file into place: %w", err)
	}
	return true, nil
}
