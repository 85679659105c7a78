// Package adapter declares the capability set leech's core consumes to read
// and write table rows. spec.md §1 and §6 treat concrete adapters (CSV
// files, SQL) as external collaborators; this package only names the
// contract. Concrete implementations live in adapter/csvfile and
// adapter/sqlstore.
package adapter

import "context"

// Row is an ordered list of column values, in the schema's P-then-S order.
type Row []string

// Conn is a transaction handle returned by BeginTx. Every row operation
// during a patch application happens against exactly one Conn, and the
// transaction is closed with a single EndTx call.
type Conn interface {
	// Insert applies an insert of cols/vals (P-then-S order) for table tid.
	Insert(ctx context.Context, tid string, cols, vals []string) (bool, error)
	// Update applies an update of cols/vals for table tid.
	Update(ctx context.Context, tid string, cols, vals []string) (bool, error)
	// Delete applies a delete of cols/vals for table tid.
	Delete(ctx context.Context, tid string, cols, vals []string) (bool, error)
	// EndTx commits (ok == true) or rolls back (ok == false) the transaction.
	EndTx(ctx context.Context, ok bool) (bool, error)
}

// Adapter is the read/write capability set a configured table is bound to.
type Adapter interface {
	// ReadState returns every row currently held at locator, in file/table
	// order, each row ordered P-then-S.
	ReadState(ctx context.Context, locator string) ([]Row, error)
	// BeginTx opens a transaction scoped to locator.
	BeginTx(ctx context.Context, locator string) (Conn, error)
}
