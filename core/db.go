package core

import (
	"context"
	"database/sql"
)

type (
	// DBExecutor is the common surface of *sql.DB and *sql.Tx. Repository
	// methods take it as an optional trailing argument so a service can run
	// several calls inside one transaction.
	DBExecutor interface {
		Exec(query string, args ...interface{}) (sql.Result, error)
		ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
		Query(query string, args ...interface{}) (*sql.Rows, error)
		QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
		QueryRow(query string, args ...interface{}) *sql.Row
		QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	}

	// DB is a transaction-capable handle; satisfied by *sql.DB.
	DB interface {
		DBExecutor

		Begin() (*sql.Tx, error)
		BeginTx(context.Context, *sql.TxOptions) (*sql.Tx, error)
	}

	// DBTransactor is an open transaction; satisfied by *sql.Tx.
	DBTransactor interface {
		DBExecutor

		Commit() error
		Rollback() error
	}
)

// DBOrdering is a single ORDER BY term, typically parsed from an
// `ordering` query parameter.
type DBOrdering struct {
	Field     string
	Ascending bool
}

// String renders the term as a SQL ORDER BY clause fragment. Field must
// already be a known column name; it is not escaped here.
func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
