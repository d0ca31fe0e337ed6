package sqlxrepos

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core"
)

// psql builds PostgreSQL-flavored queries.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const pqUniqueViolation = "23505"

type repoBase struct {
	db *sqlx.DB
}

// ext returns the executor to use: an explicitly provided one (e.g. an open
// transaction) wins over the repository's own pool.
func (repo repoBase) ext(svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 {
		if e, ok := svcExec[0].(sqlx.ExtContext); ok {
			return e
		}
	}
	return repo.db
}

// trapNoRowsErr maps psql "no rows" err to the domain's not-found error
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

func isUniqueViolation(err error, constraint ...string) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	if !ok || pqErr.Code != pqUniqueViolation {
		return false
	}
	if len(constraint) > 0 {
		return pqErr.Constraint == constraint[0]
	}
	return true
}

// NewDB wraps an open connection for use by the repositories in this package.
func NewDB(db *sql.DB, conf *core.Config) *sqlx.DB {
	return sqlx.NewDb(db, conf.Database.Engine)
}
