package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/slip"
)

var slipColumns = []string{"id", "registrant_id", "code", "created_at"}

type slipRow struct {
	ID           string    `db:"id"`
	RegistrantID string    `db:"registrant_id"`
	Code         string    `db:"code"`
	CreatedAt    null.Time `db:"created_at"`
}

type slipRepository struct {
	repoBase
}

var _ slip.Repository = (*slipRepository)(nil) // interface compliance check

func NewSlipRepository(db *sqlx.DB) *slipRepository {
	return &slipRepository{repoBase{db: db}}
}

func (repo slipRepository) unpack(row slipRow) slip.Slip {
	return slip.Slip{
		ID:           row.ID,
		RegistrantID: row.RegistrantID,
		Code:         row.Code,
		CreatedAt:    row.CreatedAt.Time,
	}
}

func (repo slipRepository) get(ctx context.Context, pred sq.Eq, exec []core.DBExecutor) (slip.Slip, error) {
	sqlQ, args, err := psql.Select(slipColumns...).From("slip").Where(pred).ToSql()
	if err != nil {
		return slip.Slip{}, errors.Wrap(err, "building get query")
	}
	var row slipRow
	if err = sqlx.GetContext(ctx, repo.ext(exec), &row, sqlQ, args...); err != nil {
		return slip.Slip{}, trapNoRowsErr(err, slip.ErrNotFound, "finding slip")
	}
	return repo.unpack(row), nil
}

func (repo slipRepository) GetSlipByRegistrantID(ctx context.Context, registrantID string, exec ...core.DBExecutor) (slip.Slip, error) {
	if _, err := uuid.Parse(registrantID); err != nil {
		return slip.Slip{}, slip.ErrNotFound
	}
	return repo.get(ctx, sq.Eq{"registrant_id": registrantID}, exec)
}

func (repo slipRepository) GetSlipByCode(ctx context.Context, code string, exec ...core.DBExecutor) (slip.Slip, error) {
	return repo.get(ctx, sq.Eq{"code": code}, exec)
}

func (repo slipRepository) CreateSlip(ctx context.Context, slp slip.Slip, exec ...core.DBExecutor) (slip.Slip, error) {
	slp.ID = uuid.New().String()

	sqlQ, args, err := psql.Insert("slip").Columns(slipColumns...).Values(
		slp.ID, slp.RegistrantID, slp.Code, null.NewTime(slp.CreatedAt.UTC(), !slp.CreatedAt.IsZero()),
	).ToSql()
	if err != nil {
		return slip.Slip{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.ext(exec).ExecContext(ctx, sqlQ, args...); err != nil {
		if isUniqueViolation(err, "slip_code_key") {
			return slip.Slip{}, slip.ErrCodeExists
		}
		return slip.Slip{}, errors.Wrap(err, "inserting slip")
	}
	return slp, nil
}
