package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/payment"
)

var paymentColumns = []string{
	"id", "registrant_id", "amount", "payment_type", "camp_type",
	"receipt_url", "status", "admin_comment", "created_at", "updated_at",
}

type paymentRow struct {
	ID           string      `db:"id"`
	RegistrantID string      `db:"registrant_id"`
	Amount       int         `db:"amount"`
	PaymentType  string      `db:"payment_type"`
	CampType     string      `db:"camp_type"`
	ReceiptURL   null.String `db:"receipt_url"`
	Status       string      `db:"status"`
	AdminComment null.String `db:"admin_comment"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
}

type paymentRepository struct {
	repoBase
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) *paymentRepository {
	return &paymentRepository{repoBase{db: db}}
}

func (repo paymentRepository) pack(pmt payment.Payment) paymentRow {
	return paymentRow{
		ID:           pmt.ID,
		RegistrantID: pmt.RegistrantID,
		Amount:       pmt.Amount,
		PaymentType:  pmt.PaymentType,
		CampType:     pmt.CampType,
		ReceiptURL:   null.NewString(pmt.ReceiptURL, pmt.ReceiptURL != ""),
		Status:       pmt.Status,
		AdminComment: null.NewString(pmt.AdminComment, pmt.AdminComment != ""),
		CreatedAt:    null.NewTime(pmt.CreatedAt.UTC(), !pmt.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(pmt.UpdatedAt.UTC(), !pmt.UpdatedAt.IsZero()),
	}
}

func (repo paymentRepository) unpack(row paymentRow) payment.Payment {
	return payment.Payment{
		ID:           row.ID,
		RegistrantID: row.RegistrantID,
		Amount:       row.Amount,
		PaymentType:  row.PaymentType,
		CampType:     row.CampType,
		ReceiptURL:   row.ReceiptURL.String,
		Status:       row.Status,
		AdminComment: row.AdminComment.String,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

func (repo paymentRepository) CreatePayment(ctx context.Context, pmt payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	pmt.ID = uuid.New().String()
	row := repo.pack(pmt)

	sqlQ, args, err := psql.Insert("payment").Columns(paymentColumns...).Values(
		row.ID, row.RegistrantID, row.Amount, row.PaymentType, row.CampType,
		row.ReceiptURL, row.Status, row.AdminComment, row.CreatedAt, row.UpdatedAt,
	).ToSql()
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.ext(exec).ExecContext(ctx, sqlQ, args...); err != nil {
		return payment.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return repo.unpack(row), nil
}

func (repo paymentRepository) GetPaymentByID(ctx context.Context, id string, exec ...core.DBExecutor) (payment.Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return payment.Payment{}, payment.ErrNotFound
	}

	sqlQ, args, err := psql.Select(paymentColumns...).From("payment").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "building get query")
	}
	var row paymentRow
	if err = sqlx.GetContext(ctx, repo.ext(exec), &row, sqlQ, args...); err != nil {
		return payment.Payment{}, trapNoRowsErr(err, payment.ErrNotFound, "finding payment")
	}
	return repo.unpack(row), nil
}

func (repo paymentRepository) QueryPayments(ctx context.Context, filter *payment.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]payment.Payment, error) {
	q := psql.Select(paymentColumns...).From("payment")

	if filter != nil {
		if filter.RegistrantID != "" {
			q = q.Where(sq.Eq{"registrant_id": filter.RegistrantID})
		}
		if filter.Status != "" {
			q = q.Where(sq.Eq{"status": filter.Status})
		}
		if !filter.CreatedFrom.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
	}

	if len(ordering) == 0 {
		q = q.OrderBy("created_at DESC")
	}
	for _, ord := range ordering {
		q = q.OrderBy(ord.String())
	}

	sqlQ, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []paymentRow
	if err = sqlx.SelectContext(ctx, repo.ext(exec), &rows, sqlQ, args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}

	pmts := make([]payment.Payment, 0, len(rows))
	for _, row := range rows {
		pmts = append(pmts, repo.unpack(row))
	}
	return pmts, nil
}

func (repo paymentRepository) UpdatePayment(ctx context.Context, pmt payment.Payment, exec ...core.DBExecutor) (payment.Payment, error) {
	row := repo.pack(pmt)

	sqlQ, args, err := psql.Update("payment").
		SetMap(map[string]interface{}{
			"status":        row.Status,
			"admin_comment": row.AdminComment,
			"receipt_url":   row.ReceiptURL,
			"updated_at":    row.UpdatedAt,
		}).
		Where(sq.Eq{"id": pmt.ID}).
		ToSql()
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "building update query")
	}

	res, err := repo.ext(exec).ExecContext(ctx, sqlQ, args...)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "updating payment")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return payment.Payment{}, payment.ErrNotFound
	}
	return pmt, nil
}

// ApprovePayment writes the approved status and applies the balance decrement
// (clamped at zero) in a single transaction so a crash between the two writes
// cannot leave the ledger inconsistent. The status write is guarded on
// `status <> 'approved'` so concurrent approvals decrement at most once.
func (repo paymentRepository) ApprovePayment(ctx context.Context, pmt payment.Payment) (payment.Payment, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	row := repo.pack(pmt)
	sqlQ, args, err := psql.Update("payment").
		SetMap(map[string]interface{}{
			"status":        row.Status,
			"admin_comment": row.AdminComment,
			"receipt_url":   row.ReceiptURL,
			"updated_at":    row.UpdatedAt,
		}).
		Where(sq.Eq{"id": pmt.ID}).
		Where(sq.NotEq{"status": payment.StatusApproved}).
		ToSql()
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "building update query")
	}
	res, err := tx.ExecContext(ctx, sqlQ, args...)
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "updating payment")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		// no row changed: the payment is gone, or a concurrent approval
		// already landed and the decrement must not run again
		return repo.GetPaymentByID(ctx, pmt.ID, tx)
	}

	sqlQ, args, err = psql.Update("registrant").
		Set("balance", sq.Expr("GREATEST(balance - ?, 0)", pmt.Amount)).
		Set("updated_at", pmt.UpdatedAt.UTC()).
		Where(sq.Eq{"id": pmt.RegistrantID}).
		ToSql()
	if err != nil {
		return payment.Payment{}, errors.Wrap(err, "building decrement query")
	}
	if _, err = tx.ExecContext(ctx, sqlQ, args...); err != nil {
		return payment.Payment{}, errors.Wrap(err, "decrementing balance")
	}

	if err = tx.Commit(); err != nil {
		return payment.Payment{}, errors.Wrap(err, "committing transaction")
	}
	return pmt, nil
}
