package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/registrant"
)

var registrantColumns = []string{
	"id", "name", "username", "email", "phone", "category", "camp_type",
	"registration_status", "balance", "payment_access_granted",
	"payment_request_status", "payment_request_message", "admin_comment",
	"is_active", "roles", "password_hash", "created_at", "updated_at", "last_login",
}

type registrantRow struct {
	ID                    string         `db:"id"`
	Name                  null.String    `db:"name"`
	Username              null.String    `db:"username"`
	Email                 null.String    `db:"email"`
	Phone                 null.String    `db:"phone"`
	Category              null.String    `db:"category"`
	CampType              null.String    `db:"camp_type"`
	RegistrationStatus    string         `db:"registration_status"`
	Balance               int            `db:"balance"`
	PaymentAccessGranted  bool           `db:"payment_access_granted"`
	PaymentRequestStatus  string         `db:"payment_request_status"`
	PaymentRequestMessage null.String    `db:"payment_request_message"`
	AdminComment          null.String    `db:"admin_comment"`
	IsActive              null.Bool      `db:"is_active"`
	Roles                 pq.StringArray `db:"roles"`
	PasswordHash          null.Bytes     `db:"password_hash"`
	CreatedAt             null.Time      `db:"created_at"`
	UpdatedAt             null.Time      `db:"updated_at"`
	LastLogin             null.Time      `db:"last_login"`
}

type registrantRepository struct {
	repoBase
}

var _ registrant.Repository = (*registrantRepository)(nil) // interface compliance check

func NewRegistrantRepository(db *sqlx.DB) *registrantRepository {
	return &registrantRepository{repoBase{db: db}}
}

func (repo registrantRepository) pack(reg registrant.Registrant) registrantRow {
	return registrantRow{
		ID:                    reg.ID,
		Name:                  null.NewString(reg.Name, reg.Name != ""),
		Username:              null.NewString(reg.Username, reg.Username != ""),
		Email:                 null.NewString(reg.Email, reg.Email != ""),
		Phone:                 null.NewString(reg.Phone, reg.Phone != ""),
		Category:              null.NewString(reg.Category, reg.Category != ""),
		CampType:              null.NewString(reg.CampType, reg.CampType != ""),
		RegistrationStatus:    reg.RegistrationStatus,
		Balance:               reg.Balance,
		PaymentAccessGranted:  reg.PaymentAccessGranted,
		PaymentRequestStatus:  reg.PaymentRequestStatus,
		PaymentRequestMessage: null.NewString(reg.PaymentRequestMessage, reg.PaymentRequestMessage != ""),
		AdminComment:          null.NewString(reg.AdminComment, reg.AdminComment != ""),
		IsActive:              null.BoolFromPtr(reg.IsActive),
		Roles:                 pq.StringArray(reg.Roles),
		PasswordHash:          null.BytesFrom(reg.PasswordHash),
		CreatedAt:             null.NewTime(reg.CreatedAt.UTC(), !reg.CreatedAt.IsZero()),
		UpdatedAt:             null.NewTime(reg.UpdatedAt.UTC(), !reg.UpdatedAt.IsZero()),
		LastLogin:             null.NewTime(reg.LastLogin.UTC(), !reg.LastLogin.IsZero()),
	}
}

func (repo registrantRepository) unpack(row registrantRow) registrant.Registrant {
	return registrant.Registrant{
		ID:                    row.ID,
		Name:                  row.Name.String,
		Username:              row.Username.String,
		Email:                 row.Email.String,
		Phone:                 row.Phone.String,
		Category:              row.Category.String,
		CampType:              row.CampType.String,
		RegistrationStatus:    row.RegistrationStatus,
		Balance:               row.Balance,
		PaymentAccessGranted:  row.PaymentAccessGranted,
		PaymentRequestStatus:  row.PaymentRequestStatus,
		PaymentRequestMessage: row.PaymentRequestMessage.String,
		AdminComment:          row.AdminComment.String,
		IsActive:              row.IsActive.Ptr(),
		Roles:                 []string(row.Roles),
		PasswordHash:          row.PasswordHash.Bytes,
		CreatedAt:             row.CreatedAt.Time,
		UpdatedAt:             row.UpdatedAt.Time,
		LastLogin:             row.LastLogin.Time,
	}
}

func (repo registrantRepository) unpackSlice(rows []registrantRow) []registrant.Registrant {
	regs := make([]registrant.Registrant, 0, len(rows))
	for _, row := range rows {
		regs = append(regs, repo.unpack(row))
	}
	return regs
}

func (repo registrantRepository) values(row registrantRow) []interface{} {
	return []interface{}{
		row.ID, row.Name, row.Username, row.Email, row.Phone, row.Category, row.CampType,
		row.RegistrationStatus, row.Balance, row.PaymentAccessGranted,
		row.PaymentRequestStatus, row.PaymentRequestMessage, row.AdminComment,
		row.IsActive, row.Roles, row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin,
	}
}

func (repo registrantRepository) CheckUniqueness(ctx context.Context, username, email string, excluded []registrant.Registrant, exec ...core.DBExecutor) error {
	pred := sq.Or{}
	if username != "" {
		pred = append(pred, sq.Eq{"username": username})
	}
	if email != "" {
		pred = append(pred, sq.Eq{"email": email})
	}
	if len(pred) == 0 {
		return nil
	}

	q := psql.Select("COUNT(*)").From("registrant").Where(pred)
	if len(excluded) > 0 {
		ids := make([]string, 0, len(excluded))
		for _, reg := range excluded {
			ids = append(ids, reg.ID)
		}
		q = q.Where(sq.NotEq{"id": ids})
	}

	sqlQ, args, err := q.ToSql()
	if err != nil {
		return errors.Wrap(err, "building uniqueness query")
	}
	var count int
	if err = sqlx.GetContext(ctx, repo.ext(exec), &count, sqlQ, args...); err != nil {
		return errors.Wrap(err, "checking registrant uniqueness")
	}
	if count > 0 {
		return registrant.ErrAccountExists
	}
	return nil
}

func (repo registrantRepository) CreateRegistrant(ctx context.Context, reg registrant.Registrant, exec ...core.DBExecutor) (registrant.Registrant, error) {
	reg.ID = uuid.New().String()
	row := repo.pack(reg)

	sqlQ, args, err := psql.Insert("registrant").Columns(registrantColumns...).Values(repo.values(row)...).ToSql()
	if err != nil {
		return registrant.Registrant{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.ext(exec).ExecContext(ctx, sqlQ, args...); err != nil {
		if isUniqueViolation(err) {
			return registrant.Registrant{}, registrant.ErrAccountExists
		}
		return registrant.Registrant{}, errors.Wrap(err, "inserting registrant")
	}
	return repo.unpack(row), nil
}

func (repo registrantRepository) QueryRegistrants(ctx context.Context, filter *registrant.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]registrant.Registrant, error) {
	q := psql.Select(registrantColumns...).From("registrant")

	if filter != nil {
		// registrants with Name, Username or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q = q.Where(sq.Or{
				sq.ILike{"name": val},
				sq.ILike{"username": val},
				sq.ILike{"email": val},
			})
		}
		// registrants with any role that starts with any of the provided roles
		if len(filter.Roles) > 0 {
			rolePred := sq.Or{}
			for _, role := range filter.Roles {
				rolePred = append(rolePred, sq.Expr(
					"id IN (SELECT id FROM registrant, UNNEST(roles) reg_role WHERE reg_role ILIKE ?)", role+"%"))
			}
			q = q.Where(rolePred)
		}
		if filter.Status != "" {
			q = q.Where(sq.Eq{"registration_status": filter.Status})
		}
		if filter.Category != "" {
			q = q.Where(sq.Eq{"category": filter.Category})
		}
		if filter.IsActive != nil {
			q = q.Where(sq.Eq{"is_active": *filter.IsActive})
		}
		if !filter.CreatedFrom.IsZero() {
			q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
		}
		if !filter.CreatedTo.IsZero() {
			q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
		}
	}

	for _, ord := range ordering {
		q = q.OrderBy(ord.String())
	}

	sqlQ, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []registrantRow
	if err = sqlx.SelectContext(ctx, repo.ext(exec), &rows, sqlQ, args...); err != nil {
		return nil, errors.Wrap(err, "querying registrants")
	}
	return repo.unpackSlice(rows), nil
}

func (repo registrantRepository) GetRegistrant(ctx context.Context, filter registrant.GetFilter, exec ...core.DBExecutor) (registrant.Registrant, error) {
	q := psql.Select(registrantColumns...).From("registrant")

	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return registrant.Registrant{}, registrant.ErrNotFound
		}
		q = q.Where(sq.Eq{"id": filter.ID})
	case filter.Username != "":
		q = q.Where(sq.Eq{"username": filter.Username})
	case filter.Email != "":
		q = q.Where(sq.Eq{"email": filter.Email})
	case filter.UsernameOrEmail != nil:
		var email string
		uname := filter.UsernameOrEmail[0]
		if len(filter.UsernameOrEmail) == 2 {
			email = filter.UsernameOrEmail[1]
		}
		if email == "" {
			email = uname
		} else if uname == "" {
			uname = email
		}
		q = q.Where(sq.Or{sq.Eq{"username": uname}, sq.Eq{"email": email}})
	default:
		return registrant.Registrant{}, registrant.ErrNotFound
	}

	sqlQ, args, err := q.ToSql()
	if err != nil {
		return registrant.Registrant{}, errors.Wrap(err, "building get query")
	}
	var row registrantRow
	if err = sqlx.GetContext(ctx, repo.ext(exec), &row, sqlQ, args...); err != nil {
		return registrant.Registrant{}, trapNoRowsErr(err, registrant.ErrNotFound, "finding registrant")
	}
	return repo.unpack(row), nil
}

func (repo registrantRepository) UpdateRegistrant(ctx context.Context, reg registrant.Registrant, exec ...core.DBExecutor) (registrant.Registrant, error) {
	row := repo.pack(reg)

	sqlQ, args, err := psql.Update("registrant").
		SetMap(map[string]interface{}{
			"name":                    row.Name,
			"username":                row.Username,
			"email":                   row.Email,
			"phone":                   row.Phone,
			"category":                row.Category,
			"camp_type":               row.CampType,
			"registration_status":     row.RegistrationStatus,
			"balance":                 row.Balance,
			"payment_access_granted":  row.PaymentAccessGranted,
			"payment_request_status":  row.PaymentRequestStatus,
			"payment_request_message": row.PaymentRequestMessage,
			"admin_comment":           row.AdminComment,
			"is_active":               row.IsActive,
			"roles":                   row.Roles,
			"password_hash":           row.PasswordHash,
			"updated_at":              row.UpdatedAt,
			"last_login":              row.LastLogin,
		}).
		Where(sq.Eq{"id": reg.ID}).
		ToSql()
	if err != nil {
		return registrant.Registrant{}, errors.Wrap(err, "building update query")
	}

	res, err := repo.ext(exec).ExecContext(ctx, sqlQ, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return registrant.Registrant{}, registrant.ErrAccountExists
		}
		return registrant.Registrant{}, errors.Wrap(err, "updating registrant")
	}
	if cnt, err := res.RowsAffected(); err == nil && cnt == 0 {
		return registrant.Registrant{}, registrant.ErrNotFound
	}
	return reg, nil
}

func (repo registrantRepository) UpdateOrCreateRegistrant(ctx context.Context, reg registrant.Registrant, exec ...core.DBExecutor) (registrant.Registrant, error) {
	if reg.ID == "" {
		return repo.CreateRegistrant(ctx, reg, exec...)
	}
	return repo.UpdateRegistrant(ctx, reg, exec...)
}

func (repo registrantRepository) DeleteRegistrantsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	sqlQ, args, err := psql.Delete("registrant").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.ext(exec).ExecContext(ctx, sqlQ, args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting registrants")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo registrantRepository) RevokeStalePaymentAccess(ctx context.Context, exec ...core.DBExecutor) (int, error) {
	sqlQ, args, err := psql.Update("registrant").
		Set("payment_access_granted", false).
		Where(sq.Gt{"balance": 0}).
		Where(sq.Eq{"payment_access_granted": false}).
		Where(sq.NotEq{"payment_request_status": registrant.PaymentRequestApproved}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building sweep query")
	}
	res, err := repo.ext(exec).ExecContext(ctx, sqlQ, args...)
	if err != nil {
		return 0, errors.Wrap(err, "revoking stale payment access")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}
