package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/settings"
)

var settingsColumns = []string{
	"id", "payment_deadline", "payment_portal_open", "portal_registration_open",
	"registration_closed_message", "payment_closed_message", "created_at",
}

type settingsRow struct {
	ID                        string    `db:"id"`
	PaymentDeadline           null.Time `db:"payment_deadline"`
	PaymentPortalOpen         bool      `db:"payment_portal_open"`
	PortalRegistrationOpen    bool      `db:"portal_registration_open"`
	RegistrationClosedMessage string    `db:"registration_closed_message"`
	PaymentClosedMessage      string    `db:"payment_closed_message"`
	CreatedAt                 null.Time `db:"created_at"`
}

type settingsRepository struct {
	repoBase
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *sqlx.DB) *settingsRepository {
	return &settingsRepository{repoBase{db: db}}
}

func (repo settingsRepository) unpack(row settingsRow) settings.Settings {
	return settings.Settings{
		ID:                        row.ID,
		PaymentDeadline:           row.PaymentDeadline,
		PaymentPortalOpen:         row.PaymentPortalOpen,
		PortalRegistrationOpen:    row.PortalRegistrationOpen,
		RegistrationClosedMessage: row.RegistrationClosedMessage,
		PaymentClosedMessage:      row.PaymentClosedMessage,
		CreatedAt:                 row.CreatedAt.Time,
	}
}

func (repo settingsRepository) CreateSettings(ctx context.Context, s settings.Settings, exec ...core.DBExecutor) (settings.Settings, error) {
	sqlQ, args, err := psql.Insert("settings").Columns(settingsColumns...).Values(
		s.ID, s.PaymentDeadline, s.PaymentPortalOpen, s.PortalRegistrationOpen,
		s.RegistrationClosedMessage, s.PaymentClosedMessage,
		null.NewTime(s.CreatedAt.UTC(), !s.CreatedAt.IsZero()),
	).ToSql()
	if err != nil {
		return settings.Settings{}, errors.Wrap(err, "building insert query")
	}
	if _, err = repo.ext(exec).ExecContext(ctx, sqlQ, args...); err != nil {
		return settings.Settings{}, errors.Wrap(err, "inserting settings")
	}
	return s, nil
}

func (repo settingsRepository) GetCurrentSettings(ctx context.Context, exec ...core.DBExecutor) (settings.Settings, error) {
	sqlQ, args, err := psql.Select(settingsColumns...).From("settings").
		OrderBy("created_at DESC").Limit(1).ToSql()
	if err != nil {
		return settings.Settings{}, errors.Wrap(err, "building get query")
	}
	var row settingsRow
	if err = sqlx.GetContext(ctx, repo.ext(exec), &row, sqlQ, args...); err != nil {
		return settings.Settings{}, trapNoRowsErr(err, settings.ErrNotFound, "finding current settings")
	}
	return repo.unpack(row), nil
}
