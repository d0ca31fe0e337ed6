package settings_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kampi/core/settings"
	dummydb "github.com/trezcool/kampi/storage/database/dummy"
)

func setup(t *testing.T) settings.Service {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)
	return settings.NewService(dummydb.NewSettingsRepository(db))
}

func TestService_Current_defaultsToAllOpen(t *testing.T) {
	svc := setup(t)

	conf, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.True(t, conf.PaymentPortalOpen)
	assert.True(t, conf.PortalRegistrationOpen)
	assert.False(t, conf.PaymentDeadline.Valid)
}

func TestService_Create_latestSnapshotWins(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, settings.NewSettings{
		PaymentPortalOpen:      true,
		PortalRegistrationOpen: true,
	})
	require.NoError(t, err)

	deadline := time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC)
	latest, err := svc.Create(ctx, settings.NewSettings{
		PaymentDeadline:           null.TimeFrom(deadline),
		PaymentPortalOpen:         false,
		PortalRegistrationOpen:    false,
		RegistrationClosedMessage: "See you next year!",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, latest.ID)

	conf, err := svc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, conf.ID)
	assert.False(t, conf.PaymentPortalOpen)
	assert.False(t, conf.PortalRegistrationOpen)
	assert.Equal(t, "See you next year!", conf.RegistrationClosedMessage)
	require.True(t, conf.PaymentDeadline.Valid)
	assert.True(t, conf.PaymentDeadline.Time.Equal(deadline))
}
