package dummydb

import (
	"context"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/settings"
)

type settingsRepository struct {
	db *settingsTable
}

var _ settings.Repository = (*settingsRepository)(nil) // interface compliance check

func NewSettingsRepository(db *DB) settings.Repository {
	return &settingsRepository{db: db.settings}
}

func (repo *settingsRepository) CreateSettings(_ context.Context, s settings.Settings, _ ...core.DBExecutor) (settings.Settings, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.table[s.ID] = &s
	return s, nil
}

func (repo *settingsRepository) GetCurrentSettings(_ context.Context, _ ...core.DBExecutor) (settings.Settings, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var latest *settings.Settings
	for _, s := range repo.db.table {
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			latest = s
		}
	}
	if latest == nil {
		return settings.Settings{}, settings.ErrNotFound
	}
	return *latest, nil
}
