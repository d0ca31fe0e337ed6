package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/slip"
)

type slipRepository struct {
	db *slipTable
}

var _ slip.Repository = (*slipRepository)(nil) // interface compliance check

func NewSlipRepository(db *DB) slip.Repository {
	return &slipRepository{db: db.slip}
}

func (repo *slipRepository) GetSlipByRegistrantID(_ context.Context, registrantID string, _ ...core.DBExecutor) (slip.Slip, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, slp := range repo.db.table {
		if slp.RegistrantID == registrantID {
			return *slp, nil
		}
	}
	return slip.Slip{}, slip.ErrNotFound
}

func (repo *slipRepository) GetSlipByCode(_ context.Context, code string, _ ...core.DBExecutor) (slip.Slip, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, slp := range repo.db.table {
		if slp.Code == code {
			return *slp, nil
		}
	}
	return slip.Slip{}, slip.ErrNotFound
}

func (repo *slipRepository) CreateSlip(_ context.Context, slp slip.Slip, _ ...core.DBExecutor) (slip.Slip, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.Code == slp.Code {
			return slip.Slip{}, slip.ErrCodeExists
		}
	}
	slp.ID = uuid.New().String()
	repo.db.table[slp.ID] = &slp
	return slp, nil
}
