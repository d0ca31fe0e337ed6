package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/payment"
)

type paymentRepository struct {
	db    *paymentTable
	regDB *registrantTable
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db.payment, regDB: db.registrant}
}

func (repo *paymentRepository) query() []payment.Payment {
	pmts := make([]payment.Payment, 0, len(repo.db.table))
	for _, pmt := range repo.db.table {
		pmts = append(pmts, *pmt)
	}
	return pmts
}

func (repo *paymentRepository) CreatePayment(_ context.Context, pmt payment.Payment, _ ...core.DBExecutor) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pmt.ID = uuid.New().String()
	repo.db.table[pmt.ID] = &pmt
	return pmt, nil
}

func (repo *paymentRepository) GetPaymentByID(_ context.Context, id string, _ ...core.DBExecutor) (payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pmt, ok := repo.db.table[id]; ok {
		return *pmt, nil
	}
	return payment.Payment{}, payment.ErrNotFound
}

func (repo *paymentRepository) QueryPayments(_ context.Context, filter *payment.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]payment.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pmts := repo.query()

	if filter != nil {
		if filter.RegistrantID != "" {
			var filtered []payment.Payment
			for _, pmt := range pmts {
				if pmt.RegistrantID == filter.RegistrantID {
					filtered = append(filtered, pmt)
				}
			}
			pmts = filtered
		}
		if pmts != nil && filter.Status != "" {
			var filtered []payment.Payment
			for _, pmt := range pmts {
				if pmt.Status == filter.Status {
					filtered = append(filtered, pmt)
				}
			}
			pmts = filtered
		}
		if pmts != nil && !filter.CreatedFrom.IsZero() {
			var filtered []payment.Payment
			timeUTC := filter.CreatedFrom.UTC()
			for _, pmt := range pmts {
				if pmt.CreatedAt.Equal(timeUTC) || pmt.CreatedAt.After(timeUTC) {
					filtered = append(filtered, pmt)
				}
			}
			pmts = filtered
		}
		if pmts != nil && !filter.CreatedTo.IsZero() {
			var filtered []payment.Payment
			timeUTC := filter.CreatedTo.UTC()
			for _, pmt := range pmts {
				if pmt.CreatedAt.Before(timeUTC) || pmt.CreatedAt.Equal(timeUTC) {
					filtered = append(filtered, pmt)
				}
			}
			pmts = filtered
		}
	}

	// most recent first unless told otherwise
	asc := false
	if len(ordering) > 0 && ordering[0].Field == "created_at" {
		asc = ordering[0].Ascending
	}
	sort.Slice(pmts, func(i, j int) bool {
		if asc {
			return pmts[i].CreatedAt.Before(pmts[j].CreatedAt)
		}
		return pmts[j].CreatedAt.Before(pmts[i].CreatedAt)
	})
	return pmts, nil
}

func (repo *paymentRepository) UpdatePayment(_ context.Context, pmt payment.Payment, _ ...core.DBExecutor) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[pmt.ID]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	orig.Status = pmt.Status
	orig.AdminComment = pmt.AdminComment
	orig.ReceiptURL = pmt.ReceiptURL
	orig.UpdatedAt = pmt.UpdatedAt
	return *orig, nil
}

func (repo *paymentRepository) ApprovePayment(_ context.Context, pmt payment.Payment) (payment.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[pmt.ID]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	if orig.Status == payment.StatusApproved {
		// a concurrent approval already landed; the decrement must not run again
		return *orig, nil
	}
	orig.Status = pmt.Status
	orig.AdminComment = pmt.AdminComment
	orig.ReceiptURL = pmt.ReceiptURL
	orig.UpdatedAt = pmt.UpdatedAt

	repo.regDB.Lock()
	defer repo.regDB.Unlock()

	reg, ok := repo.regDB.table[pmt.RegistrantID]
	if !ok {
		return payment.Payment{}, payment.ErrNotFound
	}
	reg.Balance -= pmt.Amount
	if reg.Balance < 0 {
		reg.Balance = 0
	}
	reg.UpdatedAt = pmt.UpdatedAt
	return *orig, nil
}
