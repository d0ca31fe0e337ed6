package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/registrant"
)

type registrantRepository struct {
	db *registrantTable
}

var _ registrant.Repository = (*registrantRepository)(nil) // interface compliance check

func NewRegistrantRepository(db *DB) registrant.Repository {
	return &registrantRepository{db: db.registrant}
}

func (repo *registrantRepository) query() []registrant.Registrant {
	regs := make([]registrant.Registrant, 0, len(repo.db.table))
	for _, reg := range repo.db.table {
		regs = append(regs, *reg)
	}
	return regs
}

func (repo *registrantRepository) CheckUniqueness(_ context.Context, username, email string, excluded []registrant.Registrant, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	exclLen := len(excluded)
	if exclLen > 1 {
		sort.Slice(excluded, func(i, j int) bool { return excluded[i].ID < excluded[j].ID })
	}

	for _, reg := range repo.query() {
		if isExcluded(reg, excluded, exclLen) {
			continue
		}
		if (username != "" && reg.Username == username) || (email != "" && reg.Email == email) {
			return registrant.ErrAccountExists
		}
	}
	return nil
}

func (repo *registrantRepository) CreateRegistrant(_ context.Context, reg registrant.Registrant, _ ...core.DBExecutor) (registrant.Registrant, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	reg.ID = uuid.New().String()
	repo.db.table[reg.ID] = &reg
	return reg, nil
}

func (repo *registrantRepository) QueryRegistrants(_ context.Context, filter *registrant.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]registrant.Registrant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	regs := repo.query()
	if filter == nil {
		sortRegistrants(regs, ordering)
		return regs, nil
	}

	// registrants with search keyword matching any Name, Username or Email ?
	if filter.Search != "" {
		var filtered []registrant.Registrant
		search := strings.ToLower(filter.Search)
		for _, reg := range regs {
			if strings.Contains(strings.ToLower(reg.Name), search) ||
				strings.Contains(strings.ToLower(reg.Username), search) ||
				strings.Contains(strings.ToLower(reg.Email), search) {
				filtered = append(filtered, reg)
			}
		}
		regs = filtered
	}
	// registrants with any of the specified roles
	if regs != nil && len(filter.Roles) > 0 {
		var filtered []registrant.Registrant
		for _, reg := range regs {
			for _, r := range filter.Roles {
				if reg.RoleStartsWith(r) {
					filtered = append(filtered, reg)
					break
				}
			}
		}
		regs = filtered
	}
	if regs != nil && filter.Status != "" {
		var filtered []registrant.Registrant
		for _, reg := range regs {
			if reg.RegistrationStatus == filter.Status {
				filtered = append(filtered, reg)
			}
		}
		regs = filtered
	}
	if regs != nil && filter.Category != "" {
		var filtered []registrant.Registrant
		for _, reg := range regs {
			if reg.Category == filter.Category {
				filtered = append(filtered, reg)
			}
		}
		regs = filtered
	}
	if regs != nil && filter.IsActive != nil {
		var filtered []registrant.Registrant
		for _, reg := range regs {
			if reg.IsActive != nil && *reg.IsActive == *filter.IsActive {
				filtered = append(filtered, reg)
			}
		}
		regs = filtered
	}
	if regs != nil && !filter.CreatedFrom.IsZero() {
		var filtered []registrant.Registrant
		timeUTC := filter.CreatedFrom.UTC()
		for _, reg := range regs {
			if reg.CreatedAt.Equal(timeUTC) || reg.CreatedAt.After(timeUTC) {
				filtered = append(filtered, reg)
			}
		}
		regs = filtered
	}
	if regs != nil && !filter.CreatedTo.IsZero() {
		var filtered []registrant.Registrant
		timeUTC := filter.CreatedTo.UTC()
		for _, reg := range regs {
			if reg.CreatedAt.Before(timeUTC) || reg.CreatedAt.Equal(timeUTC) {
				filtered = append(filtered, reg)
			}
		}
		regs = filtered
	}

	sortRegistrants(regs, ordering)
	return regs, nil
}

func (repo *registrantRepository) GetRegistrant(_ context.Context, filter registrant.GetFilter, _ ...core.DBExecutor) (registrant.Registrant, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	switch {
	case filter.ID != "":
		if reg, ok := repo.db.table[filter.ID]; ok {
			return *reg, nil
		}
	case filter.Username != "":
		for _, reg := range repo.query() {
			if reg.Username == filter.Username {
				return reg, nil
			}
		}
	case filter.Email != "":
		for _, reg := range repo.query() {
			if reg.Email == filter.Email {
				return reg, nil
			}
		}
	case len(filter.UsernameOrEmail) == 2:
		for _, reg := range repo.query() {
			if reg.Username == filter.UsernameOrEmail[0] || reg.Email == filter.UsernameOrEmail[1] {
				return reg, nil
			}
		}
	}
	return registrant.Registrant{}, registrant.ErrNotFound
}

func (repo *registrantRepository) UpdateRegistrant(_ context.Context, reg registrant.Registrant, _ ...core.DBExecutor) (registrant.Registrant, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[reg.ID]; !ok {
		return registrant.Registrant{}, registrant.ErrNotFound
	}
	repo.db.table[reg.ID] = &reg
	return reg, nil
}

func (repo *registrantRepository) UpdateOrCreateRegistrant(ctx context.Context, reg registrant.Registrant, exec ...core.DBExecutor) (registrant.Registrant, error) {
	if reg.ID != "" {
		if _, err := repo.UpdateRegistrant(ctx, reg, exec...); err == nil {
			return reg, nil
		}
	}
	return repo.CreateRegistrant(ctx, reg, exec...)
}

func (repo *registrantRepository) DeleteRegistrantsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			cnt++
		}
	}
	return cnt, nil
}

func (repo *registrantRepository) RevokeStalePaymentAccess(_ context.Context, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var cnt int
	for _, reg := range repo.db.table {
		if reg.Balance > 0 && !reg.PaymentAccessGranted &&
			reg.PaymentRequestStatus != registrant.PaymentRequestApproved {
			reg.PaymentAccessGranted = false
			cnt++
		}
	}
	return cnt, nil
}

func sortRegistrants(regs []registrant.Registrant, ordering []core.DBOrdering) {
	if len(ordering) == 0 {
		sort.Slice(regs, func(i, j int) bool { return regs[i].CreatedAt.Before(regs[j].CreatedAt) })
		return
	}
	ord := ordering[0]
	sort.Slice(regs, func(i, j int) bool {
		var less bool
		switch ord.Field {
		case "username":
			less = regs[i].Username < regs[j].Username
		case "email":
			less = regs[i].Email < regs[j].Email
		case "balance":
			less = regs[i].Balance < regs[j].Balance
		default:
			less = regs[i].CreatedAt.Before(regs[j].CreatedAt)
		}
		if !ord.Ascending {
			return !less
		}
		return less
	})
}

func isExcluded(reg registrant.Registrant, excluded []registrant.Registrant, n int) bool {
	if n <= 0 {
		return false
	}
	idx := sort.Search(n, func(i int) bool { return excluded[i].ID >= reg.ID })
	return idx < n && excluded[idx].ID == reg.ID
}
