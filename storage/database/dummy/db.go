package dummydb

import (
	"sync"

	"github.com/trezcool/kampi/core/content"
	"github.com/trezcool/kampi/core/payment"
	"github.com/trezcool/kampi/core/registrant"
	"github.com/trezcool/kampi/core/settings"
	"github.com/trezcool/kampi/core/slip"
)

type (
	DB struct {
		registrant   *registrantTable
		payment      *paymentTable
		slip         *slipTable
		settings     *settingsTable
		post         *postTable
		notification *notificationTable
	}

	registrantTable struct {
		sync.RWMutex
		table map[string]*registrant.Registrant
	}

	paymentTable struct {
		sync.RWMutex
		table map[string]*payment.Payment
	}

	slipTable struct {
		sync.RWMutex
		table map[string]*slip.Slip
	}

	settingsTable struct {
		sync.RWMutex
		table map[string]*settings.Settings
	}

	postTable struct {
		sync.RWMutex
		table map[string]*content.Post
	}

	notificationTable struct {
		sync.RWMutex
		table map[string]*content.Notification
	}
)

func Open() (*DB, error) {
	db := &DB{
		registrant:   &registrantTable{table: make(map[string]*registrant.Registrant)},
		payment:      &paymentTable{table: make(map[string]*payment.Payment)},
		slip:         &slipTable{table: make(map[string]*slip.Slip)},
		settings:     &settingsTable{table: make(map[string]*settings.Settings)},
		post:         &postTable{table: make(map[string]*content.Post)},
		notification: &notificationTable{table: make(map[string]*content.Notification)},
	}
	return db, nil
}
