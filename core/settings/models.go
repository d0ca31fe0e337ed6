package settings

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kampi/core"
)

// Settings is an immutable portal configuration snapshot; the most recent one
// wins. Absence of any snapshot means everything is open.
type Settings struct {
	ID                        string    `json:"id"`
	PaymentDeadline           null.Time `json:"payment_deadline"`
	PaymentPortalOpen         bool      `json:"payment_portal_open"`
	PortalRegistrationOpen    bool      `json:"portal_registration_open"`
	RegistrationClosedMessage string    `json:"registration_closed_message,omitempty"`
	PaymentClosedMessage      string    `json:"payment_closed_message,omitempty"`
	CreatedAt                 time.Time `json:"created_at"` // UTC
}

// NewSettings contains the next configuration snapshot.
type NewSettings struct {
	PaymentDeadline           null.Time `json:"payment_deadline"`
	PaymentPortalOpen         bool      `json:"payment_portal_open"`
	PortalRegistrationOpen    bool      `json:"portal_registration_open"`
	RegistrationClosedMessage string    `json:"registration_closed_message"`
	PaymentClosedMessage      string    `json:"payment_closed_message"`
}

func (ns *NewSettings) Validate(validate *validator.Validate) error {
	ns.RegistrationClosedMessage = core.CleanString(ns.RegistrationClosedMessage)
	ns.PaymentClosedMessage = core.CleanString(ns.PaymentClosedMessage)
	return validate.Struct(ns)
}
