package payment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kampi/core"
)

// Payment statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Payment types
const (
	TypeFull        = "full"
	TypeInstallment = "installment"
)

var Statuses = []string{StatusPending, StatusApproved, StatusRejected}

type Payment struct {
	ID           string    `json:"id"`
	RegistrantID string    `json:"registrant_id"`
	Amount       int       `json:"amount"`
	PaymentType  string    `json:"payment_type"`
	CampType     string    `json:"camp_type"`
	ReceiptURL   string    `json:"receipt_url"`
	Status       string    `json:"status"`
	AdminComment string    `json:"admin_comment,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (p *Payment) IsApproved() bool { return p.Status == StatusApproved }

// NewPayment contains a registrant's payment submission. The minimum amount
// stays a frontend concern; the server only refuses non-positive amounts.
type NewPayment struct {
	Amount      int    `json:"amount" validate:"required,gt=0"`
	PaymentType string `json:"payment_type" validate:"required,oneof=full installment"`
	CampType    string `json:"camp_type" validate:"required,allcamptypes"`
	ReceiptURL  string `json:"receipt_url" validate:"required,url"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.PaymentType = core.CleanString(np.PaymentType, true /* lower */)
	np.CampType = core.CleanString(np.CampType, true /* lower */)
	np.ReceiptURL = core.CleanString(np.ReceiptURL)
	return validate.Struct(np)
}

// StatusUpdate is the admin decision on a submitted payment.
type StatusUpdate struct {
	Status       string `json:"status" validate:"required,oneof=pending approved rejected"`
	AdminComment string `json:"admin_comment"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	return validate.Struct(su)
}

type QueryFilter struct {
	RegistrantID string    `query:"registrant_id"`
	Status       string    `query:"status"`
	CreatedFrom  time.Time `query:"created_from"`
	CreatedTo    time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.RegistrantID == "" && qf.Status == "" && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
