package payment

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/registrant"
	"github.com/trezcool/kampi/core/settings"
)

var (
	// errors
	ErrNotFound      = errors.New("payment not found")
	ErrPaymentClosed = errors.New("the payment window has closed")
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, pmt Payment, exec ...core.DBExecutor) (Payment, error)
		GetPaymentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Payment, error)
		QueryPayments(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Payment, error)
		UpdatePayment(ctx context.Context, pmt Payment, exec ...core.DBExecutor) (Payment, error)
		// ApprovePayment persists the approved status AND decrements the
		// registrant's balance by the payment amount (clamped at zero) as one
		// atomic unit. It must not be called for an already-approved payment.
		ApprovePayment(ctx context.Context, pmt Payment) (Payment, error)
	}

	Service interface {
		Submit(ctx context.Context, registrantID string, np NewPayment) (Payment, error)
		GetByID(ctx context.Context, id string) (Payment, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Payment, error)
		UpdateStatus(ctx context.Context, id string, su StatusUpdate) (Payment, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		regSvc  registrant.Service
		setSvc  settings.Service
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, regSvc registrant.Service, setSvc settings.Service, mailSvc core.EmailService) Service {
	return &service{
		db:      db,
		repo:    repo,
		regSvc:  regSvc,
		setSvc:  setSvc,
		mailSvc: mailSvc,
	}
}

// Submit records a pending payment. Submission is refused once the deadline
// has passed unless the registrant holds a payment-access grant.
func (svc *service) Submit(ctx context.Context, registrantID string, np NewPayment) (Payment, error) {
	reg, err := svc.regSvc.GetByID(ctx, registrantID)
	if err != nil {
		return Payment{}, err
	}

	conf, err := svc.setSvc.Current(ctx)
	if err != nil {
		return Payment{}, errors.Wrap(err, "loading settings")
	}
	if !reg.CanPay(conf.PaymentPortalOpen, conf.PaymentDeadline.Time, time.Now().UTC()) {
		if conf.PaymentClosedMessage != "" {
			return Payment{}, core.NewValidationError(errors.New(conf.PaymentClosedMessage))
		}
		return Payment{}, core.NewValidationError(ErrPaymentClosed)
	}

	now := time.Now().UTC()
	pmt := Payment{
		RegistrantID: reg.ID,
		Amount:       np.Amount,
		PaymentType:  np.PaymentType,
		CampType:     np.CampType,
		ReceiptURL:   np.ReceiptURL,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreatePayment(ctx, pmt)
}

func (svc *service) GetByID(ctx context.Context, id string) (Payment, error) {
	return svc.repo.GetPaymentByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, filter, ordering)
}

// UpdateStatus applies an admin decision. The transition into "approved"
// decrements the registrant's balance exactly once; re-approving an approved
// payment is a no-op and rejecting an approved payment does not restore the
// balance.
func (svc *service) UpdateStatus(ctx context.Context, id string, su StatusUpdate) (Payment, error) {
	pmt, err := svc.repo.GetPaymentByID(ctx, id)
	if err != nil {
		return Payment{}, err
	}

	prev := pmt.Status
	pmt.Status = su.Status
	pmt.AdminComment = su.AdminComment
	pmt.UpdatedAt = time.Now().UTC()

	if su.Status == StatusApproved && prev != StatusApproved {
		pmt, err = svc.repo.ApprovePayment(ctx, pmt)
	} else {
		pmt, err = svc.repo.UpdatePayment(ctx, pmt)
	}
	if err != nil {
		return Payment{}, err
	}

	if pmt.Status != prev {
		svc.sendStatusMail(ctx, pmt)
	}
	return pmt, nil
}

func (svc *service) sendStatusMail(ctx context.Context, pmt Payment) {
	reg, err := svc.regSvc.GetByID(ctx, pmt.RegistrantID)
	if err != nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: reg.Name, Address: reg.Email}},
		Subject:      "Payment " + pmt.Status,
		TemplateName: "payment-status",
		TemplateData: struct {
			Name    string
			Amount  int
			Status  string
			Comment string
			Balance int
		}{reg.Name, pmt.Amount, pmt.Status, pmt.AdminComment, reg.Balance},
	})
}
