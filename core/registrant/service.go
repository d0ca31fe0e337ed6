package registrant

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core"
)

var (
	// errors
	ErrNotFound        = errors.New("registrant not found")
	ErrAccountExists   = errors.New("an account with this username or email already exists")
	ErrInvalidPassword = errors.New("invalid password")
)

type (
	Repository interface {
		CheckUniqueness(ctx context.Context, username, email string, excluded []Registrant, exec ...core.DBExecutor) error
		CreateRegistrant(ctx context.Context, reg Registrant, exec ...core.DBExecutor) (Registrant, error)
		// QueryRegistrants applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Name, Username or Email.
		QueryRegistrants(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Registrant, error)
		GetRegistrant(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Registrant, error)
		UpdateRegistrant(ctx context.Context, reg Registrant, exec ...core.DBExecutor) (Registrant, error)
		UpdateOrCreateRegistrant(ctx context.Context, reg Registrant, exec ...core.DBExecutor) (Registrant, error)
		DeleteRegistrantsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
		// RevokeStalePaymentAccess clears payment_access_granted on every
		// registrant still owing money with neither a granted access nor an
		// approved request. Zero-balance registrants are never touched.
		RevokeStalePaymentAccess(ctx context.Context, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Register(ctx context.Context, nr NewRegistrant) (Registrant, error)
		CheckUniqueness(uname, email string, excluded ...Registrant) error
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Registrant, error)
		GetByID(ctx context.Context, id string) (Registrant, error)
		GetByEmail(ctx context.Context, email string) (Registrant, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (Registrant, error)
		Update(ctx context.Context, id string, ur UpdateRegistrant) (Registrant, error)
		Delete(ctx context.Context, ids ...string) error
		SetLastLogin(ctx context.Context, reg Registrant) (Registrant, error)

		SetRegistrationStatus(ctx context.Context, id string, su StatusUpdate) (Registrant, error)
		RequestPaymentAccess(ctx context.Context, id string, pr PaymentAccessRequest) (Registrant, error)
		ReviewPaymentAccess(ctx context.Context, id string, pr PaymentAccessReview) (Registrant, error)
		SweepPaymentAccess(ctx context.Context, deadline, now time.Time) (int, error)

		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetRegistrantPassword) error
	}

	service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService) Service {
	return &service{
		db:      db,
		repo:    repo,
		mailSvc: mailSvc,
	}
}

func (svc *service) CheckUniqueness(uname, email string, excluded ...Registrant) error {
	if err := svc.repo.CheckUniqueness(context.Background(), uname, email, excluded); err != nil {
		if errors.Cause(err) == ErrAccountExists {
			return core.NewValidationError(err,
				core.FieldError{Field: "username", Error: err.Error()},
				core.FieldError{Field: "email", Error: err.Error()},
			)
		}
		return err
	}
	return nil
}

func (svc *service) Register(ctx context.Context, nr NewRegistrant) (Registrant, error) {
	now := time.Now().UTC()
	reg := Registrant{
		Name:                 nr.Name,
		Username:             nr.Username,
		Email:                nr.Email,
		Phone:                nr.Phone,
		Category:             nr.Category,
		CampType:             nr.CampType,
		RegistrationStatus:   StatusPending,
		Balance:              DefaultBalance(nr.Category, nr.CampType),
		PaymentRequestStatus: PaymentRequestNone,
		Roles:                []string{RoleRegistrant},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	reg.SetActive(true)
	if err := reg.SetPassword(nr.Password); err != nil {
		return Registrant{}, errors.Wrap(err, "setting password")
	}

	reg, err := svc.repo.CreateRegistrant(ctx, reg)
	if err != nil {
		return Registrant{}, err
	}

	svc.sendWelcomeMail(reg)
	return reg, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Registrant, error) {
	return svc.repo.QueryRegistrants(ctx, filter, ordering)
}

func (svc *service) GetByID(ctx context.Context, id string) (Registrant, error) {
	return svc.repo.GetRegistrant(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Registrant, error) {
	return svc.repo.GetRegistrant(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (Registrant, error) {
	uname = core.CleanString(uname, true /* lower */)
	return svc.repo.GetRegistrant(ctx, GetFilter{UsernameOrEmail: []string{uname, uname}})
}

func (svc *service) Update(ctx context.Context, id string, ur UpdateRegistrant) (Registrant, error) {
	reg, err := svc.repo.GetRegistrant(ctx, GetFilter{ID: id})
	if err != nil {
		return Registrant{}, err
	}

	reg.Name = ur.Name
	reg.Username = ur.Username
	reg.Email = ur.Email
	if ur.Phone != "" {
		reg.Phone = ur.Phone
	}
	if ur.Category != "" {
		reg.Category = ur.Category
	}
	if ur.CampType != "" {
		reg.CampType = ur.CampType
	}
	if ur.IsActive != nil {
		reg.IsActive = ur.IsActive
	}
	if ur.Roles != nil {
		reg.Roles = ur.Roles
	}
	if ur.Password != "" {
		if err := reg.SetPassword(ur.Password); err != nil {
			return Registrant{}, errors.Wrap(err, "setting password")
		}
	}
	reg.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateRegistrant(ctx, reg)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteRegistrantsByID(ctx, ids)
	return err
}

func (svc *service) SetLastLogin(ctx context.Context, reg Registrant) (Registrant, error) {
	reg.LastLogin = time.Now().UTC()
	return svc.repo.UpdateRegistrant(ctx, reg)
}

// SetRegistrationStatus applies an admin approve/reject decision. Re-issuing
// the same action is a no-op that still succeeds; the opposite action may be
// issued at any time.
func (svc *service) SetRegistrationStatus(ctx context.Context, id string, su StatusUpdate) (Registrant, error) {
	reg, err := svc.repo.GetRegistrant(ctx, GetFilter{ID: id})
	if err != nil {
		return Registrant{}, err
	}

	prev := reg.RegistrationStatus
	switch su.Action {
	case ActionApprove:
		reg.RegistrationStatus = StatusApproved
	case ActionReject:
		reg.RegistrationStatus = StatusRejected
	}
	reg.AdminComment = su.AdminComment
	reg.UpdatedAt = time.Now().UTC()

	reg, err = svc.repo.UpdateRegistrant(ctx, reg)
	if err != nil {
		return Registrant{}, err
	}

	if reg.RegistrationStatus != prev {
		svc.sendStatusMail(reg)
	}
	return reg, nil
}

func (svc *service) RequestPaymentAccess(ctx context.Context, id string, pr PaymentAccessRequest) (Registrant, error) {
	reg, err := svc.repo.GetRegistrant(ctx, GetFilter{ID: id})
	if err != nil {
		return Registrant{}, err
	}

	reg.PaymentRequestStatus = PaymentRequestPending
	reg.PaymentRequestMessage = pr.Message
	reg.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateRegistrant(ctx, reg)
}

func (svc *service) ReviewPaymentAccess(ctx context.Context, id string, pr PaymentAccessReview) (Registrant, error) {
	reg, err := svc.repo.GetRegistrant(ctx, GetFilter{ID: id})
	if err != nil {
		return Registrant{}, err
	}

	switch pr.Action {
	case ActionApprove:
		reg.PaymentRequestStatus = PaymentRequestApproved
		reg.PaymentAccessGranted = true
	case ActionReject:
		reg.PaymentRequestStatus = PaymentRequestRejected
		reg.PaymentAccessGranted = false
	case ActionRevoke:
		reg.PaymentRequestStatus = PaymentRequestRevoked
		reg.PaymentAccessGranted = false
	}
	reg.AdminComment = pr.AdminComment
	reg.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdateRegistrant(ctx, reg)
}

// SweepPaymentAccess is the deadline bookkeeping pass. It does nothing until
// the deadline is set and has passed.
func (svc *service) SweepPaymentAccess(ctx context.Context, deadline, now time.Time) (int, error) {
	if deadline.IsZero() || now.Before(deadline) {
		return 0, nil
	}
	return svc.repo.RevokeStalePaymentAccess(ctx)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	reg, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(reg)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetRegistrantPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	reg, err := svc.repo.GetRegistrant(ctx, GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err := verifyToken(reg, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err := reg.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	reg.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateRegistrant(ctx, reg)
	return err
}

// Mailers

func (svc *service) sendWelcomeMail(reg Registrant) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: reg.Name, Address: reg.Email}},
		Subject:      "Welcome to camp!",
		TemplateName: "registrant-welcome",
		TemplateData: struct {
			Name     string
			Balance  int
			CampType string
		}{reg.Name, reg.Balance, reg.CampType},
	})
}

func (svc *service) sendStatusMail(reg Registrant) {
	var subject string
	switch reg.RegistrationStatus {
	case StatusApproved:
		subject = "Your registration has been approved"
	case StatusRejected:
		subject = "Your registration could not be approved"
	default:
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: reg.Name, Address: reg.Email}},
		Subject:      subject,
		TemplateName: "registration-status",
		TemplateData: struct {
			Name    string
			Status  string
			Comment string
		}{reg.Name, reg.RegistrationStatus, reg.AdminComment},
	})
}

func (svc *service) sendPasswordResetMail(reg Registrant) {
	token := makeToken(reg)
	url := fmt.Sprintf("%s/password-reset?uid=%s&token=%s", core.Conf.FrontendBaseURL, encodeUID(reg), token)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: reg.Name, Address: reg.Email}},
		Subject:      "Password reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Name string
			URL  string
		}{reg.Name, url},
	})
}
