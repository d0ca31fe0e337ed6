package registrant

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/kampi/core"
)

// Roles
const (
	// Admin
	RoleAdmin      = "admin:"
	RoleAdminSuper = "admin:super"

	// Registrant
	RoleRegistrant = "registrant:"
)

var (
	AdminRoles      = []string{RoleAdmin, RoleAdminSuper}
	RegistrantRoles = []string{RoleRegistrant}
	AllRoles        = getAllRoles()

	rolePriorities = map[string]int{
		// Admins: 30 - 21
		RoleAdminSuper: 30,
		RoleAdmin:      21,

		// Registrants: 10 - 1
		RoleRegistrant: 1,
	}

	Roles = []Role{
		{Name: "Registrant", Value: RoleRegistrant},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "Super Admin", Value: RoleAdminSuper},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 3)
	all = append(all, AdminRoles...)
	all = append(all, RegistrantRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Registration statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Registration status admin actions
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionRevoke  = "revoke"
)

// Registrant categories
const (
	CategoryStudent = "student"
	CategoryAlumnus = "alumnus"
	CategoryChild   = "child"
	CategoryGuest   = "guest" // non-member attendee
)

// Camp packages
const (
	CampTypeCamp       = "camp"
	CampTypeConference = "camp_conference"
)

// Payment-access request statuses
const (
	PaymentRequestNone     = "none"
	PaymentRequestPending  = "pending"
	PaymentRequestApproved = "approved"
	PaymentRequestRejected = "rejected"
	PaymentRequestRevoked  = "revoked"
)

var (
	Categories = []string{CategoryStudent, CategoryAlumnus, CategoryChild, CategoryGuest}
	CampTypes  = []string{CampTypeCamp, CampTypeConference}

	// fees owed at registration, in local currency units
	feeSchedule = map[string]map[string]int{
		CategoryStudent: {CampTypeCamp: 15000, CampTypeConference: 25000},
		CategoryAlumnus: {CampTypeCamp: 20000, CampTypeConference: 35000},
		CategoryChild:   {CampTypeCamp: 7500, CampTypeConference: 12500},
		CategoryGuest:   {CampTypeCamp: 25000, CampTypeConference: 42000},
	}
)

// DefaultBalance returns the outstanding amount a new registrant owes for
// their category and selected package.
func DefaultBalance(category, campType string) int {
	return feeSchedule[category][campType]
}

type Registrant struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Username              string    `json:"username"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone"`
	Category              string    `json:"category"`
	CampType              string    `json:"camp_type"`
	RegistrationStatus    string    `json:"registration_status"`
	Balance               int       `json:"balance"`
	PaymentAccessGranted  bool      `json:"payment_access_granted"`
	PaymentRequestStatus  string    `json:"payment_request_status"`
	PaymentRequestMessage string    `json:"payment_request_message,omitempty"`
	AdminComment          string    `json:"admin_comment,omitempty"`
	IsActive              *bool     `json:"is_active"`
	Roles                 []string  `json:"roles"`
	PasswordHash          []byte    `json:"-"`
	CreatedAt             time.Time `json:"created_at"` // UTC
	UpdatedAt             time.Time `json:"updated_at"` // UTC
	LastLogin             time.Time `json:"last_login"` // UTC
}

func (r *Registrant) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	r.PasswordHash = hash
	return nil
}

func (r *Registrant) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(r.PasswordHash, []byte(pwd))
}

func (r *Registrant) SetActive(active bool) {
	r.IsActive = &active
}

func (r *Registrant) RoleStartsWith(prefix string) bool {
	for _, role := range r.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (r *Registrant) IsAdmin() bool {
	return r.RoleStartsWith(RoleAdmin)
}

func (r *Registrant) IsSuperAdmin() bool {
	return r.RoleStartsWith(RoleAdminSuper)
}

func (r *Registrant) IsRegistrant() bool {
	return r.RoleStartsWith(RoleRegistrant)
}

// CanPay reports whether this registrant may submit a payment given the
// current portal settings. Once the deadline passes, only a registrant with a
// granted access exception may still pay.
func (r *Registrant) CanPay(portalOpen bool, deadline, now time.Time) bool {
	if !portalOpen {
		return false
	}
	if deadline.IsZero() || now.Before(deadline) {
		return true
	}
	return r.PaymentAccessGranted
}

// NewRegistrant contains information needed to register a new Registrant.
type NewRegistrant struct {
	Name            string `json:"name" validate:"required"`
	Username        string `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	Phone           string `json:"phone" validate:"omitempty,min=7"`
	Category        string `json:"category" validate:"required,allcategories"`
	CampType        string `json:"camp_type" validate:"required,allcamptypes"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nr *NewRegistrant) Validate(validate *validator.Validate, svc Service) error {
	nr.Name = core.CleanString(nr.Name)
	nr.Username = core.CleanString(nr.Username, true /* lower */)
	nr.Email = core.CleanString(nr.Email, true /* lower */)
	nr.Phone = core.CleanString(nr.Phone)

	if err := validate.Struct(nr); err != nil {
		return err
	}
	return svc.CheckUniqueness(nr.Username, nr.Email)
}

// UpdateRegistrant defines what information may be provided to modify an existing Registrant.
type UpdateRegistrant struct {
	Name            string   `json:"name"`
	Username        string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Phone           string   `json:"phone" validate:"omitempty,min=7"`
	Category        string   `json:"category" validate:"omitempty,allcategories"`
	CampType        string   `json:"camp_type" validate:"omitempty,allcamptypes"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (ur *UpdateRegistrant) Validate(orig Registrant, validate *validator.Validate, svc Service) error {
	name := core.CleanString(ur.Name)
	if name != "" {
		ur.Name = name
	} else {
		ur.Name = orig.Name
	}

	uname := core.CleanString(ur.Username, true /* lower */)
	if uname != "" {
		ur.Username = uname
	} else {
		ur.Username = orig.Username
	}

	email := core.CleanString(ur.Email, true /* lower */)
	if email != "" {
		ur.Email = email
	} else {
		ur.Email = orig.Email
	}

	if err := validate.Struct(ur); err != nil {
		return err
	}
	return svc.CheckUniqueness(ur.Username, ur.Email, orig)
}

// StatusUpdate is the admin decision on a pending (or previously decided)
// registration. Approve and reject may be re-issued in any order.
type StatusUpdate struct {
	Action       string `json:"action" validate:"required,oneof=approve reject"`
	AdminComment string `json:"admin_comment"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Action = core.CleanString(su.Action, true /* lower */)
	return validate.Struct(su)
}

// PaymentAccessRequest is a registrant's plea to keep paying past the deadline.
type PaymentAccessRequest struct {
	Message string `json:"message" validate:"required"`
}

func (pr *PaymentAccessRequest) Validate(validate *validator.Validate) error {
	pr.Message = core.CleanString(pr.Message)
	return validate.Struct(pr)
}

// PaymentAccessReview is the admin decision on a payment-access request.
// All of approve/reject/revoke are reachable from any prior state.
type PaymentAccessReview struct {
	Action       string `json:"action" validate:"required,oneof=approve reject revoke"`
	AdminComment string `json:"admin_comment"`
}

func (pr *PaymentAccessReview) Validate(validate *validator.Validate) error {
	pr.Action = core.CleanString(pr.Action, true /* lower */)
	return validate.Struct(pr)
}

type ResetRegistrantPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetRegistrantPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	Status      string    `query:"status"`
	Category    string    `query:"category"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Status == "" && qf.Category == "" &&
		qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}

// GetFilter selects a single Registrant; the first non-empty field wins.
type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail []string
}
