package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/kampi/core/payment"
	"github.com/trezcool/kampi/core/registrant"
)

func CreateRegistrant(
	t *testing.T,
	repo registrant.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) registrant.Registrant {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if roles == nil {
		roles = []string{registrant.RoleRegistrant}
	}
	reg := registrant.Registrant{
		Name:                 name,
		Username:             uname,
		Email:                email,
		Category:             registrant.CategoryStudent,
		CampType:             registrant.CampTypeCamp,
		RegistrationStatus:   registrant.StatusPending,
		Balance:              registrant.DefaultBalance(registrant.CategoryStudent, registrant.CampTypeCamp),
		PaymentRequestStatus: registrant.PaymentRequestNone,
		Roles:                roles,
		CreatedAt:            tstamp,
		UpdatedAt:            tstamp,
	}
	reg.SetActive(isActive)
	if pwd != "" {
		if err := reg.SetPassword(pwd); err != nil {
			t.Fatalf("CreateRegistrant() failed: %v", err)
		}
	}
	reg, err := repo.CreateRegistrant(context.Background(), reg)
	if err != nil {
		t.Fatalf("CreateRegistrant() failed: %v", err)
	}
	return reg
}

func CreateAdmin(
	t *testing.T,
	repo registrant.Repository,
	name, uname, email, pwd string,
	super bool,
) registrant.Registrant {
	roles := []string{registrant.RoleAdmin}
	if super {
		roles = registrant.AdminRoles
	}
	reg := CreateRegistrant(t, repo, name, uname, email, pwd, roles, true)
	return reg
}

func CreatePayment(
	t *testing.T,
	repo payment.Repository,
	reg registrant.Registrant,
	amount int,
	status string,
) payment.Payment {
	now := time.Now().UTC()
	pmt := payment.Payment{
		RegistrantID: reg.ID,
		Amount:       amount,
		PaymentType:  payment.TypeInstallment,
		CampType:     reg.CampType,
		ReceiptURL:   "https://receipts.test.cd/" + reg.Username,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	pmt, err := repo.CreatePayment(context.Background(), pmt)
	if err != nil {
		t.Fatalf("CreatePayment() failed: %v", err)
	}
	return pmt
}
