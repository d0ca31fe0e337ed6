package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/registrant"
)

// addAdmin updates or creates an admin account.
func (cli *commandLine) addAdmin(uname, email, pwd string, super bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	reg, err := cli.regRepo.GetRegistrant(ctx, registrant.GetFilter{UsernameOrEmail: []string{uname, email}})
	if err != nil {
		if errors.Cause(err) != registrant.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		reg = registrant.Registrant{
			Name:                 uname,
			Username:             uname,
			Email:                email,
			RegistrationStatus:   registrant.StatusApproved,
			PaymentRequestStatus: registrant.PaymentRequestNone,
			CreatedAt:            now,
		}
	}
	reg.Roles = []string{registrant.RoleAdmin}
	if super {
		reg.Roles = registrant.AdminRoles
	}
	reg.SetActive(true)
	if err := reg.SetPassword(pwd); err != nil {
		return err
	}
	reg.UpdatedAt = time.Now().UTC()

	_, err = cli.regRepo.UpdateOrCreateRegistrant(ctx, reg)
	return err
}
