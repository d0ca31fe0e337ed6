package main

import (
	"context"
	"time"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/registrant"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)

	reg, err := cli.regRepo.GetRegistrant(ctx, registrant.GetFilter{UsernameOrEmail: []string{uname, uname}})
	if err != nil {
		return err
	}
	if err := reg.SetPassword(pwd); err != nil {
		return err
	}
	reg.UpdatedAt = time.Now().UTC()

	_, err = cli.regRepo.UpdateRegistrant(ctx, reg)
	return err
}
