package registrant

import (
	"context"

	"github.com/trezcool/kampi/core"
)

type serviceMock struct {
	service
}

func NewServiceMock(db core.DB, repo Repository, mailSvc core.EmailService) Service {
	return &serviceMock{
		service: service{
			db:      db,
			repo:    repo,
			mailSvc: mailSvc,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	reg, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(reg)
	return nil
}
