package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core"
)

var ErrNotFound = errors.New("settings not found")

type (
	Repository interface {
		CreateSettings(ctx context.Context, s Settings, exec ...core.DBExecutor) (Settings, error)
		// GetCurrentSettings returns the most recent snapshot.
		GetCurrentSettings(ctx context.Context, exec ...core.DBExecutor) (Settings, error)
	}

	Service interface {
		Create(ctx context.Context, ns NewSettings) (Settings, error)
		// Current returns the most recent snapshot, or an all-open default
		// when no snapshot has been saved yet.
		Current(ctx context.Context) (Settings, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, ns NewSettings) (Settings, error) {
	s := Settings{
		ID:                        uuid.New().String(),
		PaymentDeadline:           ns.PaymentDeadline,
		PaymentPortalOpen:         ns.PaymentPortalOpen,
		PortalRegistrationOpen:    ns.PortalRegistrationOpen,
		RegistrationClosedMessage: ns.RegistrationClosedMessage,
		PaymentClosedMessage:      ns.PaymentClosedMessage,
		CreatedAt:                 time.Now().UTC(),
	}
	return svc.repo.CreateSettings(ctx, s)
}

func (svc *service) Current(ctx context.Context) (Settings, error) {
	s, err := svc.repo.GetCurrentSettings(ctx)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Settings{
				PaymentPortalOpen:      true,
				PortalRegistrationOpen: true,
			}, nil
		}
		return Settings{}, err
	}
	return s, nil
}
