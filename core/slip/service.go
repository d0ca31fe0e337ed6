package slip

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core"
)

const codeLen = 16

// maxAttempts bounds code generation; the 10^16 space makes collisions
// practically impossible so hitting the cap means the RNG is broken.
const maxAttempts = 10

var (
	// errors
	ErrNotFound   = errors.New("slip not found")
	ErrCodeExists = errors.New("slip code already taken")

	errGenExhausted = errors.New("could not generate a unique slip code")

	readRandFunc = rand.Read // mockable
)

type (
	Repository interface {
		GetSlipByRegistrantID(ctx context.Context, registrantID string, exec ...core.DBExecutor) (Slip, error)
		GetSlipByCode(ctx context.Context, code string, exec ...core.DBExecutor) (Slip, error)
		// CreateSlip returns ErrCodeExists when the code is already taken.
		CreateSlip(ctx context.Context, slp Slip, exec ...core.DBExecutor) (Slip, error)
	}

	Service interface {
		// GetOrCreate returns the registrant's slip, issuing it on first
		// request. Issuance is idempotent: the code never changes once set.
		GetOrCreate(ctx context.Context, registrantID string) (Slip, error)
		GetByCode(ctx context.Context, code string) (Slip, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) GetOrCreate(ctx context.Context, registrantID string) (Slip, error) {
	slp, err := svc.repo.GetSlipByRegistrantID(ctx, registrantID)
	if err == nil {
		return slp, nil
	}
	if errors.Cause(err) != ErrNotFound {
		return Slip{}, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return Slip{}, errors.Wrap(err, "generating slip code")
		}
		slp, err = svc.repo.CreateSlip(ctx, Slip{
			RegistrantID: registrantID,
			Code:         code,
			CreatedAt:    time.Now().UTC(),
		})
		if err == nil {
			return slp, nil
		}
		if errors.Cause(err) != ErrCodeExists {
			return Slip{}, err
		}
	}
	return Slip{}, errGenExhausted
}

func (svc *service) GetByCode(ctx context.Context, code string) (Slip, error) {
	return svc.repo.GetSlipByCode(ctx, core.CleanString(code))
}

// generateCode produces a random 16-digit decimal code.
func generateCode() (string, error) {
	var buf [8]byte
	if _, err := readRandFunc(buf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint64(buf[:]) % 1e16
	return fmt.Sprintf("%0*d", codeLen, n), nil
}
