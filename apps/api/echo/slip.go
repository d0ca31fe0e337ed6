package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core/registrant"
	"github.com/trezcool/kampi/core/slip"
)

type slipApi struct {
	svc    slip.Service
	regSvc registrant.Service
}

func registerSlipAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := slipApi{
		svc:    opts.SlipSvc,
		regSvc: opts.RegistrantSvc,
	}

	sg := g.Group("/slips", jwt)
	sg.POST("", api.getOrCreate)
	sg.GET("/:code", api.retrieveByCode, adminMiddleware())
}

// Handlers

// getOrCreate issues the authenticated registrant's payment slip, creating it
// on first call. The code never changes once issued.
func (api *slipApi) getOrCreate(ctx echo.Context) error {
	ctxReg, err := getContextRegistrant(ctx, api.regSvc)
	if err != nil {
		return errors.Wrap(err, "getting context registrant")
	}

	slp, err := api.svc.GetOrCreate(ctx.Request().Context(), ctxReg.ID)
	if err != nil {
		return errors.Wrap(err, "issuing slip")
	}
	return ctx.JSON(http.StatusOK, SlipResponse{Code: slp.Code})
}

// retrieveByCode lets an admin verify a printed slip.
func (api *slipApi) retrieveByCode(ctx echo.Context) error {
	slp, err := api.svc.GetByCode(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		if errors.Cause(err) == slip.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding slip by code")
	}
	return ctx.JSON(http.StatusOK, slp)
}

type SlipResponse struct {
	Code string `json:"slip_code"`
}
