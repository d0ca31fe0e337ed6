package echoapi

import (
	"net/http"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core/payment"
	"github.com/trezcool/kampi/core/registrant"
	"github.com/trezcool/kampi/core/settings"
)

type paymentApi struct {
	svc        payment.Service
	regSvc     registrant.Service
	setSvc     settings.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := paymentApi{
		svc:        opts.PaymentSvc,
		regSvc:     opts.RegistrantSvc,
		setSvc:     opts.SettingsSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	pg := g.Group("/payments", jwt)
	pg.POST("", api.submit)
	pg.GET("", api.query)
	pg.POST("/check-deadline", api.checkDeadline, adminMiddleware())
	pg.GET("/:id", api.retrieve)
	pg.PUT("/:id/status", api.setStatus, adminMiddleware())
}

// Handlers

// submit records a pending payment for the authenticated registrant.
func (api *paymentApi) submit(ctx echo.Context) error {
	ctxReg, err := getContextRegistrant(ctx, api.regSvc)
	if err != nil {
		return errors.Wrap(err, "getting context registrant")
	}

	var data payment.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	pmt, err := api.svc.Submit(ctx.Request().Context(), ctxReg.ID, data)
	if err != nil {
		return errors.Wrap(err, "submitting payment")
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

// query returns all payments for admins; a plain registrant only ever sees
// their own ledger whatever filter they send.
func (api *paymentApi) query(ctx echo.Context) error {
	ctxReg, err := getContextRegistrant(ctx, api.regSvc)
	if err != nil {
		return errors.Wrap(err, "getting context registrant")
	}

	filter := new(payment.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []payment.Payment{})
	}
	filter.Clean()
	if !ctxReg.IsAdmin() {
		filter.RegistrantID = ctxReg.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	pmts, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if pmts == nil {
		pmts = []payment.Payment{}
	}
	return ctx.JSON(http.StatusOK, pmts)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	pmt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == payment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding payment by ID")
	}

	ctxReg, err := getContextRegistrant(ctx, api.regSvc)
	if err != nil {
		return errors.Wrap(err, "getting context registrant")
	}
	if !ctxReg.IsAdmin() && pmt.RegistrantID != ctxReg.ID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, pmt)
}

// setStatus applies an admin decision on a payment; approving decrements the
// registrant's balance exactly once.
func (api *paymentApi) setStatus(ctx echo.Context) error {
	var data payment.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	pmt, err := api.svc.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == payment.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating payment status")
	}
	return ctx.JSON(http.StatusOK, pmt)
}

// checkDeadline runs the payment-access bookkeeping sweep against the
// currently configured deadline.
func (api *paymentApi) checkDeadline(ctx echo.Context) error {
	conf, err := api.setSvc.Current(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}

	affected, err := api.regSvc.SweepPaymentAccess(ctx.Request().Context(), conf.PaymentDeadline.Time, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "sweeping payment access")
	}
	return ctx.JSON(http.StatusOK, SweepResponse{Affected: affected})
}

type SweepResponse struct {
	Affected int `json:"affected"`
}
