package echoapi

import (
	"net/http"
	"sort"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/registrant"
	"github.com/trezcool/kampi/core/settings"
)

var (
	errRegNotFoundInCtx  = errors.New("registrant object not found in echo.Context")
	errNoPermsToSetRoles = "not enough rights to set these roles"
	errRegistrationOff   = "registration is currently closed"
)

type registrantApi struct {
	svc        registrant.Service
	setSvc     settings.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerRegistrantAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := registrantApi{
		svc:        opts.RegistrantSvc,
		setSvc:     opts.SettingsSvc,
		validate:   opts.Validate,
		translator: opts.Translator,
	}

	rg := g.Group("/registrants")

	// un-authed endpoints
	rg.POST("/register", api.register)
	rg.POST("/login", api.login)
	rg.POST("/password-reset", api.resetPassword)
	rg.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := rg.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("", api.query, adminMiddleware())
	ag.DELETE("", api.destroyMultiple, adminMiddleware())
	ag.GET("/roles", api.queryRoles, adminMiddleware())

	// detail endpoints
	dg := ag.Group("/:id", ctxRegistrantOrAdminMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.PUT("/status", api.setStatus, adminMiddleware())
	dg.POST("/payment-access", api.requestPaymentAccess)
	dg.PUT("/payment-access", api.reviewPaymentAccess, adminMiddleware())
}

// Handlers

func (api *registrantApi) register(ctx echo.Context) error {
	conf, err := api.setSvc.Current(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}
	if !conf.PortalRegistrationOpen {
		if conf.RegistrationClosedMessage != "" {
			return core.NewValidationError(errors.New(conf.RegistrationClosedMessage))
		}
		return core.NewValidationError(errors.New(errRegistrationOff))
	}

	var data registrant.NewRegistrant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRegistrant")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	reg, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering")
	}

	return ctx.JSON(http.StatusCreated, reg)
}

func (api *registrantApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx.Request().Context(), data.Username, data.Password, api.svc)
	if err != nil {
		if errors.Cause(err) == registrant.ErrNotFound {
			return core.NewValidationError(errors.New("invalid credentials"))
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *registrantApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == registrant.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *registrantApi) confirmPasswordReset(ctx echo.Context) error {
	var data registrant.ResetRegistrantPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetRegistrantPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *registrantApi) query(ctx echo.Context) error {
	filter := new(registrant.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []registrant.Registrant{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	regs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying registrants")
	}
	if regs == nil {
		regs = []registrant.Registrant{}
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *registrantApi) retrieve(ctx echo.Context) error {
	reg, ok := ctx.Get("object").(registrant.Registrant)
	if !ok {
		return errors.Wrap(errRegNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *registrantApi) update(ctx echo.Context) error {
	reg, ok := ctx.Get("object").(registrant.Registrant)
	if !ok {
		return errors.Wrap(errRegNotFoundInCtx, "retrieving object from context")
	}

	var data registrant.UpdateRegistrant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRegistrant")
	}

	ctxReg, err := getContextRegistrant(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context registrant")
	}
	if !ctxReg.IsAdmin() {
		// `IsActive` and `Roles` can only be changed by admin
		// `Username` and `Email` can only be changed by admin for now
		if data.IsActive != nil || data.Roles != nil || data.Username != "" || data.Email != "" {
			return errHttpForbidden
		}
	}

	if err := data.Validate(reg, api.validate, api.svc); err != nil {
		return err
	}

	// ctxReg cannot set a role > their own max role
	if registrant.MaxRolePriority(data.Roles) > registrant.MaxRolePriority(ctxReg.Roles) {
		return core.NewValidationError(nil, core.FieldError{Field: "roles", Error: errNoPermsToSetRoles})
	}

	reg, err = api.svc.Update(ctx.Request().Context(), reg.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating registrant")
	}

	return ctx.JSON(http.StatusOK, reg)
}

func (api *registrantApi) destroy(ctx echo.Context) error {
	reg, ok := ctx.Get("object").(registrant.Registrant)
	if !ok {
		return errors.Wrap(errRegNotFoundInCtx, "retrieving object from context")
	}

	// Say No to Suicide! ctxReg cannot delete themselves
	ctxReg, err := getContextRegistrant(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context registrant")
	}
	if reg.ID == ctxReg.ID {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), reg.ID); err != nil {
		return errors.Wrap(err, "deleting registrant")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *registrantApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// Say No to Suicide! ctxReg cannot delete themselves
	ctxReg, err := getContextRegistrant(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context registrant")
	}
	sort.Strings(query.IDs)
	if i := sort.SearchStrings(query.IDs, ctxReg.ID); i < len(query.IDs) {
		if match := query.IDs[i]; ctxReg.ID == match {
			return errHttpForbidden
		}
	}

	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting registrants")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *registrantApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, registrant.Roles)
}

func (api *registrantApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

// setStatus applies an admin approve/reject decision on the registration.
func (api *registrantApi) setStatus(ctx echo.Context) error {
	reg, ok := ctx.Get("object").(registrant.Registrant)
	if !ok {
		return errors.Wrap(errRegNotFoundInCtx, "retrieving object from context")
	}

	var data registrant.StatusUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.svc.SetRegistrationStatus(ctx.Request().Context(), reg.ID, data)
	if err != nil {
		return errors.Wrap(err, "setting registration status")
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *registrantApi) requestPaymentAccess(ctx echo.Context) error {
	reg, ok := ctx.Get("object").(registrant.Registrant)
	if !ok {
		return errors.Wrap(errRegNotFoundInCtx, "retrieving object from context")
	}

	var data registrant.PaymentAccessRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentAccessRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.svc.RequestPaymentAccess(ctx.Request().Context(), reg.ID, data)
	if err != nil {
		return errors.Wrap(err, "requesting payment access")
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api *registrantApi) reviewPaymentAccess(ctx echo.Context) error {
	reg, ok := ctx.Get("object").(registrant.Registrant)
	if !ok {
		return errors.Wrap(errRegNotFoundInCtx, "retrieving object from context")
	}

	var data registrant.PaymentAccessReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PaymentAccessReview")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.svc.ReviewPaymentAccess(ctx.Request().Context(), reg.ID, data)
	if err != nil {
		return errors.Wrap(err, "reviewing payment access")
	}
	return ctx.JSON(http.StatusOK, reg)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	PasswordResetRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (pr *PasswordResetRequest) Validate(validate *validator.Validate) error {
	pr.Email = core.CleanString(pr.Email, true /* lower */)
	return validate.Struct(pr)
}
