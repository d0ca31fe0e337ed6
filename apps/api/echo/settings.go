package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core/settings"
)

type settingsApi struct {
	svc      settings.Service
	validate *validator.Validate
}

func registerSettingsAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := settingsApi{
		svc:      opts.SettingsSvc,
		validate: opts.Validate,
	}

	sg := g.Group("/settings")
	sg.GET("", api.current)
	sg.POST("", api.create, jwt, superAdminMiddleware())
}

// Handlers

// current is public: the frontend needs it before anyone logs in.
func (api *settingsApi) current(ctx echo.Context) error {
	conf, err := api.svc.Current(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "loading settings")
	}
	return ctx.JSON(http.StatusOK, conf)
}

func (api *settingsApi) create(ctx echo.Context) error {
	var data settings.NewSettings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSettings")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	conf, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "saving settings")
	}
	return ctx.JSON(http.StatusCreated, conf)
}
