package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/kampi/core/registrant"
)

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func superAdminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsSuperAdmin {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ctxRegistrantOrAdminMiddleware loads the registrant addressed by the :id
// param into the context, for the registrant themselves or any admin. Anyone
// else gets a 404 rather than a confirmation that the account exists.
func ctxRegistrantOrAdminMiddleware(svc registrant.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxReg, err := getContextRegistrant(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context registrant")
			}

			if ctx.Param("id") == ctxReg.ID || ctxReg.IsAdmin() {
				if reg, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set("object", reg)
					return next(ctx)
				} else if errors.Cause(err) != registrant.ErrNotFound {
					return errors.Wrap(err, "finding registrant by ID")
				}
			}
			return errHttpNotFound
		}
	}
}
