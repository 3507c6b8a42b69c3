package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// managerMiddleware only lets owner and manager accounts through.
func managerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsManager {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ownerMiddleware only lets the operator owner through.
func ownerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsOwner {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
