package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core/booking"
	"github.com/voyago/voyago/core/operator"
)

type bookingApi struct {
	svc      booking.ServiceInterface
	userSvc  operator.ServiceInterface
	validate *validator.Validate
}

func registerBookingAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc booking.ServiceInterface,
	userSvc operator.ServiceInterface,
	validate *validator.Validate,
) {
	api := bookingApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	bg := g.Group("/bookings", jwt)
	bg.POST("", api.create)
	bg.GET("", api.query)
	bg.GET("/:id", api.retrieve)
	bg.PUT("/:id", api.update)
	bg.POST("/:id/cancel", api.cancel)
	bg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *bookingApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data booking.NewBooking
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewBooking")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Create(claims.OperatorID, data)
	if err != nil {
		return errors.Wrap(err, "creating booking")
	}
	return ctx.JSON(http.StatusCreated, b)
}

func (api *bookingApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(booking.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []booking.Booking{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	bookings, err := api.svc.Query(claims.OperatorID, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying bookings")
	}
	if bookings == nil {
		bookings = []booking.Booking{}
	}
	return ctx.JSON(http.StatusOK, bookings)
}

func (api *bookingApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	b, err := api.svc.GetByID(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding booking")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *bookingApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data booking.UpdateBooking
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateBooking")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	b, err := api.svc.Update(claims.OperatorID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating booking")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *bookingApi) cancel(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	b, err := api.svc.Cancel(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "cancelling booking")
	}
	return ctx.JSON(http.StatusOK, b)
}

func (api *bookingApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(claims.OperatorID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting booking")
	}
	return ctx.NoContent(http.StatusNoContent)
}
