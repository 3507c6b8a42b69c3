package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core/operator"
	"github.com/voyago/voyago/core/tour"
)

type tourApi struct {
	svc      tour.ServiceInterface
	userSvc  operator.ServiceInterface
	validate *validator.Validate
}

func registerTourAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc tour.ServiceInterface,
	userSvc operator.ServiceInterface,
	validate *validator.Validate,
) {
	api := tourApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	tg := g.Group("/tours", jwt)
	tg.POST("", api.create)
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
	tg.GET("/:id/departures", api.queryTourDepartures)

	dg := g.Group("/departures", jwt)
	dg.POST("", api.createDeparture)
	dg.GET("", api.queryDepartures)
	dg.GET("/:id", api.retrieveDeparture)
	dg.PUT("/:id", api.updateDeparture)
	dg.DELETE("/:id", api.destroyDeparture)
	dg.GET("/:id/breakeven", api.departureBreakeven)
	dg.POST("/breakeven", api.computeBreakeven)
}

// Handlers

func (api *tourApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data tour.NewTour
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTour")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(claims.OperatorID, data)
	if err != nil {
		return errors.Wrap(err, "creating tour")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *tourApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(tour.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []tour.Tour{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tours, err := api.svc.Query(claims.OperatorID, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying tours")
	}
	if tours == nil {
		tours = []tour.Tour{}
	}
	return ctx.JSON(http.StatusOK, tours)
}

func (api *tourApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	t, err := api.svc.GetByID(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding tour")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tourApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data tour.UpdateTour
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTour")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Update(claims.OperatorID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating tour")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *tourApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(claims.OperatorID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting tour")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *tourApi) queryTourDepartures(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := &tour.DepartureFilter{TourID: ctx.Param("id")}
	departures, err := api.svc.QueryDepartures(claims.OperatorID, filter)
	if err != nil {
		return errors.Wrap(err, "querying tour departures")
	}
	if departures == nil {
		departures = []tour.Departure{}
	}
	return ctx.JSON(http.StatusOK, departures)
}

func (api *tourApi) createDeparture(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data tour.NewDeparture
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDeparture")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	d, err := api.svc.CreateDeparture(claims.OperatorID, data)
	if err != nil {
		return errors.Wrap(err, "creating departure")
	}
	return ctx.JSON(http.StatusCreated, d)
}

func (api *tourApi) queryDepartures(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(tour.DepartureFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []tour.Departure{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	departures, err := api.svc.QueryDepartures(claims.OperatorID, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying departures")
	}
	if departures == nil {
		departures = []tour.Departure{}
	}
	return ctx.JSON(http.StatusOK, departures)
}

func (api *tourApi) retrieveDeparture(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	d, err := api.svc.GetDeparture(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding departure")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *tourApi) updateDeparture(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data tour.UpdateDeparture
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateDeparture")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	d, err := api.svc.UpdateDeparture(claims.OperatorID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating departure")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *tourApi) destroyDeparture(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.DeleteDeparture(claims.OperatorID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting departure")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// departureBreakeven runs the analysis on a stored departure.
func (api *tourApi) departureBreakeven(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	d, err := api.svc.GetDeparture(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding departure")
	}

	in := tour.DepartureBreakevenInputs(d)
	return ctx.JSON(http.StatusOK, BreakevenResponse{
		Analysis: in.Analyze(),
		Costs:    in.Costs(),
	})
}

// computeBreakeven runs the analysis on operator-supplied figures without
// touching any stored departure.
func (api *tourApi) computeBreakeven(ctx echo.Context) error {
	var in tour.BreakevenInputs
	if err := ctx.Bind(&in); err != nil {
		return errors.Wrap(err, "binding to BreakevenInputs")
	}
	if err := api.validate.Struct(in); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, BreakevenResponse{
		Analysis: in.Analyze(),
		Costs:    in.Costs(),
	})
}

type BreakevenResponse struct {
	Analysis tour.BreakevenAnalysis `json:"analysis"`
	Costs    tour.CostBreakdown     `json:"costs"`
}
