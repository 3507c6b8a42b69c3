package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core/customer"
	"github.com/voyago/voyago/core/operator"
)

type customerApi struct {
	svc      customer.ServiceInterface
	userSvc  operator.ServiceInterface
	validate *validator.Validate
}

func registerCustomerAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc customer.ServiceInterface,
	userSvc operator.ServiceInterface,
	validate *validator.Validate,
) {
	api := customerApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	cg := g.Group("/customers", jwt)
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.DELETE("/:id", api.destroy)

	ng := cg.Group("/:id/notes")
	ng.POST("", api.addNote)
	ng.GET("", api.queryNotes)
	ng.DELETE("/:noteID", api.destroyNote)
}

// Handlers

func (api *customerApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data customer.NewCustomer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCustomer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(claims.OperatorID, data)
	if err != nil {
		return errors.Wrap(err, "creating customer")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *customerApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(customer.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []customer.Customer{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	customers, err := api.svc.Query(claims.OperatorID, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying customers")
	}
	if customers == nil {
		customers = []customer.Customer{}
	}
	return ctx.JSON(http.StatusOK, customers)
}

func (api *customerApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c, err := api.svc.GetByID(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding customer")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *customerApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data customer.UpdateCustomer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCustomer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Update(claims.OperatorID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating customer")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *customerApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(claims.OperatorID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting customer")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *customerApi) addNote(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data customer.NewNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNote")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	note, err := api.svc.AddNote(claims.OperatorID, ctx.Param("id"), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "adding customer note")
	}
	return ctx.JSON(http.StatusCreated, note)
}

func (api *customerApi) queryNotes(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	notes, err := api.svc.Notes(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying customer notes")
	}
	if notes == nil {
		notes = []customer.Note{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *customerApi) destroyNote(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.DeleteNote(claims.OperatorID, ctx.Param("id"), ctx.Param("noteID")); err != nil {
		return errors.Wrap(err, "deleting customer note")
	}
	return ctx.NoContent(http.StatusNoContent)
}
