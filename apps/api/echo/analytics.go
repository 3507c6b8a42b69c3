package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/analytics"
	"github.com/voyago/voyago/core/operator"
)

type analyticsApi struct {
	svc      analytics.ServiceInterface
	userSvc  operator.ServiceInterface
	validate *validator.Validate
}

type ChatRequest struct {
	Message string `json:"message" validate:"required"`
}

func (r *ChatRequest) Validate(v *validator.Validate) error {
	r.Message = core.CleanString(r.Message)
	return v.Struct(r)
}

func registerAnalyticsAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc analytics.ServiceInterface,
	userSvc operator.ServiceInterface,
	validate *validator.Validate,
) {
	api := analyticsApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	ag := g.Group("/analytics", jwt)
	ag.GET("", api.dashboard)
	ag.GET("/insights", api.insights)
	ag.GET("/history", api.history)

	g.POST("/ai-chat", api.chat, jwt)
}

// Handlers

func (api *analyticsApi) dashboard(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	summary, err := api.svc.Dashboard(claims.OperatorID)
	if err != nil {
		return errors.Wrap(err, "building analytics dashboard")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *analyticsApi) insights(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	insights, err := api.svc.Insights(claims.OperatorID)
	if err != nil {
		return errors.Wrap(err, "building analytics insights")
	}
	return ctx.JSON(http.StatusOK, insights)
}

func (api *analyticsApi) history(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	records, err := api.svc.History(claims.OperatorID, ctx.QueryParam("type"))
	if err != nil {
		return errors.Wrap(err, "querying analytics history")
	}
	if records == nil {
		records = []analytics.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *analyticsApi) chat(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data ChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChatRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	resp, err := api.svc.Chat(claims.OperatorID, data.Message)
	if err != nil {
		return errors.Wrap(err, "handling chat message")
	}
	return ctx.JSON(http.StatusOK, resp)
}
