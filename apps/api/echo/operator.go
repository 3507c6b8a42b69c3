package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/operator"
)

type operatorApi struct {
	svc      operator.ServiceInterface
	conf     *core.Config
	validate *validator.Validate
}

func registerOperatorAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc operator.ServiceInterface,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := operatorApi{
		svc:      svc,
		conf:     conf,
		validate: validate,
	}

	og := g.Group("/operators")

	// un-authed endpoints
	// TODO: rate limit `/password-reset` & `/password-reset-confirm`
	og.POST("/register", api.register)
	og.POST("/login", api.login)
	og.POST("/password-reset", api.resetPassword)
	og.POST("/password-reset-confirm", api.confirmPasswordReset)

	// authed endpoints
	ag := og.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)
	ag.GET("/me", api.retrieve)
	ag.PUT("/me", api.update, ownerMiddleware())
}

// Handlers

func (api *operatorApi) register(ctx echo.Context) error {
	var data operator.NewOperator
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOperator")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	op, owner, err := api.svc.RegisterOperator(data)
	if err != nil {
		return errors.Wrap(err, "registering operator")
	}

	claims := GetUserClaims(owner)
	token, err := GenerateToken(claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, RegisterResponse{Operator: op, Owner: owner, Token: token})
}

func (api *operatorApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(data.Username, data.Password, api.svc)
	if err != nil {
		if errors.Cause(err) == operator.ErrNotFound {
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

func (api *operatorApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.RequestPasswordReset(data.Email); !(err == nil || errors.Cause(err) == operator.ErrNotFound) {
		// do not return errors to attackers
		ctx.Logger().Errorf("%+v", errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *operatorApi) confirmPasswordReset(ctx echo.Context) error {
	var data operator.ResetUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *operatorApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *operatorApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	op, err := api.svc.GetOperator(claims.OperatorID)
	if err != nil {
		return errors.Wrap(err, "finding operator")
	}
	return ctx.JSON(http.StatusOK, op)
}

func (api *operatorApi) update(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var data operator.UpdateOperator
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateOperator")
	}
	orig, err := api.svc.GetOperator(claims.OperatorID)
	if err != nil {
		return errors.Wrap(err, "finding operator")
	}
	if err := data.Validate(api.validate, orig); err != nil {
		return err
	}

	op, err := api.svc.UpdateOperator(claims.OperatorID, data)
	if err != nil {
		return errors.Wrap(err, "updating operator")
	}
	return ctx.JSON(http.StatusOK, op)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	RegisterResponse struct {
		Operator operator.Operator `json:"operator"`
		Owner    operator.User     `json:"owner"`
		Token    string            `json:"token"`
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
