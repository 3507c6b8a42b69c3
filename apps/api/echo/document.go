package echoapi

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/document"
	"github.com/voyago/voyago/core/operator"
)

type documentApi struct {
	svc       document.ServiceInterface
	processor *document.Processor
	userSvc   operator.ServiceInterface
	conf      *core.Config
	validate  *validator.Validate
}

func registerDocumentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc document.ServiceInterface,
	processor *document.Processor,
	userSvc operator.ServiceInterface,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := documentApi{
		svc:       svc,
		processor: processor,
		userSvc:   userSvc,
		conf:      conf,
		validate:  validate,
	}

	// job completion callback from an external processing worker
	g.POST("/ai-webhook", api.webhook)

	dg := g.Group("/documents", jwt)
	dg.POST("", api.upload)
	dg.GET("", api.query)
	dg.GET("/:id", api.retrieve)
	dg.GET("/:id/status", api.status)
	dg.POST("/:id/retry", api.retry)
	dg.POST("/:id/process", api.process)
	dg.POST("/:id/stop", api.stop)
	dg.POST("/:id/create-tour", api.createTour)
	dg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *documentApi) upload(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "a file is required"})
	}

	maxSize := int64(api.conf.Uploads.MaxSizeMB) << 20
	if file.Size > maxSize {
		return core.NewValidationError(nil, core.FieldError{
			Field: "file",
			Error: fmt.Sprintf("file exceeds the %dMB size limit", api.conf.Uploads.MaxSizeMB),
		})
	}

	data := document.NewUpload{
		FileName: file.Filename,
		FileType: strings.TrimPrefix(filepath.Ext(file.Filename), "."),
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	up, err := api.svc.Upload(claims.OperatorID, data, file.Size, src)
	if err != nil {
		return errors.Wrap(err, "uploading document")
	}
	return ctx.JSON(http.StatusCreated, up)
}

func (api *documentApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := new(document.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []document.Upload{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	uploads, err := api.svc.Query(claims.OperatorID, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	if uploads == nil {
		uploads = []document.Upload{}
	}
	return ctx.JSON(http.StatusOK, uploads)
}

func (api *documentApi) retrieve(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	up, err := api.svc.GetByID(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding document")
	}
	return ctx.JSON(http.StatusOK, up)
}

func (api *documentApi) status(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	status, err := api.svc.GetStatus(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting document status")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *documentApi) retry(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	job, err := api.svc.Retry(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "retrying document")
	}
	return ctx.JSON(http.StatusOK, job)
}

// process runs the extraction synchronously and returns the final document state.
func (api *documentApi) process(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.processor.ProcessDocument(ctx.Request().Context(), claims.OperatorID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "processing document")
	}
	status, err := api.svc.GetStatus(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting document status")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *documentApi) stop(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	up, err := api.svc.Stop(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "stopping document processing")
	}
	return ctx.JSON(http.StatusOK, up)
}

func (api *documentApi) createTour(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	t, err := api.svc.CreateTour(claims.OperatorID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "creating tour from document")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *documentApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	if err := api.svc.Delete(claims.OperatorID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *documentApi) webhook(ctx echo.Context) error {
	var data WebhookRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WebhookRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.svc.CompleteFromWebhook(data.JobID, data.Result); err != nil {
		return errors.Wrap(err, "completing job from webhook")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "job completed"})
}

type WebhookRequest struct {
	JobID  string                    `json:"job_id" validate:"required"`
	Result document.ExtractionResult `json:"result"`
}

func (wr *WebhookRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(wr)
}
