package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/analytics"
	"github.com/voyago/voyago/core/booking"
	"github.com/voyago/voyago/core/customer"
	"github.com/voyago/voyago/core/document"
	"github.com/voyago/voyago/core/operator"
	"github.com/voyago/voyago/core/tour"
)

type (
	// ServerDeps holds everything the API server needs to run.
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		OperatorSvc    operator.ServiceInterface
		DocumentSvc    document.ServiceInterface
		Processor      *document.Processor
		TourSvc        tour.ServiceInterface
		CustomerSvc    customer.ServiceInterface
		BookingSvc     booking.ServiceInterface
		AnalyticsSvc   analytics.ServiceInterface
		Validate       *validator.Validate
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf
	initJWTConfig(conf)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerOperatorAPI(v1, jwt, s.deps.OperatorSvc, conf, s.deps.Validate)
	registerUserAPI(v1, jwt, s.deps.OperatorSvc, s.deps.Validate)
	registerDocumentAPI(v1, jwt, s.deps.DocumentSvc, s.deps.Processor, s.deps.OperatorSvc, conf, s.deps.Validate)
	registerTourAPI(v1, jwt, s.deps.TourSvc, s.deps.OperatorSvc, s.deps.Validate)
	registerCustomerAPI(v1, jwt, s.deps.CustomerSvc, s.deps.OperatorSvc, s.deps.Validate)
	registerBookingAPI(v1, jwt, s.deps.BookingSvc, s.deps.OperatorSvc, s.deps.Validate)
	registerAnalyticsAPI(v1, jwt, s.deps.AnalyticsSvc, s.deps.OperatorSvc, s.deps.Validate)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Voyago API!")
}
