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
	"github.com/pkg/errors"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/class"
	"github.com/trezcool/portal/core/directory"
	"github.com/trezcool/portal/core/grade"
	"github.com/trezcool/portal/core/student"
	"github.com/trezcool/portal/services/upstream"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		Upstream     *upstream.Client
		Resolver     *academic.Resolver
		ClassSvc     *class.Service
		GradeSvc     *grade.Service
		StudentSvc   *student.Service
		DirectorySvc *directory.Service
	}

	Server struct {
		ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		ServerDeps: deps,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Server.ReadTimeout = s.Conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = s.Conf.Server.WriteTimeout

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(requestIDMiddleware()...)
	if !s.Conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.Conf.Debug || s.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.Logger, s.Translator, s.SignalShutdown)
	s.app.Debug = s.Conf.Debug

	s.app.GET("/health", health)

	jwt := middleware.JWTWithConfig(newJWTConfig(s.Conf.Auth))
	api := s.app.Group("/api", jwt, issuerMiddleware(s.Conf.Auth.Issuer))

	registerSessionAPI(api, s.Resolver, s.Validate)
	registerStudentAPI(api, s.StudentSvc, s.Resolver, s.Validate)
	registerFacultyAPI(api, s.ClassSvc, s.GradeSvc, s.DirectorySvc, s.Resolver, s.Validate)
	registerClassAPI(api, s.ClassSvc, s.Validate)
	registerMiscAPI(api, s.Upstream, s.Resolver, s.Validate)
}

func (s *Server) Start() {
	s.Logger.Info("API server listening on " + s.Conf.Server.Address)
	if err := s.app.Start(s.Conf.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

// Errors receives the listener's fatal error, if any.
func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// SignalShutdown asks the owner of the Server to shut it down gracefully.
func (s *Server) SignalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func health(ctx echo.Context) error {
	return respond(ctx, http.StatusOK, echo.Map{"status": "ok"})
}
