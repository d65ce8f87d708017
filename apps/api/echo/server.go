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

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/attendance"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/course"
	"github.com/adminzone/backend/core/enrollment"
	"github.com/adminzone/backend/core/export"
	"github.com/adminzone/backend/core/student"
	"github.com/adminzone/backend/core/user"
)

type (
	// Deps holds the services exposed by the API.
	Deps struct {
		Validate   *validator.Validate
		Translator ut.Translator

		AuditSvc      *audit.Service
		StudentSvc    *student.Service
		CourseSvc     *course.Service
		EnrollmentSvc *enrollment.Service
		AttendanceSvc *attendance.Service
		UserSvc       *user.Service
		ExportSvc     *export.Service
	}

	Server struct {
		conf     *core.Config
		logger   core.Logger
		deps     *Deps
		app      *echo.Echo
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(conf *core.Config, logger core.Logger, deps *Deps) *Server {
	s := &Server{
		conf:     conf,
		logger:   logger,
		deps:     deps,
		app:      echo.New(),
		metrics:  newMetrics(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.deps.Translator, s.metrics, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: newRequestID}))
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowCredentials: true}))
	s.app.Use(s.metrics.middleware)
	s.app.Use(actorMiddleware)

	s.app.GET("/", s.home)
	s.app.GET("/metrics", echo.WrapHandler(s.metrics.handler()))

	g := s.app.Group("/api")
	jwt := jwtMiddleware(s.conf)
	records := authorize(recordsPolicy, s.deps.AuditSvc)
	admin := authorize(adminPolicy, s.deps.AuditSvc)

	registerAuthAPI(g, jwt, s.conf, s.deps.UserSvc, s.deps.Validate, s.deps.AuditSvc, s.metrics)
	registerStudentAPI(g, s.deps.StudentSvc, s.deps.Validate, jwt, records)
	registerCourseAPI(g, s.deps.CourseSvc, s.deps.Validate, jwt, records)
	registerEnrollmentAPI(g, s.deps.EnrollmentSvc, s.deps.Validate, jwt, records)
	registerAttendanceAPI(g, s.deps.AttendanceSvc, s.deps.Validate, jwt, records)
	registerExportAPI(g, s.deps.ExportSvc, jwt, records)
	registerUserAPI(g, s.deps.UserSvc, s.deps.Validate, jwt, admin)
	registerAuditAPI(g, s.deps.AuditSvc, jwt, admin)
}

// Start listens on the configured host; errors are sent to Errors().
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.logger.Info("API listening on " + s.conf.Server.Host)
	if err := s.app.Start(s.conf.Server.Host); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
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

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
