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

	"github.com/trezcool/jukutrack/core"
	"github.com/trezcool/jukutrack/core/school"
	"github.com/trezcool/jukutrack/core/student"
)

type ServerDeps struct {
	Conf       *core.Config
	Logger     core.Logger
	SchoolSvc  school.ServiceInterface
	StudentSvc student.ServiceInterface
	Validate   *validator.Validate
	Translator ut.Translator
}

type Server interface {
	http.Handler
	Start()
	Errors() <-chan error
	ShutdownSignal() <-chan os.Signal
	Shutdown(ctx context.Context) error
	Close() error
}

type server struct {
	app      *echo.Echo
	addr     string
	errs     chan error
	shutdown chan os.Signal
}

var _ Server = (*server)(nil)

func NewServer(addr string, deps ServerDeps) *server {
	srv := &server{
		app:      echo.New(),
		addr:     addr,
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(srv.shutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	srv.setup(deps)
	return srv
}

func (srv *server) setup(deps ServerDeps) {
	conf := deps.Conf

	srv.app.Debug = conf.Debug
	srv.app.HideBanner = true
	srv.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, srv.signalShutdown)

	srv.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		srv.app.Use(middleware.Logger())
	}
	if !(conf.Debug || conf.TestMode) {
		srv.app.Use(middleware.Recover())
		srv.app.Logger.SetLevel(log.ERROR)
	}

	srv.app.GET("/", home)

	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerSchoolAPI(srv.app, deps)
	registerStudentAPI(srv.app, jwt, deps)
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"app": "Jukutrack", "status": "ok"})
}

func (srv *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv.app.ServeHTTP(w, r)
}

func (srv *server) Start() {
	srv.errs <- srv.app.Start(srv.addr)
}

func (srv *server) Errors() <-chan error {
	return srv.errs
}

func (srv *server) ShutdownSignal() <-chan os.Signal {
	return srv.shutdown
}

func (srv *server) signalShutdown() {
	srv.shutdown <- syscall.SIGTERM
}

func (srv *server) Shutdown(ctx context.Context) error {
	return srv.app.Shutdown(ctx)
}

func (srv *server) Close() error {
	return srv.app.Close()
}
