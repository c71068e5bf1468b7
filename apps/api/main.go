package main

import (
	"context"
	"database/sql"
	"expvar"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/jukutrack/apps/api/echo"
	"github.com/trezcool/jukutrack/core"
	"github.com/trezcool/jukutrack/core/school"
	"github.com/trezcool/jukutrack/core/student"
	emailsvc "github.com/trezcool/jukutrack/services/email"
	logsvc "github.com/trezcool/jukutrack/services/logger"
	"github.com/trezcool/jukutrack/storage/database"
	sqlxrepos "github.com/trezcool/jukutrack/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	if err := run(conf, logger); err != nil {
		logger.Fatal("starting app", err)
	}
}

func run(conf *core.Config, logger core.Logger) error {
	expvar.NewString("build").Set(conf.Build)
	logger.Info("app starting; version: " + conf.Build)
	defer logger.Info("app stopped")

	db, err := setUpDB(conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(db), mailSvc, conf)
	studentSvc := student.NewService(sqlxrepos.NewStudentRepository(db))

	// start debug server; provides /debug/pprof and /debug/vars
	go func() {
		logger.Info("debug server listening on " + conf.Server.DebugHost)
		err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux)
		logger.Error("debug server closed", err)
	}()

	app := echoapi.NewServer(conf.Server.Addr(), echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		SchoolSvc:  schoolSvc,
		StudentSvc: studentSvc,
		Validate:   validate,
		Translator: translator,
	})
	go app.Start()
	logger.Info("api server listening on " + conf.Server.Addr())

	select {
	case err := <-app.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-app.ShutdownSignal():
		logger.Info("starting shutdown: " + sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Shutdown(ctx); err != nil {
			_ = app.Close()
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(db, conf); err != nil {
		return nil, errors.Wrap(err, "migrating database")
	}
	return db, nil
}

func newTranslator() ut.Translator {
	lang := en.New()
	uniTrans := ut.New(lang, lang)
	translator, _ := uniTrans.GetTranslator(lang.Locale())
	return translator
}
