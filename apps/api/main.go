package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/kampi/apps/api/echo"
	"github.com/trezcool/kampi/core"
	"github.com/trezcool/kampi/core/content"
	"github.com/trezcool/kampi/core/payment"
	"github.com/trezcool/kampi/core/registrant"
	"github.com/trezcool/kampi/core/settings"
	"github.com/trezcool/kampi/core/slip"
	emailsvc "github.com/trezcool/kampi/services/email"
	logsvc "github.com/trezcool/kampi/services/logger"
	"github.com/trezcool/kampi/storage/database"
	sqlxrepos "github.com/trezcool/kampi/storage/database/sqlx"
)

func main() {
	conf := core.Conf

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Fatal("failed to close DB", err)
		}
	}()
	sqlxDB := sqlxrepos.NewDB(db, conf)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	regSvc := registrant.NewService(sqlxDB, sqlxrepos.NewRegistrantRepository(sqlxDB), mailSvc)
	setSvc := settings.NewService(sqlxrepos.NewSettingsRepository(sqlxDB))
	pmtSvc := payment.NewService(sqlxDB, sqlxrepos.NewPaymentRepository(sqlxDB), regSvc, setSvc, mailSvc)
	slipSvc := slip.NewService(sqlxrepos.NewSlipRepository(sqlxDB))
	cntSvc := content.NewService(sqlxrepos.NewContentRepository(sqlxDB))

	// set up validation
	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	registrant.RegisterValidators(validate, translator)

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	server := echoapi.NewServer(&echoapi.Options{
		Address:    conf.Server.Address(),
		Logger:     logger,
		Validate:   validate,
		Translator: translator,

		RegistrantSvc: regSvc,
		PaymentSvc:    pmtSvc,
		SettingsSvc:   setSvc,
		SlipSvc:       slipSvc,
		ContentSvc:    cntSvc,
	})
	server.Start()

	// shutdown
	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
