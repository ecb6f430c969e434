package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/idhini/apps/api/echo"
	"github.com/trezcool/idhini/core"
	"github.com/trezcool/idhini/core/actor"
	"github.com/trezcool/idhini/core/audit"
	"github.com/trezcool/idhini/core/document"
	"github.com/trezcool/idhini/core/notification"
	emailsvc "github.com/trezcool/idhini/services/email"
	logsvc "github.com/trezcool/idhini/services/logger"
	pushsvc "github.com/trezcool/idhini/services/push"
	"github.com/trezcool/idhini/storage/database"
	sqlxrepos "github.com/trezcool/idhini/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	reporter := core.NewLogReporter(logger)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close database", err)
		}
	}()
	dbx := sqlx.NewDb(db, "postgres")

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var bcast notification.Broadcaster
	var subscriber pushsvc.Subscriber
	if conf.Debug {
		bcast = pushsvc.NewDummyBroadcaster()
	} else {
		redisBcast := pushsvc.NewRedisBroadcaster(conf.Redis)
		defer func() { _ = redisBcast.Close() }()
		bcast, subscriber = redisBcast, redisBcast
	}

	validate, translator := core.NewValidator()

	resolver := actor.NewResolver(sqlxrepos.NewActorRepository(dbx))
	auditor := audit.NewRecorder(sqlxrepos.NewAuditSink(dbx), reporter)
	notifSvc := notification.NewService(
		sqlxrepos.NewNotificationRepository(dbx), resolver, bcast, mailSvc, reporter, validate)
	docSvc := document.NewService(
		sqlxrepos.NewDocumentRepository(dbx), resolver, notifSvc, auditor, reporter, validate,
		conf.ExcludedDepartments)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Resolver:   resolver,
			DocSvc:     docSvc,
			NotifSvc:   notifSvc,
			Subscriber: subscriber,
			Validate:   validate,
			Translator: translator,
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

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
