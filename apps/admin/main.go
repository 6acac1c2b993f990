package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
	"github.com/trezcool/quizadmin/core/user"
	"github.com/trezcool/quizadmin/services/cache"
	"github.com/trezcool/quizadmin/services/email"
	"github.com/trezcool/quizadmin/services/logger"
	"github.com/trezcool/quizadmin/services/metrics"
	"github.com/trezcool/quizadmin/storage/database"
	"github.com/trezcool/quizadmin/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewZap(conf.LogLevel, conf.LogFormat).Named("ADMIN"), conf)
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	ctx := context.Background()

	// set up DB
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	mailSvc, err := emailsvc.NewService(ctx, conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up email service: %v", err), err)
	}
	cache, err := cachesvc.NewTemplateCache(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up template cache: %v", err), err)
	}
	store := notification.NewTemplateStore(sqlxrepos.NewTemplateRepository(db), cache, validate, conf, logger)

	// start CLI
	cli := commandLine{
		db:       db,
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, validate, translator, conf, logger),
		store:    store,
		composer: notification.NewComposer(sqlxrepos.NewSessionRepository(db), store, metrics.NewRecorder()),
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", errMessage(err))
		}
		logger.Sync()
		os.Exit(1)
	}
}
