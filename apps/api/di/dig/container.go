package dig_container

import (
	"context"
	"fmt"
	"log"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/quizadmin/apps/api/echo"
	"github.com/trezcool/quizadmin/core"
	"github.com/trezcool/quizadmin/core/notification"
	"github.com/trezcool/quizadmin/core/user"
	"github.com/trezcool/quizadmin/services/cache"
	"github.com/trezcool/quizadmin/services/email"
	"github.com/trezcool/quizadmin/services/logger"
	"github.com/trezcool/quizadmin/services/metrics"
	"github.com/trezcool/quizadmin/storage/database"
	"github.com/trezcool/quizadmin/storage/database/inmem"
	"github.com/trezcool/quizadmin/storage/database/sqlx"
)

// memoryEngine keeps every table in process; nothing survives a restart.
const memoryEngine = "memory"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// Repositories are the storage implementations selected by conf.Database.Engine.
	Repositories struct {
		dig.Out
		Users     user.Repository
		Templates notification.TemplateRepository
		Sessions  notification.SessionRepository
		Logs      notification.LogRepository
	}
)

func newLogger(conf *core.Config) *logsvc.RollbarLogger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZap(conf.LogLevel, conf.LogFormat).Named("API"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZap(conf.LogLevel, conf.LogFormat).Named("DB"), conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newDB opens and migrates the database; it returns nil with the memory engine.
func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if conf.Database.Engine == memoryEngine {
		return nil
	}

	setUp := func(ctx context.Context) (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(ctx, db); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp(context.Background())
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newRepositories(conf *core.Config, db *sqlx.DB) Repositories {
	if conf.Database.Engine == memoryEngine {
		mem := inmemdb.Open()
		return Repositories{
			Users:     inmemdb.NewUserRepository(mem),
			Templates: inmemdb.NewTemplateRepository(mem),
			Sessions:  inmemdb.NewSessionRepository(mem),
			Logs:      inmemdb.NewLogRepository(mem),
		}
	}
	return Repositories{
		Users:     sqlxrepos.NewUserRepository(db),
		Templates: sqlxrepos.NewTemplateRepository(db),
		Sessions:  sqlxrepos.NewSessionRepository(db),
		Logs:      sqlxrepos.NewLogRepository(db),
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	svc, err := emailsvc.NewService(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up email service: %v", err), err)
	}
	return svc
}

func newTemplateCache(conf *core.Config, logger core.Logger) notification.TemplateCache {
	cache, err := cachesvc.NewTemplateCache(conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up template cache: %v", err), err)
	}
	return cache
}

func newServerDeps(
	usrSvc *user.Service,
	store *notification.TemplateStore,
	composer *notification.Composer,
	dispatcher *notification.Dispatcher,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Deps {
	return &echoapi.Deps{
		UserSvc:    usrSvc,
		Store:      store,
		Composer:   composer,
		Dispatcher: dispatcher,
		Validate:   validate,
		Translator: translator,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(func(l *logsvc.RollbarLogger) core.Logger { return l }))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newTemplateCache))
	must(c.Provide(metrics.NewRecorder))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(notification.NewTemplateStore))
	must(c.Provide(notification.NewComposer))
	must(c.Provide(notification.NewDispatcher))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
