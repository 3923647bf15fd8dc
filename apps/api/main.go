package main

import (
	"context"
	"expvar"
	"fmt"
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/portal/apps/api/echo"
	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/academic"
	"github.com/trezcool/portal/core/class"
	"github.com/trezcool/portal/core/directory"
	"github.com/trezcool/portal/core/grade"
	"github.com/trezcool/portal/core/student"
	logsvc "github.com/trezcool/portal/services/logger"
	"github.com/trezcool/portal/services/profile"
	"github.com/trezcool/portal/services/upstream"
	"github.com/trezcool/portal/storage/database"
	"github.com/trezcool/portal/storage/database/inmem"
	"github.com/trezcool/portal/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	out, closer, err := logsvc.NewOutput(conf.Log, conf.AppName)
	if err != nil {
		log.Fatalf("setting up log output: %v", err)
	}
	defer closer.Close()

	logger := logsvc.NewRollbarLogger(out.With().Str("component", "api").Logger(), conf)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(out.With().Str("component", "db").Logger(), conf)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	client := upstream.New(upstream.Options{
		BaseURL:  conf.Upstream.BaseURL,
		Token:    conf.Upstream.Token,
		Timeout:  conf.Upstream.Timeout,
		CacheTTL: conf.Upstream.CacheTTL,
		Logger:   logger,
	})

	profiles, profilesCloser, err := newProfileStore(conf, db)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up profile store: %v", err), err)
	}
	defer profilesCloser.Close()

	resolver := academic.NewResolver(profiles, client, logger)
	dirSvc := directory.NewService(sqlxrepos.NewDirectoryRepository(db), dbLogger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.Publish("upstreamCache", expvar.Func(func() interface{} { return client.Cache().Stats() }))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			Validate:     validate,
			Translator:   translator,
			Upstream:     client,
			Resolver:     resolver,
			ClassSvc:     class.NewService(client, logger),
			GradeSvc:     grade.NewService(client, logger),
			StudentSvc:   student.NewService(client, logger),
			DirectorySvc: dirSvc,
		},
	)

	go func() {
		server.Start()
	}()

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

		// let background profile writes land
		resolver.Drain()
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// newProfileStore picks where caller profiles live.
func newProfileStore(conf *core.Config, db *sqlx.DB) (academic.ProfileStore, io.Closer, error) {
	switch conf.Profile.Backend {
	case "", "postgres":
		return sqlxrepos.NewProfileStore(db), nopCloser{}, nil
	case "redis":
		rdb, err := profile.NewRedisClient(context.Background(), conf.Redis)
		if err != nil {
			return nil, nil, err
		}
		return profile.NewRedisStore(rdb, conf.Redis.ProfilePrefix), rdb, nil
	case "memory":
		return inmemdb.NewProfileStore(inmemdb.Open()), nopCloser{}, nil
	}
	return nil, nil, errors.Errorf("unknown profile backend %q", conf.Profile.Backend)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
