package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/trezcool/portal/core"
	"github.com/trezcool/portal/core/directory"
	logsvc "github.com/trezcool/portal/services/logger"
	"github.com/trezcool/portal/services/upstream"
	"github.com/trezcool/portal/storage/database"
	"github.com/trezcool/portal/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	conf.Log.Format = "console"

	out, closer, err := logsvc.NewOutput(conf.Log, conf.AppName)
	if err != nil {
		log.Fatalf("setting up log output: %v", err)
	}
	logger := logsvc.NewZeroLogger(out.With().Str("component", "admin").Logger())

	// set up DB
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := database.Open(ctx, conf)
	cancel()
	if err != nil {
		logger.Fatal("setting up database", err)
	}

	// start CLI
	cli := commandLine{
		db:     db.DB,
		dirSvc: directory.NewService(sqlxrepos.NewDirectoryRepository(db), logger),
		source: upstream.New(upstream.Options{
			BaseURL:  conf.Upstream.BaseURL,
			Token:    conf.Upstream.Token,
			Timeout:  conf.Upstream.Timeout,
			CacheTTL: conf.Upstream.CacheTTL,
			Logger:   logger,
		}),
		out: os.Stdout,
	}
	err = cli.run(os.Args)

	_ = db.Close()
	_ = closer.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
