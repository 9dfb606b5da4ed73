package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/GithubESPI/bulletins/core"
	"github.com/GithubESPI/bulletins/core/bulletin"
	emailsvc "github.com/GithubESPI/bulletins/services/email"
	logsvc "github.com/GithubESPI/bulletins/services/logger"
	"github.com/GithubESPI/bulletins/services/ypareo"
	"github.com/GithubESPI/bulletins/storage/database"
	inmemdb "github.com/GithubESPI/bulletins/storage/database/inmem"
	sqlxrepos "github.com/GithubESPI/bulletins/storage/database/sqlx"
)

func main() {
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	// set up job store
	var jobRepo bulletin.Repository = inmemdb.NewJobRepository()
	if conf.Database.Enabled {
		db, err := database.Open(conf)
		if err != nil {
			stdLogger.Fatal(err)
		}
		defer db.Close()
		jobRepo = sqlxrepos.NewJobRepository(db)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	source := ypareo.NewClient(conf)

	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// start CLI
	cli := commandLine{
		out: os.Stdout,
		openDB: func() (*sql.DB, error) {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, err
			}
			db, err := database.Open(conf)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
		bulletinSvc: bulletin.NewService(conf, logger, source, jobRepo, mailSvc),
		validate:    validate,
		source:      source,
		hasToken:    conf.Ypareo.Token != "",
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %+v\n", err)
		}
		os.Exit(1)
	}
}
