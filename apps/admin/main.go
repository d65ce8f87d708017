package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/adminzone/backend/core"
	"github.com/adminzone/backend/core/audit"
	"github.com/adminzone/backend/core/user"
	logsvc "github.com/adminzone/backend/services/logger"
	"github.com/adminzone/backend/storage/database"
	sqlxrepos "github.com/adminzone/backend/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	defer logger.Sync()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer db.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	auditSvc := audit.NewService(sqlxrepos.NewAuditRepository(db), logger)
	cli := commandLine{
		db:       db,
		usrSvc:   user.NewService(db, sqlxrepos.NewUserRepository(db), auditSvc),
		validate: validate,
		logger:   logger,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}
