package main

import (
	"log"
	"os"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/analytics"
	"github.com/voyago/voyago/core/booking"
	"github.com/voyago/voyago/core/customer"
	"github.com/voyago/voyago/core/document"
	"github.com/voyago/voyago/core/operator"
	"github.com/voyago/voyago/core/tour"
	emailsvc "github.com/voyago/voyago/services/email"
	logsvc "github.com/voyago/voyago/services/logger"
	"github.com/voyago/voyago/storage/database"
	sqlxrepos "github.com/voyago/voyago/storage/database/sqlx"
	"github.com/voyago/voyago/storage/files"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	svcLogger := logsvc.NewRollbarLogger(logger, conf)
	svcLogger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	errAndDie(db.Ping())

	mailSvc := emailsvc.NewConsoleService(conf)
	fileStorage, err := files.NewLocalStorage(conf.Uploads.Dir)
	errAndDie(err)

	usrRepo := sqlxrepos.NewOperatorRepository(db)
	operatorSvc := operator.NewService(db, usrRepo, mailSvc, conf)
	tourSvc := tour.NewService(sqlxrepos.NewTourRepository(db))
	customerSvc := customer.NewService(sqlxrepos.NewCustomerRepository(db))
	bookingSvc := booking.NewService(sqlxrepos.NewBookingRepository(db), tourSvc, customerSvc, mailSvc)
	analyticsSvc := analytics.NewService(sqlxrepos.NewAnalyticsRepository(db), tourSvc)
	docSvc := document.NewService(sqlxrepos.NewDocumentRepository(db), fileStorage, tourSvc)

	// start CLI
	cli := commandLine{
		db:           db,
		conf:         conf,
		usrRepo:      usrRepo,
		operatorSvc:  operatorSvc,
		tourSvc:      tourSvc,
		customerSvc:  customerSvc,
		bookingSvc:   bookingSvc,
		analyticsSvc: analyticsSvc,
		docSvc:       docSvc,
		logger:       svcLogger,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
