package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/voyago/voyago/core"
	"github.com/voyago/voyago/core/analytics"
	"github.com/voyago/voyago/core/booking"
	"github.com/voyago/voyago/core/customer"
	"github.com/voyago/voyago/core/document"
	"github.com/voyago/voyago/core/operator"
	"github.com/voyago/voyago/core/tour"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db   *sqlx.DB
	conf *core.Config

	usrRepo      operator.Repository
	operatorSvc  operator.ServiceInterface
	tourSvc      tour.ServiceInterface
	customerSvc  customer.ServiceInterface
	bookingSvc   booking.ServiceInterface
	analyticsSvc analytics.ServiceInterface
	docSvc       *document.Service
	logger       core.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  adduser -operator OPERATOR_ID -username USERNAME -email EMAIL [-manager] - update or create a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  processjobs [-use-mock] [-api-key KEY] - run all queued document extraction jobs")
	fmt.Println("  setupdemo - seed a demo operator with tours, customers and bookings")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserOperator := addUserCmd.String("operator", "", "The operator (tenant) the user belongs to.")
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserManager := addUserCmd.Bool("manager", false, "Grant the manager role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	processJobsCmd := flag.NewFlagSet("processjobs", flag.ExitOnError)
	processJobsUseMock := processJobsCmd.Bool("use-mock", false, "Extract with the mock AI client instead of Gemini.")
	processJobsAPIKey := processJobsCmd.String("api-key", "", "Override the configured Gemini API key.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserOperator == "" || *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserOperator, *addUserUname, *addUserEmail, pwd, *addUserManager)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "processjobs":
		if err := processJobsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.processJobs(context.Background(), *processJobsUseMock, *processJobsAPIKey)
	case "setupdemo":
		return cli.setupDemo()
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
