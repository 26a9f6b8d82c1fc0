package main

import (
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core/account"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sqlx.DB
	acctRepo account.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate - apply pending database migrations")
	fmt.Println("  addaccount -email EMAIL -firstname NAME -lastname NAME [-role ROLE] - update or create an account")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAccountCmd := flag.NewFlagSet("addaccount", flag.ExitOnError)
	addAccountEmail := addAccountCmd.String("email", "", "The account's email.")
	addAccountFirstName := addAccountCmd.String("firstname", "", "The account's first name.")
	addAccountLastName := addAccountCmd.String("lastname", "", "The account's last name.")
	addAccountRole := addAccountCmd.String("role", string(account.RoleOrganizer), "The account's role label.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "addaccount":
		if err := addAccountCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAccountEmail == "" || *addAccountFirstName == "" || *addAccountLastName == "" {
			addAccountCmd.Usage()
			return errHelp
		}
		return cli.addAccount(*addAccountEmail, *addAccountFirstName, *addAccountLastName, *addAccountRole)
	default:
		cli.printUsage()
		return errHelp
	}
}
