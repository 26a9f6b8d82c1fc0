package main

import (
	"context"
	"time"

	"github.com/bmukendi/kongamano/core"
	"github.com/bmukendi/kongamano/core/account"
)

// addAccount updates or creates an account.Account
func (cli *commandLine) addAccount(email, firstName, lastName, role string) error {
	ctx := context.Background()
	email = core.CleanString(email)
	now := time.Now().UTC()

	acct, err := cli.acctRepo.GetAccountByEmail(ctx, email)
	if err != nil {
		if err != account.ErrNotFound {
			return err
		}
		_, err = cli.acctRepo.CreateAccount(ctx, account.Account{
			FirstName: core.CleanString(firstName),
			LastName:  core.CleanString(lastName),
			Email:     email,
			Auth:      core.CleanString(role, true /* lower */),
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	}

	acct.FirstName = core.CleanString(firstName)
	acct.LastName = core.CleanString(lastName)
	acct.Auth = core.CleanString(role, true /* lower */)
	acct.UpdatedAt = now
	_, err = cli.acctRepo.UpdateAccount(ctx, acct)
	return err
}
