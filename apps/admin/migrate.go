package main

import "github.com/bmukendi/kongamano/storage/database"

var migrateFunc = database.Migrate // mockable

func (cli *commandLine) migrate() error {
	return migrateFunc(cli.db.DB)
}
