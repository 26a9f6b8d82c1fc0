package account_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core/account"
)

func importCSV(t *testing.T, svc *account.Service, csv string) (int, []string) {
	t.Helper()
	added, warnings, err := svc.ImportRoster(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportRoster(): %v", err)
	}
	return added, warnings
}

func allAccounts(t *testing.T, svc *account.Service) []account.Account {
	t.Helper()
	accts, err := svc.QueryAll(context.Background())
	if err != nil {
		t.Fatalf("QueryAll(): %v", err)
	}
	return accts
}

func TestImportRosterHeaderValidation(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		warning string
	}{
		{
			name:    "missing email column",
			csv:     "firstname,lastname\nAda,Lovelace\n",
			warning: "Missing required CSV columns: email",
		},
		{
			name:    "missing several columns",
			csv:     "email\nada@conf.io\n",
			warning: "Missing required CSV columns: firstname, lastname",
		},
		{
			name:    "empty file",
			csv:     "",
			warning: "Missing required CSV columns: firstname, lastname, email",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			added, warnings := importCSV(t, svc, tt.csv)
			if added != 0 {
				t.Errorf("added = %d; want 0", added)
			}
			if len(warnings) != 1 || warnings[0] != tt.warning {
				t.Errorf("warnings = %v; want [%q]", warnings, tt.warning)
			}
			if got := allAccounts(t, svc); len(got) != 0 {
				t.Errorf("accounts persisted = %d; want 0", len(got))
			}
		})
	}
}

func TestImportRoster(t *testing.T) {
	t.Run("happy path with role column", func(t *testing.T) {
		svc, _ := newTestService(t)
		added, warnings := importCSV(t, svc,
			"firstname,lastname,email,role\n"+
				"Ada,Lovelace,ada@conf.io,organizer\n"+
				"Grace,Hopper,grace@conf.io,attendee\n")
		if added != 2 {
			t.Errorf("added = %d; want 2", added)
		}
		if len(warnings) != 0 {
			t.Errorf("warnings = %v; want none", warnings)
		}

		accts := allAccounts(t, svc)
		if accts[0].Auth != "organizer" || accts[1].Auth != "attendee" {
			t.Errorf("roles = %q, %q; want organizer, attendee", accts[0].Auth, accts[1].Auth)
		}
	})

	t.Run("auth column fallback", func(t *testing.T) {
		svc, _ := newTestService(t)
		importCSV(t, svc, "firstname,lastname,email,auth\nAda,Lovelace,ada@conf.io,banned\n")
		if accts := allAccounts(t, svc); accts[0].Auth != "banned" {
			t.Errorf("Auth = %q; want banned", accts[0].Auth)
		}
	})

	t.Run("default role without role column", func(t *testing.T) {
		svc, _ := newTestService(t)
		importCSV(t, svc, "firstname,lastname,email\nAda,Lovelace,ada@conf.io\n")
		if accts := allAccounts(t, svc); accts[0].Auth != string(account.ImportedRole) {
			t.Errorf("Auth = %q; want %q", accts[0].Auth, account.ImportedRole)
		}
	})

	t.Run("blank rows skipped silently", func(t *testing.T) {
		svc, _ := newTestService(t)
		added, warnings := importCSV(t, svc,
			"firstname,lastname,email\n"+
				",,\n"+
				"Ada,Lovelace,ada@conf.io\n")
		if added != 1 {
			t.Errorf("added = %d; want 1", added)
		}
		if len(warnings) != 0 {
			t.Errorf("warnings = %v; want none", warnings)
		}
	})

	t.Run("bad rows collected by number", func(t *testing.T) {
		svc, _ := newTestService(t)
		added, warnings := importCSV(t, svc,
			"firstname,lastname,email\n"+
				"Ada,Lovelace,not-an-email\n"+ // row 2: no @
				",Hopper,grace@conf.io\n"+ // row 3: missing first name
				"Alan,Turing,alan@conf.io\n")
		if added != 1 {
			t.Errorf("added = %d; want 1", added)
		}
		want := []string{"Invalid or missing data on rows: 2, 3. These rows were skipped."}
		if !reflect.DeepEqual(warnings, want) {
			t.Errorf("warnings = %v; want %v", warnings, want)
		}
	})

	t.Run("duplicates against persisted accounts only", func(t *testing.T) {
		svc, _ := newTestService(t)
		createAccount(t, svc, account.NewAccount{FirstName: "Ada", LastName: "Lovelace", Email: "ada@conf.io"})

		added, warnings := importCSV(t, svc,
			"firstname,lastname,email\n"+
				"Ada,Lovelace,ada@conf.io\n"+ // row 2: already persisted
				"Grace,Hopper,grace@conf.io\n")
		if added != 1 {
			t.Errorf("added = %d; want 1", added)
		}
		want := []string{"Duplicate emails found on rows: 2. These rows were skipped."}
		if !reflect.DeepEqual(warnings, want) {
			t.Errorf("warnings = %v; want %v", warnings, want)
		}
	})

	t.Run("duplicate and bad warnings combined", func(t *testing.T) {
		svc, _ := newTestService(t)
		createAccount(t, svc, account.NewAccount{FirstName: "Ada", LastName: "Lovelace", Email: "ada@conf.io"})

		_, warnings := importCSV(t, svc,
			"firstname,lastname,email\n"+
				"Grace,,grace@conf.io\n"+ // row 2: missing last name
				"Ada,Lovelace,ada@conf.io\n") // row 3: duplicate
		want := []string{
			"Duplicate emails found on rows: 3. These rows were skipped.",
			"Invalid or missing data on rows: 2. These rows were skipped.",
		}
		if !reflect.DeepEqual(warnings, want) {
			t.Errorf("warnings = %v; want %v", warnings, want)
		}
	})

	t.Run("short rows treated as missing fields", func(t *testing.T) {
		svc, _ := newTestService(t)
		added, warnings := importCSV(t, svc,
			"firstname,lastname,email\n"+
				"Ada\n") // row 2: ragged row, no email column
		if added != 0 {
			t.Errorf("added = %d; want 0", added)
		}
		want := []string{"Invalid or missing data on rows: 2. These rows were skipped."}
		if !reflect.DeepEqual(warnings, want) {
			t.Errorf("warnings = %v; want %v", warnings, want)
		}
	})
}

// failingAccountRepository makes the batch commit fail.
type failingAccountRepository struct {
	account.Repository
}

func (failingAccountRepository) CreateAccounts(context.Context, []account.Account) (int, error) {
	return 0, errors.New("commit failed")
}

func TestImportRosterAtomicCommit(t *testing.T) {
	_, repo := newTestService(t)
	svc := account.NewService(failingAccountRepository{Repository: repo})

	_, _, err := svc.ImportRoster(context.Background(), strings.NewReader(
		"firstname,lastname,email\nAda,Lovelace,ada@conf.io\n"))
	if err == nil {
		t.Fatal("ImportRoster() err = nil; want commit failure")
	}

	accts, err := repo.QueryAllAccounts(context.Background())
	if err != nil {
		t.Fatalf("QueryAllAccounts(): %v", err)
	}
	if len(accts) != 0 {
		t.Errorf("accounts persisted = %d; want 0 after failed commit", len(accts))
	}
}
