package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core/account"
)

// pq error code for unique constraint violations
const uniqueViolation = "23505"

type accountRow struct {
	ID                string    `db:"id"`
	FirstName         string    `db:"first_name"`
	LastName          string    `db:"last_name"`
	Email             string    `db:"email"`
	Activity          string    `db:"activity"`
	Auth              string    `db:"auth"`
	PresentationID    *string   `db:"presentation_id"`
	PresentationTitle *string   `db:"presentation_title"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (row accountRow) toDomain() account.Account {
	return account.Account{
		ID:                row.ID,
		FirstName:         row.FirstName,
		LastName:          row.LastName,
		Email:             row.Email,
		Activity:          row.Activity,
		Auth:              row.Auth,
		PresentationID:    row.PresentationID,
		PresentationTitle: row.PresentationTitle,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

type accountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) *accountRepository {
	return &accountRepository{db: db}
}

// the presentation title rides along on every read; the API always shows it
const selectAccount = `
SELECT a.id, a.first_name, a.last_name, a.email, a.activity, a.auth,
       a.presentation_id, p.title AS presentation_title, a.created_at, a.updated_at
FROM account a
LEFT JOIN presentation p ON p.id = a.presentation_id`

// trapNoRowsErr maps psql "no rows" err to account.ErrNotFound
func trapAccountNoRows(err error, msg string) error {
	if err == sql.ErrNoRows {
		return account.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// trapEmailExists maps a unique violation on the email column to
// account.ErrEmailExists
func trapEmailExists(err error, msg string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return account.ErrEmailExists
	}
	return errors.Wrap(err, msg)
}

func (repo accountRepository) insert(ctx context.Context, exec sqlx.ExtContext, acct account.Account) (account.Account, error) {
	acct.ID = uuid.New().String()
	_, err := sqlx.NamedExecContext(ctx, exec, `
INSERT INTO account (id, first_name, last_name, email, activity, auth, presentation_id, created_at, updated_at)
VALUES (:id, :first_name, :last_name, :email, :activity, :auth, :presentation_id, :created_at, :updated_at)`,
		accountRow{
			ID:             acct.ID,
			FirstName:      acct.FirstName,
			LastName:       acct.LastName,
			Email:          acct.Email,
			Activity:       acct.Activity,
			Auth:           acct.Auth,
			PresentationID: acct.PresentationID,
			CreatedAt:      acct.CreatedAt,
			UpdatedAt:      acct.UpdatedAt,
		})
	if err != nil {
		return account.Account{}, trapEmailExists(err, "inserting account")
	}
	return acct, nil
}

func (repo accountRepository) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	acct, err := repo.insert(ctx, repo.db, acct)
	if err != nil {
		return account.Account{}, err
	}
	return repo.GetAccountByID(ctx, acct.ID)
}

// CreateAccounts inserts the whole batch in one transaction.
func (repo accountRepository) CreateAccounts(ctx context.Context, accts []account.Account) (int, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}

	for _, acct := range accts {
		if _, err = repo.insert(ctx, tx, acct); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing accounts")
	}
	return len(accts), nil
}

func (repo accountRepository) QueryAllAccounts(ctx context.Context) ([]account.Account, error) {
	var rows []accountRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, selectAccount+" ORDER BY a.created_at, a.id"); err != nil {
		return nil, errors.Wrap(err, "querying accounts")
	}

	accts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		accts = append(accts, row.toDomain())
	}
	return accts, nil
}

func (repo accountRepository) GetAccountByID(ctx context.Context, id string) (account.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return account.Account{}, account.ErrNotFound
	}

	var row accountRow
	if err := sqlx.GetContext(ctx, repo.db, &row, selectAccount+" WHERE a.id = $1", id); err != nil {
		return account.Account{}, trapAccountNoRows(err, "finding account by ID")
	}
	return row.toDomain(), nil
}

func (repo accountRepository) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	var row accountRow
	if err := sqlx.GetContext(ctx, repo.db, &row, selectAccount+" WHERE a.email = $1", email); err != nil {
		return account.Account{}, trapAccountNoRows(err, "finding account by email")
	}
	return row.toDomain(), nil
}

func (repo accountRepository) UpdateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	res, err := sqlx.NamedExecContext(ctx, repo.db, `
UPDATE account
SET first_name = :first_name, last_name = :last_name, email = :email,
    activity = :activity, auth = :auth, presentation_id = :presentation_id,
    updated_at = :updated_at
WHERE id = :id`,
		accountRow{
			ID:             acct.ID,
			FirstName:      acct.FirstName,
			LastName:       acct.LastName,
			Email:          acct.Email,
			Activity:       acct.Activity,
			Auth:           acct.Auth,
			PresentationID: acct.PresentationID,
			UpdatedAt:      acct.UpdatedAt,
		})
	if err != nil {
		return account.Account{}, trapEmailExists(err, "updating account")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return repo.GetAccountByID(ctx, acct.ID)
}

func (repo accountRepository) DeleteAccountsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, "DELETE FROM account WHERE id = ANY($1)", pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting accounts")
	}
	return nil
}
