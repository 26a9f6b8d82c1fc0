package account

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/bmukendi/kongamano/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CreateAccount(ctx context.Context, acct Account) (Account, error)
		// CreateAccounts inserts the whole batch in one transaction; either
		// every account is persisted or none is.
		CreateAccounts(ctx context.Context, accts []Account) (int, error)
		QueryAllAccounts(ctx context.Context) ([]Account, error)
		GetAccountByID(ctx context.Context, id string) (Account, error)
		// GetAccountByEmail matches the email exactly, case-sensitively.
		GetAccountByEmail(ctx context.Context, email string) (Account, error)
		UpdateAccount(ctx context.Context, acct Account) (Account, error)
		DeleteAccountsByID(ctx context.Context, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve maps a session identity to a stored Account. A nil identity or one
// without an email resolves to ErrNotFound without touching the store; it is
// not an error condition for the caller so much as "no account".
func (svc *Service) Resolve(ctx context.Context, ident *Identity) (Account, error) {
	if ident == nil || ident.Email == "" {
		return Account{}, ErrNotFound
	}
	return svc.repo.GetAccountByEmail(ctx, ident.Email)
}

// trapEmailExists translates the repository's uniqueness violation into a
// client-facing validation error; anything else passes through wrapped.
func trapEmailExists(err error, msg string) error {
	if errors.Cause(err) == ErrEmailExists {
		return core.NewValidationError(ErrEmailExists)
	}
	return errors.Wrap(err, msg)
}

func (svc *Service) Create(ctx context.Context, na NewAccount) (Account, error) {
	now := time.Now().UTC()
	auth := core.CleanString(na.Auth)
	if auth == "" {
		auth = string(DefaultRole)
	}
	acct := Account{
		FirstName:      na.FirstName,
		LastName:       na.LastName,
		Email:          na.Email,
		Activity:       na.Activity,
		Auth:           auth,
		PresentationID: na.PresentationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	acct, err := svc.repo.CreateAccount(ctx, acct)
	if err != nil {
		return Account{}, trapEmailExists(err, "creating account")
	}
	return acct, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Account, error) {
	return svc.repo.QueryAllAccounts(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Account, error) {
	return svc.repo.GetAccountByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Account, error) {
	return svc.repo.GetAccountByEmail(ctx, email)
}

// Update applies a partial update: only provided fields change.
func (svc *Service) Update(ctx context.Context, id string, ua UpdateAccount) (Account, error) {
	acct, err := svc.repo.GetAccountByID(ctx, id)
	if err != nil {
		return Account{}, err
	}

	if ua.FirstName != nil {
		acct.FirstName = core.CleanString(*ua.FirstName)
	}
	if ua.LastName != nil {
		acct.LastName = core.CleanString(*ua.LastName)
	}
	if ua.Email != nil {
		acct.Email = core.CleanString(*ua.Email)
	}
	if ua.Activity != nil {
		acct.Activity = *ua.Activity
	}
	if ua.Auth != nil {
		acct.Auth = *ua.Auth
	}
	if ua.PresentationIDSet {
		acct.PresentationID = ua.PresentationID
	}
	acct.UpdatedAt = time.Now().UTC()

	acct, err = svc.repo.UpdateAccount(ctx, acct)
	if err != nil {
		return Account{}, trapEmailExists(err, "updating account")
	}
	return acct, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAccountsByID(ctx, ids...)
}
