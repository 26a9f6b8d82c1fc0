package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/bmukendi/kongamano/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) *accountRepository {
	return &accountRepository{db: db}
}

// get returns a copy with the presentation title preloaded.
// The caller must hold the lock.
func (repo *accountRepository) get(id string) (account.Account, bool) {
	acct, ok := repo.db.accounts[id]
	if !ok {
		return account.Account{}, false
	}

	cp := *acct
	cp.PresentationTitle = nil
	if cp.PresentationID != nil {
		if pres, ok := repo.db.presentations[*cp.PresentationID]; ok {
			title := pres.Title
			cp.PresentationTitle = &title
		}
	}
	return cp, true
}

// insert checks email uniqueness and stores a copy.
// The caller must hold the lock.
func (repo *accountRepository) insert(acct account.Account) (account.Account, error) {
	for _, other := range repo.db.accounts {
		if other.Email == acct.Email {
			return account.Account{}, account.ErrEmailExists
		}
	}

	acct.ID = uuid.New().String()
	cp := acct
	repo.db.accounts[acct.ID] = &cp
	repo.db.accountOrder = append(repo.db.accountOrder, acct.ID)
	return acct, nil
}

func (repo *accountRepository) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	acct, err := repo.insert(acct)
	if err != nil {
		return account.Account{}, err
	}
	cp, _ := repo.get(acct.ID)
	return cp, nil
}

// CreateAccounts mimics the SQL store's single transaction: uniqueness is
// checked for the whole batch up front so a conflict persists nothing.
func (repo *accountRepository) CreateAccounts(_ context.Context, accts []account.Account) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	seen := make(map[string]bool, len(accts))
	for _, acct := range accts {
		if seen[acct.Email] {
			return 0, account.ErrEmailExists
		}
		seen[acct.Email] = true
		for _, other := range repo.db.accounts {
			if other.Email == acct.Email {
				return 0, account.ErrEmailExists
			}
		}
	}
	for _, acct := range accts {
		if _, err := repo.insert(acct); err != nil {
			return 0, err
		}
	}
	return len(accts), nil
}

func (repo *accountRepository) QueryAllAccounts(_ context.Context) ([]account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	accts := make([]account.Account, 0, len(repo.db.accountOrder))
	for _, id := range repo.db.accountOrder {
		if acct, ok := repo.get(id); ok {
			accts = append(accts, acct)
		}
	}
	return accts, nil
}

func (repo *accountRepository) GetAccountByID(_ context.Context, id string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if acct, ok := repo.get(id); ok {
		return acct, nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, id := range repo.db.accountOrder {
		if acct, ok := repo.get(id); ok && acct.Email == email {
			return acct, nil
		}
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *accountRepository) UpdateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.accounts[acct.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	for _, other := range repo.db.accounts {
		if other.ID != acct.ID && other.Email == acct.Email {
			return account.Account{}, account.ErrEmailExists
		}
	}

	acct.CreatedAt = orig.CreatedAt
	cp := acct
	cp.PresentationTitle = nil
	repo.db.accounts[acct.ID] = &cp

	out, _ := repo.get(acct.ID)
	return out, nil
}

func (repo *accountRepository) DeleteAccountsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		if _, ok := repo.db.accounts[id]; !ok {
			continue
		}
		delete(repo.db.accounts, id)
		repo.db.accountOrder = removeID(repo.db.accountOrder, id)

		// grades cascade, as with the SQL store's FKs
		for gid, g := range repo.db.grades {
			if g.AccountID == id {
				delete(repo.db.grades, gid)
				repo.db.gradeOrder = removeID(repo.db.gradeOrder, gid)
			}
		}
		for gid, g := range repo.db.abstractGrades {
			if g.AccountID == id {
				delete(repo.db.abstractGrades, gid)
				repo.db.abstractGradeOrder = removeID(repo.db.abstractGradeOrder, gid)
			}
		}
	}
	return nil
}
