package accountstore

import (
	"context"
	"database/sql"
	"errors"

	random "github.com/mazen160/go-random"

	"audiogate-backend/lib/accountstore/db"

	_ "modernc.org/sqlite"
)

// ErrNoAccounts is returned when the pool is empty.
var ErrNoAccounts = errors.New("no accounts available")

// Account is a login/password pair for the target site. logins are
// phone-shaped strings since the site authenticates by phone number.
type Account struct {
	Login    string
	Password string
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// Seed upserts the configured account pool into the store.
func (s Store) Seed(ctx context.Context, accounts []Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	for _, a := range accounts {
		err := txqry.CreateAccount(ctx, db.CreateAccountParams{
			Login:    a.Login,
			Password: a.Password,
		})
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s Store) List(ctx context.Context) ([]Account, error) {
	rows, err := s.qry.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, len(rows))
	for i, row := range rows {
		accounts[i] = Account{Login: row.Login, Password: row.Password}
	}
	return accounts, nil
}

func (s Store) Delete(ctx context.Context, login string) error {
	return s.qry.DeleteAccount(ctx, login)
}

// Random picks one account from the pool. each engine instance calls
// this once and keeps the account for its whole lifetime.
func (s Store) Random(ctx context.Context) (Account, error) {
	accounts, err := s.List(ctx)
	if err != nil {
		return Account{}, err
	}
	if len(accounts) == 0 {
		return Account{}, ErrNoAccounts
	}
	idx, err := random.IntRange(0, len(accounts))
	if err != nil {
		return Account{}, err
	}
	return accounts[idx], nil
}
