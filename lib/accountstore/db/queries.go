package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Account struct {
	Login    string
	Password string
}

const createAccount = `
INSERT INTO accounts (login, password)
VALUES (?, ?)
ON CONFLICT (login) DO UPDATE SET password = excluded.password
`

type CreateAccountParams struct {
	Login    string
	Password string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) error {
	_, err := q.db.ExecContext(ctx, createAccount, arg.Login, arg.Password)
	return err
}

const listAccounts = `
SELECT login, password FROM accounts ORDER BY login
`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.Login, &i.Password); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteAccount = `
DELETE FROM accounts WHERE login = ?
`

func (q *Queries) DeleteAccount(ctx context.Context, login string) error {
	_, err := q.db.ExecContext(ctx, deleteAccount, login)
	return err
}
