package user_repo

import (
	"context"
	"errors"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	table      = "users"
	colID      = "id"
	colName    = "name"
	colLogin   = "login"
	colBalance = "balance"
)

type repo struct {
	dbc *pgxpool.Pool
}

func NewUserRepository(dbc *pgxpool.Pool) repository.UserRepository {
	return &repo{
		dbc: dbc,
	}
}

// CreateUser - creates a user and returns its ID
func (r *repo) CreateUser(ctx context.Context, user *model.User) (int, error) {
	// Build the query
	query := sq.Insert(table).
		Columns(colName, colLogin, colBalance).
		Values(user.Name, user.Login, user.Balance).
		Suffix("RETURNING " + colID).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, model.Persistence(err)
	}

	var id int
	err = trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, r.dbc).QueryRow(ctx, sqlStr, args...).Scan(&id)
	if err != nil {
		return 0, model.Persistence(err)
	}

	return id, nil
}

// GetUser - returns the user (ID, Name, Login, Balance) by ID
func (r *repo) GetUser(ctx context.Context, id int) (*model.User, error) {
	query := sq.Select(colID, colName, colLogin, colBalance).
		From(table).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	return r.get(ctx, query)
}

// GetUserForUpdate - returns the user and holds a row lock until the transaction ends.
// Concurrent spins of the same user serialize here.
func (r *repo) GetUserForUpdate(ctx context.Context, id int) (*model.User, error) {
	query := sq.Select(colID, colName, colLogin, colBalance).
		From(table).
		Where(sq.Eq{colID: id}).
		Suffix("FOR UPDATE").
		PlaceholderFormat(sq.Dollar)

	return r.get(ctx, query)
}

// UpdateBalance - sets the new balance of the user
func (r *repo) UpdateBalance(ctx context.Context, id int, balance decimal.Decimal) error {
	query := sq.Update(table).
		Set(colBalance, balance).
		Where(sq.Eq{colID: id}).
		PlaceholderFormat(sq.Dollar)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return model.Persistence(err)
	}

	tag, err := trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, r.dbc).Exec(ctx, sqlStr, args...)
	if err != nil {
		return model.Persistence(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}

	return nil
}

func (r *repo) get(ctx context.Context, query sq.SelectBuilder) (*model.User, error) {
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, model.Persistence(err)
	}

	var user model.User
	err = trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, r.dbc).
		QueryRow(ctx, sqlStr, args...).
		Scan(&user.ID, &user.Name, &user.Login, &user.Balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrUserNotFound
		}
		return nil, model.Persistence(err)
	}

	return &user, nil
}
