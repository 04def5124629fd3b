package user_repo

import (
	"context"
	"errors"
	"roulette_backend/internal/model"
	"roulette_backend/internal/repository/pgtest"
	"testing"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Balance(t *testing.T) {
	pool := pgtest.Connect(t)
	repo := NewUserRepository(pool)
	ctx := context.Background()

	login := pgtest.Login("balance")
	id, err := repo.CreateUser(ctx, &model.User{Name: "Ann", Login: login, Balance: decimal.NewFromInt(1000)})
	require.NoError(t, err)
	pgtest.DeleteUser(t, pool, id)

	_, err = repo.CreateUser(ctx, &model.User{Name: "Ann", Login: login})
	assert.ErrorIs(t, err, model.ErrPersistence)

	trm, err := manager.New(trmpgx.NewDefaultFactory(pool))
	require.NoError(t, err)

	// A failed transaction leaves the balance alone
	boom := errors.New("boom")
	err = trm.Do(ctx, func(ctx context.Context) error {
		u, err := repo.GetUserForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := repo.UpdateBalance(ctx, id, u.Balance.Sub(decimal.NewFromInt(1))); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.GetUser(ctx, id)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(got.Balance), "balance %s", got.Balance)

	err = trm.Do(ctx, func(ctx context.Context) error {
		u, err := repo.GetUserForUpdate(ctx, id)
		if err != nil {
			return err
		}
		return repo.UpdateBalance(ctx, id, u.Balance.Sub(decimal.RequireFromString("0.25")))
	})
	require.NoError(t, err)

	got, err = repo.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, login, got.Login)
	assert.True(t, decimal.RequireFromString("999.75").Equal(got.Balance), "balance %s", got.Balance)

	assert.ErrorIs(t, repo.UpdateBalance(ctx, -1, decimal.Zero), model.ErrUserNotFound)
	_, err = repo.GetUser(ctx, -1)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
