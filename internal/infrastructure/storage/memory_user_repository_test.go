package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"thermo-monitor/internal/domain/entity"
)

func TestMemoryUserRepository_GetCreates(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
	require.Equal(t, 1, repo.Len())
}

func TestMemoryUserRepository_ChangesNeedUpdate(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	user.SetState(entity.StateAwaitingTemps)

	again, err := repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, again.State)

	_, err = repo.Update(ctx, 1, 10, func(u *entity.User) error {
		u.SetState(entity.StateAwaitingTemps)
		return nil
	})
	require.NoError(t, err)

	again, err = repo.Get(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.StateAwaitingTemps, again.State)
}

func TestMemoryUserRepository_UpdateCreatesUnknownUser(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	user, err := repo.Update(ctx, 5, 50, func(u *entity.User) error {
		u.Complete(9)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(50), user.ChatID)

	got, err := repo.Get(ctx, 5, 50)
	require.NoError(t, err)
	require.Equal(t, int64(9), got.LastMeasurementID)
	require.Equal(t, 1, repo.Len())
}

func TestMemoryUserRepository_FailedUpdateKeepsUser(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()

	errStop := errors.New("stop")
	_, err := repo.Update(ctx, 6, 60, func(u *entity.User) error {
		u.SetState(entity.StateProcessing)
		return errStop
	})
	require.ErrorIs(t, err, errStop)
	require.Equal(t, 0, repo.Len())

	user, err := repo.Get(ctx, 6, 60)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}
