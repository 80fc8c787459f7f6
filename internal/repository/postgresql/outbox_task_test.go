package postgresql_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mock_db "github.com/bagstore/storefront/internal/db/mocks"
	"github.com/bagstore/storefront/internal/repository"
	"github.com/bagstore/storefront/internal/repository/postgresql"
)

func TestOutboxTaskRepo_CreateTx(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockTx := mock_db.NewMockTx(ctrl)
	repo := postgresql.NewOutboxTaskRepo(mock_db.NewMockDB(ctrl))

	task := &repository.OutboxTask{Topic: "storefront_events", Payload: []byte(`{"type":"order.created"}`)}
	mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), gomock.Any(), repository.TaskStatusCreated, task.Payload, task.Topic, gomock.Any(), gomock.Any()).
		Return(pgconn.CommandTag("INSERT 0 1"), nil)

	require.NoError(t, repo.CreateTx(ctx, mockTx, task))
	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, repository.TaskStatusCreated, task.Status)
}

func TestOutboxTaskRepo_GetProcessableTasksTx(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mockTx := mock_db.NewMockTx(ctrl)
	repo := postgresql.NewOutboxTaskRepo(mock_db.NewMockDB(ctrl))

	mockTx.EXPECT().Select(gomock.Any(), gomock.Any(), gomock.Any(),
		repository.TaskStatusCreated, repository.TaskStatusFailed, 5, 10).
		DoAndReturn(func(_ context.Context, dest *[]*repository.OutboxTask, query string, _ ...any) error {
			assert.Contains(t, query, "FOR UPDATE SKIP LOCKED")
			*dest = []*repository.OutboxTask{{ID: uuid.New()}}
			return nil
		})

	tasks, err := repo.GetProcessableTasksTx(ctx, mockTx, 10, 5)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestOutboxTaskRepo_UpdateTaskStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC()

	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_db.NewMockDB(ctrl)
		repo := postgresql.NewOutboxTaskRepo(mockDB)

		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), id, repository.TaskStatusDone, 1, gomock.Nil(), &now).
			Return(pgconn.CommandTag("UPDATE 1"), nil)

		assert.NoError(t, repo.UpdateTaskStatus(ctx, id, repository.TaskStatusDone, 1, nil, &now))
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockDB := mock_db.NewMockDB(ctrl)
		repo := postgresql.NewOutboxTaskRepo(mockDB)

		mockDB.EXPECT().Exec(gomock.Any(), gomock.Any(), anyArgs(5)...).Return(pgconn.CommandTag("UPDATE 0"), nil)

		err := repo.UpdateTaskStatus(ctx, id, repository.TaskStatusDone, 1, nil, &now)
		assert.ErrorIs(t, err, repository.ErrObjectNotFound)
	})

	t.Run("database error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		mockTx := mock_db.NewMockTx(ctrl)
		repo := postgresql.NewOutboxTaskRepo(mock_db.NewMockDB(ctrl))
		expectedErr := errors.New("connection reset")

		mockTx.EXPECT().Exec(gomock.Any(), gomock.Any(), anyArgs(5)...).Return(nil, expectedErr)

		err := repo.UpdateTaskStatusTx(ctx, mockTx, id, repository.TaskStatusProcessing, 0, nil, nil)
		assert.ErrorIs(t, err, expectedErr)
	})
}
