package user_test

import (
	"context"
	"testing"

	"go-leave/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestUserRepository_WithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	repo := user.NewRepository(gdb)
	ctx := context.Background()

	first, second := uuid.New(), uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(first.String(), "Ayu"))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(second.String(), "Budi"))

	tx, err := db.Begin()
	require.NoError(t, err)

	inTx, err := repo.WithTx(tx).FindAll(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	after, err := repo.FindAll(ctx)
	require.NoError(t, err)

	require.Len(t, inTx, 1)
	require.Len(t, after, 1)
	assert.Equal(t, first, inTx[0].ID)
	assert.Equal(t, second, after[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
