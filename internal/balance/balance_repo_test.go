package balance_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"go-leave/internal/balance"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupRepoTest(t *testing.T) (balance.Repository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	assert.NoError(t, err)

	return balance.NewRepository(gdb), mock, func() { db.Close() }
}

func TestBalanceRepository_FindForUpdate(t *testing.T) {
	repo, mock, done := setupRepoTest(t)
	defer done()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "leave_balances" WHERE (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "category", "days", "updated_at"}).
			AddRow(userID.String(), "casual", "10.00", time.Now()))

	got, err := repo.FindForUpdate(context.Background(), userID.String(), "casual")

	assert.NoError(t, err)
	assert.Equal(t, "casual", got.Category)
	assert.True(t, got.Days.Equal(decimal.NewFromInt(10)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceRepository_Update(t *testing.T) {
	repo, mock, done := setupRepoTest(t)
	defer done()

	userID := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "leave_balances" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), &balance.LeaveBalance{
		UserID:    userID,
		Category:  "sick",
		Days:      decimal.NewFromInt(3),
		UpdatedAt: time.Now(),
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBalanceRepository_CreateMany(t *testing.T) {
	t.Run("ignores existing counters", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		userID := uuid.New()
		mock.ExpectExec(`INSERT INTO "leave_balances" (.+) ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.CreateMany(context.Background(), []balance.LeaveBalance{
			{UserID: userID, Category: "casual", Days: decimal.NewFromInt(12)},
			{UserID: userID, Category: "sick", Days: decimal.NewFromInt(10)},
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		assert.NoError(t, repo.CreateMany(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBalanceRepository_WithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	assert.NoError(t, err)
	repo := balance.NewRepository(gdb)
	ctx := context.Background()

	userID := uuid.NewString()
	columns := []string{"user_id", "category", "days", "updated_at"}
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "leave_balances"`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(userID, "casual", "10.00", time.Now()))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "leave_balances"`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(userID, "casual", "8.00", time.Now()))

	tx, err := db.Begin()
	assert.NoError(t, err)

	inTx, err := repo.WithTx(tx).FindByUser(ctx, userID)
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())

	after, err := repo.FindByUser(ctx, userID)
	assert.NoError(t, err)

	if assert.Len(t, inTx, 1) && assert.Len(t, after, 1) {
		assert.True(t, decimal.NewFromInt(10).Equal(inTx[0].Days))
		assert.True(t, decimal.NewFromInt(8).Equal(after[0].Days))
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
