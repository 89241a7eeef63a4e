package leave_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"go-leave/internal/leave"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupRepoTest(t *testing.T) (leave.Repository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return leave.NewRepository(gdb), mock, func() { db.Close() }
}

var leaveColumns = []string{
	"id", "reference_no", "user_id", "leave_type", "start_date", "end_date", "total_days",
	"reason", "status", "required_approvals", "rejection_reason", "decided_at", "version",
	"created_at", "updated_at", "deleted_at",
}

func TestLeaveRepository_FindByIDForUpdate(t *testing.T) {
	repo, mock, done := setupRepoTest(t)
	defer done()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "leaves" WHERE (.+) FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows(leaveColumns).AddRow(
			id.String(), "LV-000001", uuid.NewString(), "casual", day("2024-01-01"), day("2024-01-02"), 2,
			"family", leave.StatusPending, "{hr,manager}", nil, nil, 1,
			now, now, nil,
		))

	got, err := repo.FindByIDForUpdate(context.Background(), id.String())

	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, pq.StringArray{"hr", "manager"}, got.RequiredApprovals)
	assert.Equal(t, 1, got.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepository_Update(t *testing.T) {
	t.Run("bumps version", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "leaves" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		l := &leave.Leave{ID: uuid.New(), Status: leave.StatusPending, RequiredApprovals: pq.StringArray{"manager"}, Version: 1}
		err := repo.Update(context.Background(), l)

		assert.NoError(t, err)
		assert.Equal(t, 2, l.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		repo, mock, done := setupRepoTest(t)
		defer done()

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "leaves" SET`)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		l := &leave.Leave{ID: uuid.New(), Status: leave.StatusApproved, RequiredApprovals: pq.StringArray{}, Version: 3}
		err := repo.Update(context.Background(), l)

		assert.ErrorIs(t, err, leave.ErrStaleVersion)
		assert.Equal(t, 3, l.Version)
	})
}

func TestLeaveRepository_HasOverlappingPeriod(t *testing.T) {
	repo, mock, done := setupRepoTest(t)
	defer done()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "leaves" WHERE (.+)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	got, err := repo.HasOverlappingPeriod(context.Background(), uuid.NewString(), day("2024-01-01"), day("2024-01-03"))

	assert.NoError(t, err)
	assert.True(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepository_Delete(t *testing.T) {
	repo, mock, done := setupRepoTest(t)
	defer done()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "leaves" SET "deleted_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), uuid.NewString())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveRepository_WithTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	repo := leave.NewRepository(gdb)
	ctx := context.Background()

	id := uuid.New()
	now := time.Now()
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows(leaveColumns).AddRow(
			id.String(), "LV-000001", uuid.NewString(), "casual", day("2024-01-01"), day("2024-01-02"), 2,
			"family", leave.StatusPending, "{hr,manager}", nil, nil, 1,
			now, now, nil,
		)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "leaves" WHERE (.+) FOR UPDATE`).WillReturnRows(row())
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT \* FROM "leaves"`).WillReturnRows(row())

	tx, err := db.Begin()
	require.NoError(t, err)

	locked, err := repo.WithTx(tx).FindByIDForUpdate(ctx, id.String())
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, id, locked.ID)
	require.Len(t, all, 1)
	assert.Equal(t, id, all[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
