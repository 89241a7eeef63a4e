package user_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-leave/internal/balance"
	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/user"
	usererrors "go-leave/internal/user/errors"
	mock_user "go-leave/internal/user/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeLedger struct {
	balance.Ledger
	provisioned []string
	provisionFn func(ctx context.Context, userID string) error
}

func (f *fakeLedger) WithTx(tx *sql.Tx) balance.Ledger { return f }

func (f *fakeLedger) Provision(ctx context.Context, userID string) error {
	f.provisioned = append(f.provisioned, userID)
	if f.provisionFn != nil {
		return f.provisionFn(ctx, userID)
	}
	return nil
}

type fakeOutbox struct {
	created []kafka.OutboxEvent
}

func (f *fakeOutbox) WithTx(tx *sql.Tx) kafka.OutboxRepository { return f }
func (f *fakeOutbox) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.created = append(f.created, event)
	return nil
}
func (f *fakeOutbox) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}
func (f *fakeOutbox) MarkSent(ctx context.Context, id string) error { return nil }
func (f *fakeOutbox) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type userServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	repo    *mock_user.MockRepository
	ledger  *fakeLedger
	outbox  *fakeOutbox
	service user.Service
}

func setupUserServiceTest(t *testing.T) *userServiceDeps {
	t.Helper()

	ctrl := gomock.NewController(t)
	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := mock_user.NewMockRepository(ctrl)
	ledger := &fakeLedger{}
	outbox := &fakeOutbox{}

	return &userServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		repo:    repo,
		ledger:  ledger,
		outbox:  outbox,
		service: user.NewService(db, repo, ledger, outbox),
	}
}

func strPtr(s string) *string { return &s }

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	managerID := uuid.New()

	t.Run("employee with manager", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByEmail(gomock.Any(), "jane@example.com").Return(nil, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().FindByID(gomock.Any(), managerID.String()).
			Return(&user.User{ID: managerID, Role: user.RoleManager}, nil)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, u *user.User) error {
				assert.Equal(t, user.RoleEmployee, u.Role)
				assert.Equal(t, managerID, *u.ManagerID)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("s3cret-pass")))
				return nil
			})

		resp, err := deps.service.Create(ctx, user.CreateUserRequest{
			Name:      "Jane",
			Email:     " Jane@Example.com ",
			Password:  "s3cret-pass",
			Role:      "employee",
			ManagerID: strPtr(managerID.String()),
		})

		assert.NoError(t, err)
		assert.Equal(t, "jane@example.com", resp.Email)
		assert.Equal(t, managerID.String(), *resp.ManagerID)
		assert.Equal(t, []string{resp.ID}, deps.ledger.provisioned)
		assert.Len(t, deps.outbox.created, 1)
		assert.Equal(t, events.EventTypeUserCreated, deps.outbox.created[0].EventType)
		assert.Equal(t, events.UserLifecycleTopic, deps.outbox.created[0].Topic)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("employee without manager", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Create(ctx, user.CreateUserRequest{
			Name: "Jane", Email: "jane@example.com", Password: "s3cret-pass", Role: "employee",
		})

		assert.ErrorIs(t, err, usererrors.ErrManagerRequired)
		assert.Empty(t, deps.ledger.provisioned)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("manager must hold a managing role", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().FindByID(gomock.Any(), managerID.String()).
			Return(&user.User{ID: managerID, Role: user.RoleHR}, nil)

		_, err := deps.service.Create(ctx, user.CreateUserRequest{
			Name: "Jane", Email: "jane@example.com", Password: "s3cret-pass", Role: "employee",
			ManagerID: strPtr(managerID.String()),
		})

		assert.ErrorIs(t, err, usererrors.ErrInvalidManagerRole)
	})

	t.Run("unknown manager", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().FindByID(gomock.Any(), managerID.String()).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.Create(ctx, user.CreateUserRequest{
			Name: "Jane", Email: "jane@example.com", Password: "s3cret-pass", Role: "employee",
			ManagerID: strPtr(managerID.String()),
		})

		assert.ErrorIs(t, err, usererrors.ErrManagerNotFound)
	})

	t.Run("duplicate email from unique constraint", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "uq_users_email"})

		_, err := deps.service.Create(ctx, user.CreateUserRequest{
			Name: "Hana", Email: "hana@example.com", Password: "s3cret-pass", Role: "hr",
		})

		assert.ErrorIs(t, err, usererrors.ErrEmailTaken)
		assert.Empty(t, deps.outbox.created)
	})

	t.Run("existing email", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByEmail(gomock.Any(), "hana@example.com").Return(&user.User{}, nil)

		_, err := deps.service.Create(ctx, user.CreateUserRequest{
			Name: "Hana", Email: "hana@example.com", Password: "s3cret-pass", Role: "hr",
		})

		assert.ErrorIs(t, err, usererrors.ErrEmailTaken)
	})

	t.Run("invalid role never opens a transaction", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, user.CreateUserRequest{
			Name: "X", Email: "x@example.com", Password: "s3cret-pass", Role: "ceo",
		})

		assert.ErrorIs(t, err, usererrors.ErrInvalidRole)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("provision failure rolls back", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByEmail(gomock.Any(), gomock.Any()).Return(nil, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		deps.ledger.provisionFn = func(ctx context.Context, userID string) error {
			return errors.New("db down")
		}

		_, err := deps.service.Create(ctx, user.CreateUserRequest{
			Name: "Adi", Email: "adi@example.com", Password: "s3cret-pass", Role: "admin",
		})

		assert.EqualError(t, err, "db down")
		assert.Empty(t, deps.outbox.created)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestUserService_AssignManager(t *testing.T) {
	ctx := context.Background()
	a := uuid.New()
	b := uuid.New()

	t.Run("rejects a reporting cycle", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		// b is the target; its new manager a already reports to b.
		deps.repo.EXPECT().FindByID(gomock.Any(), b.String()).
			Return(&user.User{ID: b, Role: user.RoleManager}, nil)
		deps.repo.EXPECT().FindByID(gomock.Any(), a.String()).
			Return(&user.User{ID: a, Role: user.RoleManager, ManagerID: &b}, nil)

		_, err := deps.service.AssignManager(ctx, b.String(), user.AssignManagerRequest{ManagerID: a.String()})

		assert.ErrorIs(t, err, usererrors.ErrManagerCycle)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("self is a cycle", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectRollback()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), a.String()).
			Return(&user.User{ID: a, Role: user.RoleManager}, nil)

		_, err := deps.service.AssignManager(ctx, a.String(), user.AssignManagerRequest{ManagerID: a.String()})

		assert.ErrorIs(t, err, usererrors.ErrManagerCycle)
	})

	t.Run("success", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		top := uuid.New()
		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()
		deps.repo.EXPECT().WithTx(gomock.Any()).Return(deps.repo)
		deps.repo.EXPECT().FindByID(gomock.Any(), b.String()).
			Return(&user.User{ID: b, Role: user.RoleEmployee, ManagerID: &top}, nil)
		deps.repo.EXPECT().FindByID(gomock.Any(), a.String()).
			Return(&user.User{ID: a, Role: user.RoleAdmin, ManagerID: &top}, nil)
		deps.repo.EXPECT().FindByID(gomock.Any(), top.String()).
			Return(&user.User{ID: top, Role: user.RoleAdmin}, nil)
		deps.repo.EXPECT().Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, u *user.User) error {
				assert.Equal(t, a, *u.ManagerID)
				return nil
			})

		resp, err := deps.service.AssignManager(ctx, b.String(), user.AssignManagerRequest{ManagerID: a.String()})

		assert.NoError(t, err)
		assert.Equal(t, a.String(), *resp.ManagerID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestUserService_Reads(t *testing.T) {
	ctx := context.Background()

	t.Run("get by id not found", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		id := uuid.New().String()
		deps.repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByID(ctx, id)
		assert.ErrorIs(t, err, usererrors.ErrUserNotFound)
	})

	t.Run("get by id invalid", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.GetByID(ctx, "abc")
		assert.ErrorIs(t, err, usererrors.ErrInvalidUserID)
	})

	t.Run("team", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		mgr := uuid.New()
		deps.repo.EXPECT().FindByManagerID(gomock.Any(), mgr.String()).
			Return([]user.User{{ID: uuid.New(), Name: "Eko", Role: user.RoleEmployee, ManagerID: &mgr}}, nil)

		team, err := deps.service.GetTeam(ctx, mgr.String())

		assert.NoError(t, err)
		assert.Len(t, team, 1)
		assert.Equal(t, "Eko", team[0].Name)
	})

	t.Run("get all error", func(t *testing.T) {
		deps := setupUserServiceTest(t)
		defer deps.db.Close()

		deps.repo.EXPECT().FindAll(gomock.Any()).Return(nil, errors.New("db error"))

		res, err := deps.service.GetAll(ctx)
		assert.Error(t, err)
		assert.Nil(t, res)
	})
}

func TestParseRole(t *testing.T) {
	r, err := user.ParseRole(" Manager ")
	assert.NoError(t, err)
	assert.Equal(t, user.RoleManager, r)
	assert.True(t, r.CanManage())
	assert.False(t, user.RoleHR.CanManage())

	_, err = user.ParseRole("owner")
	assert.ErrorIs(t, err, usererrors.ErrInvalidRole)
}
