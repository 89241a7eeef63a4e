package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/events"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"
	usererrors "go-leave/internal/user/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// maxManagerDepth bounds the reporting chain walk. Deeper chains are treated
// as cycles.
const maxManagerDepth = 64

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	GetAll(ctx context.Context) ([]UserResponse, error)
	GetTeam(ctx context.Context, managerID string) ([]UserResponse, error)
	AssignManager(ctx context.Context, id string, req AssignManagerRequest) (UserResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	ledger balance.Ledger
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, ledger balance.Ledger, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		ledger: ledger,
		outbox: outbox,
		logger: l,
	}
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (UserResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	rid := contextutil.GetRequestID(ctx)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	role, err := ParseRole(req.Role)
	if err != nil {
		return UserResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create user begin tx failed", zap.Error(err))
		return UserResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if _, err := qtx.FindByEmail(ctx, email); err == nil {
		return UserResponse{}, usererrors.ErrEmailTaken
	} else if mapped := mapRepositoryError(err); !errors.Is(mapped, usererrors.ErrUserNotFound) {
		log.Error("create user email lookup failed", zap.Error(err))
		return UserResponse{}, mapped
	}

	id := uuid.New()
	managerID, err := s.validateManager(ctx, qtx, id, role, req.ManagerID)
	if err != nil {
		log.Warn("create user manager rejected", zap.String("email", email), zap.Error(err))
		return UserResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return UserResponse{}, err
	}

	u := &User{
		ID:        id,
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Password:  string(hashed),
		Role:      role,
		ManagerID: managerID,
	}
	if err := qtx.Create(ctx, u); err != nil {
		log.Error("create user persist failed", zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	if err := s.ledger.WithTx(tx).Provision(ctx, id.String()); err != nil {
		return UserResponse{}, err
	}

	if s.outbox != nil {
		event, err := kafka.NewOutboxEvent(rid, "user", id.String(),
			events.EventTypeUserCreated, events.UserLifecycleTopic,
			events.UserCreatedEvent{
				EventType:  events.EventTypeUserCreated,
				RequestID:  rid,
				UserID:     id.String(),
				Role:       role.String(),
				OccurredAt: time.Now().UTC(),
			})
		if err != nil {
			return UserResponse{}, err
		}
		if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
			log.Error("create user outbox persist failed", zap.String("user_id", id.String()), zap.Error(err))
			return UserResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("create user commit failed", zap.Error(err))
		return UserResponse{}, err
	}

	log.Info("create user success",
		zap.String("user_id", id.String()),
		zap.String("role", role.String()),
	)
	return mapToResponse(*u), nil
}

// validateManager enforces the reporting rules: employees need a manager,
// managers must hold a managing role, and the chain above must not lead back
// to self.
func (s *service) validateManager(ctx context.Context, repo Repository, self uuid.UUID, role Role, managerID *string) (*uuid.UUID, error) {
	if managerID == nil || strings.TrimSpace(*managerID) == "" {
		if role == RoleEmployee {
			return nil, usererrors.ErrManagerRequired
		}
		return nil, nil
	}

	mid, err := uuid.Parse(*managerID)
	if err != nil {
		return nil, usererrors.ErrInvalidUserID
	}
	if mid == self {
		return nil, usererrors.ErrManagerCycle
	}

	mgr, err := repo.FindByID(ctx, mid.String())
	if err != nil {
		if errors.Is(mapRepositoryError(err), usererrors.ErrUserNotFound) {
			return nil, usererrors.ErrManagerNotFound
		}
		return nil, err
	}
	if !mgr.Role.CanManage() {
		return nil, usererrors.ErrInvalidManagerRole
	}

	cur := mgr
	for depth := 0; cur.ManagerID != nil; depth++ {
		if *cur.ManagerID == self || depth >= maxManagerDepth {
			return nil, usererrors.ErrManagerCycle
		}
		next, err := repo.FindByID(ctx, cur.ManagerID.String())
		if err != nil {
			if errors.Is(mapRepositoryError(err), usererrors.ErrUserNotFound) {
				break
			}
			return nil, err
		}
		cur = next
	}

	return &mid, nil
}

func (s *service) AssignManager(ctx context.Context, id string, req AssignManagerRequest) (UserResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UserResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	u, err := qtx.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}

	managerID, err := s.validateManager(ctx, qtx, u.ID, u.Role, &req.ManagerID)
	if err != nil {
		log.Warn("assign manager rejected", zap.String("user_id", id), zap.Error(err))
		return UserResponse{}, err
	}

	u.ManagerID = managerID
	if err := qtx.Save(ctx, u); err != nil {
		log.Error("assign manager persist failed", zap.String("user_id", id), zap.Error(err))
		return UserResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		return UserResponse{}, err
	}

	log.Info("assign manager success",
		zap.String("user_id", id),
		zap.String("manager_id", req.ManagerID),
	)
	return mapToResponse(*u), nil
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*u), nil
}

func (s *service) GetAll(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(users), nil
}

func (s *service) GetTeam(ctx context.Context, managerID string) ([]UserResponse, error) {
	if _, err := uuid.Parse(managerID); err != nil {
		return nil, usererrors.ErrInvalidUserID
	}

	users, err := s.repo.FindByManagerID(ctx, managerID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(users), nil
}

func mapToResponse(u User) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
	if u.ManagerID != nil {
		v := u.ManagerID.String()
		resp.ManagerID = &v
	}
	return resp
}

func mapToListResponse(users []User) []UserResponse {
	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = mapToResponse(u)
	}
	return resp
}
