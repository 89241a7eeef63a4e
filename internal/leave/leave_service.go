package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"
	"go-leave/internal/shared/counter"
	"go-leave/internal/user"
	usererrors "go-leave/internal/user/errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveResponse, error)
	Approve(ctx context.Context, id, actingRole string) (ApprovalResult, error)
	Reject(ctx context.Context, id, actingRole, reason string) (LeaveResponse, error)
	Cancel(ctx context.Context, actorID, actorRole, id string) error
	GetAll(ctx context.Context, actorID string, canReadAll bool) ([]LeaveResponse, error)
	GetByID(ctx context.Context, id string) (LeaveResponse, error)
	GetByUser(ctx context.Context, userID string) ([]LeaveResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	users   user.Repository
	ledger  balance.Ledger
	counter counter.Repository
	outbox  kafka.OutboxRepository
	policy  ApprovalPolicy
	logger  *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	users user.Repository,
	ledger balance.Ledger,
	counterRepo counter.Repository,
	outboxRepo kafka.OutboxRepository,
	policy ApprovalPolicy,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		users:   users,
		ledger:  ledger,
		counter: counterRepo,
		outbox:  outboxRepo,
		policy:  policy,
		logger:  l,
	}
}

func (s *service) Create(ctx context.Context, actorID string, req CreateLeaveRequest) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)
	log.Debug("create leave requested",
		zap.String("actor_id", actorID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	ownerID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveResponse{}, err
	}
	if startDate.After(endDate) {
		return LeaveResponse{}, leaveerrors.ErrInvalidDateRange
	}

	category, err := s.ledger.ResolveCategory(req.LeaveType)
	if err != nil {
		return LeaveResponse{}, err
	}

	required, err := s.policy.Compute(startDate, endDate)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	owner, err := s.users.WithTx(tx).FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, usererrors.ErrUserNotFound
		}
		return LeaveResponse{}, err
	}

	overlap, err := qtx.HasOverlappingPeriod(ctx, actorID, startDate, endDate)
	if err != nil {
		log.Error("create leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		log.Warn("create leave overlap detected",
			zap.String("user_id", actorID),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	seq, err := s.counter.WithTx(tx).GetNextValue(ctx, counter.TypeLeaveReference)
	if err != nil {
		log.Error("create leave reference number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	l := &Leave{
		ID:                uuid.New(),
		ReferenceNo:       fmt.Sprintf("LV-%06d", seq),
		UserID:            ownerID,
		LeaveType:         category,
		StartDate:         startDate,
		EndDate:           endDate,
		TotalDays:         DayCount(startDate, endDate),
		Reason:            req.Reason,
		Status:            StatusPending,
		RequiredApprovals: pq.StringArray(required),
		Version:           1,
	}

	if err := qtx.Create(ctx, l); err != nil {
		log.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("reference_no", l.ReferenceNo),
		zap.Strings("required_approvals", required),
	)
	return mapToResponse(*l, owner.Name), nil
}

// Approve records one role's sign-off. The last sign-off debits the owner's
// balance in the same transaction; if the debit fails nothing is written and
// the role stays required.
func (s *service) Approve(ctx context.Context, id, actingRole string) (ApprovalResult, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	role, err := user.ParseRole(actingRole)
	if err != nil {
		return ApprovalResult{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return ApprovalResult{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("approve leave begin tx failed", zap.Error(err))
		return ApprovalResult{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	current, err := s.loadForUpdate(ctx, qtx, id)
	if err != nil {
		return ApprovalResult{}, err
	}

	owner, err := s.users.WithTx(tx).FindByID(ctx, current.UserID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApprovalResult{}, leaveerrors.ErrOwnerNotFound
		}
		return ApprovalResult{}, err
	}

	remaining, ok := withoutRole(current.RequiredApprovals, role.String())
	if !ok || current.Status != StatusPending {
		log.Warn("approve leave role not required",
			zap.String("leave_id", id),
			zap.String("role", role.String()),
			zap.Strings("required_approvals", current.RequiredApprovals),
			zap.String("status", current.Status),
		)
		return ApprovalResult{}, leaveerrors.ErrApproverNotRequired
	}

	next := *current
	next.RequiredApprovals = remaining

	var debited *balance.Balance
	if len(remaining) == 0 {
		days := DayCount(current.StartDate, current.EndDate)
		b, err := s.ledger.WithTx(tx).Debit(ctx, owner.ID.String(), current.LeaveType, days)
		if err != nil {
			log.Warn("approve leave debit failed, approval not recorded",
				zap.String("leave_id", id),
				zap.String("role", role.String()),
				zap.Error(err),
			)
			return ApprovalResult{}, err
		}
		now := time.Now().UTC()
		next.Status = StatusApproved
		next.DecidedAt = &now
		debited = &b
	}

	if err := qtx.Update(ctx, &next); err != nil {
		return ApprovalResult{}, s.mapUpdateError(log, id, err)
	}

	if next.Status == StatusApproved {
		if err := s.queueDecision(ctx, tx, next, events.EventTypeLeaveApproved); err != nil {
			return ApprovalResult{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("approve leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return ApprovalResult{}, err
	}

	result := ApprovalResult{Leave: mapToResponse(next, owner.Name)}
	if debited != nil {
		s.ledger.Invalidate(ctx, owner.ID.String())
		resp := balance.ToResponse(*debited)
		result.Balance = &resp
	}

	log.Info("approve leave recorded",
		zap.String("leave_id", id),
		zap.String("role", role.String()),
		zap.String("status", next.Status),
		zap.Strings("required_approvals", next.RequiredApprovals),
	)
	return result, nil
}

func (s *service) Reject(ctx context.Context, id, actingRole, reason string) (LeaveResponse, error) {
	log := contextutil.GetLogger(ctx, s.logger)

	role, err := user.ParseRole(actingRole)
	if err != nil {
		return LeaveResponse{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("reject leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	current, err := s.loadForUpdate(ctx, qtx, id)
	if err != nil {
		return LeaveResponse{}, err
	}

	if _, ok := withoutRole(current.RequiredApprovals, role.String()); !ok || current.Status != StatusPending {
		log.Warn("reject leave role not required",
			zap.String("leave_id", id),
			zap.String("role", role.String()),
			zap.String("status", current.Status),
		)
		return LeaveResponse{}, leaveerrors.ErrApproverNotRequired
	}

	now := time.Now().UTC()
	next := *current
	next.Status = StatusRejected
	next.RequiredApprovals = pq.StringArray{}
	next.DecidedAt = &now
	if reason != "" {
		next.RejectionReason = &reason
	}

	if err := qtx.Update(ctx, &next); err != nil {
		return LeaveResponse{}, s.mapUpdateError(log, id, err)
	}

	if err := s.queueDecision(ctx, tx, next, events.EventTypeLeaveRejected); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("reject leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	log.Info("reject leave success", zap.String("leave_id", id), zap.String("role", role.String()))
	return s.enrichOne(ctx, next), nil
}

func (s *service) Cancel(ctx context.Context, actorID, actorRole, id string) error {
	log := contextutil.GetLogger(ctx, s.logger)

	if _, err := uuid.Parse(id); err != nil {
		return leaveerrors.ErrInvalidLeaveID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("cancel leave begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	current, err := s.loadForUpdate(ctx, qtx, id)
	if err != nil {
		return err
	}

	if current.UserID.String() != actorID && actorRole != user.RoleAdmin.String() {
		return leaveerrors.ErrCancelForbidden
	}
	if current.Status != StatusPending {
		log.Warn("cancel leave invalid state",
			zap.String("leave_id", id),
			zap.String("status", current.Status),
		)
		return leaveerrors.ErrInvalidState
	}

	if err := qtx.Delete(ctx, id); err != nil {
		log.Error("cancel leave delete failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}

	if err := s.queueDecision(ctx, tx, *current, events.EventTypeLeaveCancelled); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("cancel leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}

	log.Info("cancel leave success", zap.String("leave_id", id))
	return nil
}

func (s *service) GetAll(ctx context.Context, actorID string, canReadAll bool) ([]LeaveResponse, error) {
	if !canReadAll {
		return s.GetByUser(ctx, actorID)
	}

	leaves, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, leaves), nil
}

func (s *service) GetByID(ctx context.Context, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidLeaveID
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	return s.enrichOne(ctx, *l), nil
}

func (s *service) GetByUser(ctx context.Context, userID string) ([]LeaveResponse, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, usererrors.ErrInvalidUserID
	}

	leaves, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, leaves), nil
}

func (s *service) loadForUpdate(ctx context.Context, repo Repository, id string) (*Leave, error) {
	l, err := repo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *service) mapUpdateError(log *zap.Logger, id string, err error) error {
	if errors.Is(err, ErrStaleVersion) {
		log.Warn("leave update lost a race", zap.String("leave_id", id))
		return leaveerrors.ErrConcurrentModification
	}
	log.Error("leave update persist failed", zap.String("leave_id", id), zap.Error(err))
	return err
}

func (s *service) queueDecision(ctx context.Context, tx *sql.Tx, l Leave, eventType string) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event, err := kafka.NewOutboxEvent(rid, "leave", l.ID.String(), eventType, events.LeaveLifecycleTopic,
		events.LeaveDecidedEvent{
			EventType:  eventType,
			RequestID:  rid,
			LeaveID:    l.ID.String(),
			UserID:     l.UserID.String(),
			LeaveType:  l.LeaveType,
			StartDate:  l.StartDate.Format(dateLayout),
			EndDate:    l.EndDate.Format(dateLayout),
			TotalDays:  l.TotalDays,
			DecidedBy:  contextutil.GetUserID(ctx),
			OccurredAt: time.Now().UTC(),
		})
	if err != nil {
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, event); err != nil {
		contextutil.GetLogger(ctx, s.logger).Error("leave outbox persist failed",
			zap.String("leave_id", l.ID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// enrich attaches requester names. A failed lookup only costs the names.
func (s *service) enrich(ctx context.Context, leaves []Leave) []LeaveResponse {
	seen := make(map[string]struct{}, len(leaves))
	ids := make([]string, 0, len(leaves))
	for _, l := range leaves {
		id := l.UserID.String()
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	names := make(map[string]string, len(ids))
	if len(ids) > 0 {
		owners, err := s.users.FindManyByIDs(ctx, ids)
		if err != nil {
			contextutil.GetLogger(ctx, s.logger).Warn("leave owner lookup failed", zap.Error(err))
		}
		for _, u := range owners {
			names[u.ID.String()] = u.Name
		}
	}

	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l, names[l.UserID.String()])
	}
	return resp
}

func (s *service) enrichOne(ctx context.Context, l Leave) LeaveResponse {
	return s.enrich(ctx, []Leave{l})[0]
}

// withoutRole removes the first occurrence of role. ok is false when role
// was not required.
func withoutRole(required []string, role string) (pq.StringArray, bool) {
	out := make(pq.StringArray, 0, len(required))
	found := false
	for _, r := range required {
		if !found && r == role {
			found = true
			continue
		}
		out = append(out, r)
	}
	return out, found
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l Leave, ownerName string) LeaveResponse {
	required := []string(l.RequiredApprovals)
	if required == nil {
		required = []string{}
	}
	resp := LeaveResponse{
		ID:                l.ID.String(),
		ReferenceNo:       l.ReferenceNo,
		UserID:            l.UserID.String(),
		UserName:          ownerName,
		LeaveType:         l.LeaveType,
		StartDate:         l.StartDate.Format(dateLayout),
		EndDate:           l.EndDate.Format(dateLayout),
		TotalDays:         l.TotalDays,
		Reason:            l.Reason,
		Status:            l.Status,
		RequiredApprovals: required,
		RejectionReason:   l.RejectionReason,
		CreatedAt:         l.CreatedAt.Format(time.RFC3339),
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	return resp
}
