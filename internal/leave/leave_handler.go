package leave

import (
	"net/http"
	"strconv"
	"strings"

	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/middleware"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"
	"go-leave/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

// canReadAll reports whether role sees every leave rather than only its own.
func canReadAll(role string) bool {
	switch role {
	case user.RoleHR.String(), user.RoleManager.String(), user.RoleAdmin.String():
		return true
	}
	return false
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := response.FromError(c, err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
}

func (h *Handler) Create(c *gin.Context) {
	actorID, _ := middleware.Actor(c)
	h.logger.Debug("http create leave", zap.String("actor_id", actorID))

	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	actorID, role := middleware.Actor(c)

	resp, err := h.service.GetAll(c.Request.Context(), actorID, canReadAll(role))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if status := strings.TrimSpace(strings.ToLower(c.Query("status"))); status != "" {
		filtered := make([]LeaveResponse, 0, len(resp))
		for _, l := range resp {
			if l.Status == status {
				filtered = append(filtered, l)
			}
		}
		resp = filtered
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	items, meta := response.Paginate(resp, page, pageSize)
	response.Success(c, http.StatusOK, items, &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	actorID, role := middleware.Actor(c)

	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	// Employees only see their own requests; a foreign id reads as missing.
	if !canReadAll(role) && resp.UserID != actorID {
		h.writeServiceError(c, leaveerrors.ErrLeaveNotFound)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	_, role := middleware.Actor(c)

	resp, err := h.service.Approve(c.Request.Context(), c.Param("id"), role)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	_, role := middleware.Actor(c)

	var req RejectLeaveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	resp, err := h.service.Reject(c.Request.Context(), c.Param("id"), role, strings.TrimSpace(req.Reason))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	actorID, role := middleware.Actor(c)

	if err := h.service.Cancel(c.Request.Context(), actorID, role, c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cancelled": true}, nil)
}
