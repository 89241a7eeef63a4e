package balance

import (
	"net/http"

	"go-leave/internal/middleware"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	ledger Ledger
	logger *zap.Logger
}

func NewHandler(ledger Ledger, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("balance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.handler")
	}
	return &Handler{ledger: ledger, logger: l}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	httpErr := response.FromError(c, err)
	h.logger.Warn("balance request failed",
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
	)
}

func (h *Handler) GetMine(c *gin.Context) {
	userID, _ := middleware.Actor(c)

	b, err := h.ledger.Get(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToResponse(b), nil)
}

func (h *Handler) GetByUser(c *gin.Context) {
	b, err := h.ledger.Get(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ToResponse(b), nil)
}
