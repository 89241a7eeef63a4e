package auth

import (
	"net/http"
	"strings"
	"time"

	"go-leave/internal/middleware"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	accessTokenCookie = "access_token"
	headerClientType  = "X-Client-Type"
)

type Handler struct {
	service      Service
	secureCookie bool
	logger       *zap.Logger
}

func NewHandler(s Service, secureCookie bool, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("auth.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.handler")
	}
	return &Handler{service: s, secureCookie: secureCookie, logger: l}
}

// isWebClient reports whether the caller wants the token as a cookie.
func isWebClient(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader(headerClientType), "web")
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpErr := response.FromError(c, err)
		h.logger.Warn("login rejected", zap.Int("status", httpErr.Status), zap.String("code", httpErr.Code))
		return
	}

	if isWebClient(c) {
		maxAge := 0
		if exp, err := time.Parse(time.RFC3339, res.ExpiresAt); err == nil {
			maxAge = int(time.Until(exp).Seconds())
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     accessTokenCookie,
			Value:    res.AccessToken,
			Path:     "/",
			MaxAge:   maxAge,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
	}

	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Me(c *gin.Context) {
	userID, _ := middleware.Actor(c)

	res, err := h.service.GetMe(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, nil)
}
