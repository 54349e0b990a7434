package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/idforge/backend/api/transport"
	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/pkg/httpcontext"
	"github.com/idforge/backend/usecase"
	authUC "github.com/idforge/backend/usecase/auth"
)

type AuthHandler struct {
	baseHandler
}

func NewAuthHandler(commands *usecase.CommandBus, queries *usecase.QueryBus, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(commands, queries, adapter, logger),
	}
}

// @Summary Create auth account
// @Tags auth
// @Router /api/v1/auth/accounts [post]
func (h *AuthHandler) CreateAccount(ctx *fasthttp.RequestCtx) {
	tenantID := h.tenantID(ctx)
	if tenantID == "" {
		return
	}

	var req transport.AuthCreateRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, authUC.CommandCreateAccount, authUC.CreateInput{
		TenantID: tenantID,
		UserID:   req.UserID,
		Limits:   req.Limits,
		Flags:    req.Flags,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

// @Summary Get auth account
// @Tags auth
// @Router /api/v1/auth/accounts/{id} [get]
func (h *AuthHandler) GetAccount(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, authUC.QueryGet, authUC.GetInput{
		AuthID: h.pathParam(ctx, "id"),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Start session
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/sessions [post]
func (h *AuthHandler) StartSession(ctx *fasthttp.RequestCtx) {
	var req transport.SessionStartRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, authUC.CommandStartSession, authUC.SessionInput{
		AuthID:    h.pathParam(ctx, "id"),
		SessionID: req.SessionID,
		TTL:       time.Duration(req.TTLSeconds) * time.Second,
		Metadata:  req.Metadata,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

// @Summary Extend session
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/sessions/{session_id} [patch]
func (h *AuthHandler) ExtendSession(ctx *fasthttp.RequestCtx) {
	var req transport.SessionExtendRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, authUC.CommandExtendSession, authUC.SessionInput{
		AuthID:    h.pathParam(ctx, "id"),
		SessionID: h.pathParam(ctx, "session_id"),
		TTL:       time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Revoke session
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/sessions/{session_id} [delete]
func (h *AuthHandler) RevokeSession(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, authUC.CommandRevokeSession, authUC.SessionInput{
		AuthID:    h.pathParam(ctx, "id"),
		SessionID: h.pathParam(ctx, "session_id"),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Get session
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/sessions/{session_id} [get]
func (h *AuthHandler) GetSession(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, authUC.QueryGetSession, authUC.GetInput{
		AuthID:    h.pathParam(ctx, "id"),
		SessionID: h.pathParam(ctx, "session_id"),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Record failed login attempt
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/failed-attempts [post]
func (h *AuthHandler) RecordFailedAttempt(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, authUC.CommandFailedAttempt)
}

// @Summary Activate auth account
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/activate [post]
func (h *AuthHandler) Activate(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, authUC.CommandActivate)
}

// @Summary Suspend auth account
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/suspend [post]
func (h *AuthHandler) Suspend(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, authUC.CommandSuspend)
}

// @Summary Disable auth account
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/disable [post]
func (h *AuthHandler) Disable(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, authUC.CommandDisable)
}

// @Summary Expire auth account
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/expire [post]
func (h *AuthHandler) Expire(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, authUC.CommandExpire)
}

func (h *AuthHandler) transition(ctx *fasthttp.RequestCtx, command string) {
	var req transport.StatusRequest
	if len(ctx.PostBody()) > 0 && !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, command, authUC.StatusInput{
		AuthID: h.pathParam(ctx, "id"),
		Reason: req.Reason,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Update auth settings
// @Tags auth
// @Router /api/v1/auth/accounts/{id}/settings [put]
func (h *AuthHandler) UpdateSettings(ctx *fasthttp.RequestCtx) {
	var req transport.SettingsRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, authUC.CommandUpdateSettings, authUC.SettingsInput{
		AuthID:   h.pathParam(ctx, "id"),
		Settings: domain.Settings{Limits: req.Limits, Flags: req.Flags},
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}
