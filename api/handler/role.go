package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/idforge/backend/api/transport"
	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/pkg/httpcontext"
	"github.com/idforge/backend/usecase"
	roleUC "github.com/idforge/backend/usecase/role"
)

type RoleHandler struct {
	baseHandler
}

func NewRoleHandler(commands *usecase.CommandBus, queries *usecase.QueryBus, adapter *httpcontext.Adapter, logger *zap.Logger) *RoleHandler {
	return &RoleHandler{
		baseHandler: newBaseHandler(commands, queries, adapter, logger),
	}
}

// @Summary Create role
// @Tags roles
// @Router /api/v1/roles [post]
func (h *RoleHandler) Create(ctx *fasthttp.RequestCtx) {
	tenantID := h.tenantID(ctx)
	if tenantID == "" {
		return
	}

	var req transport.RoleCreateRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, roleUC.CommandCreate, roleUC.CreateInput{
		TenantID:    tenantID,
		Name:        req.Name,
		Description: req.Description,
		Limits:      req.Limits,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

// @Summary Get role
// @Tags roles
// @Router /api/v1/roles/{id} [get]
func (h *RoleHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, roleUC.QueryGet, roleUC.GetInput{
		RoleID: h.pathParam(ctx, "id"),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary List roles
// @Tags roles
// @Router /api/v1/roles [get]
func (h *RoleHandler) List(ctx *fasthttp.RequestCtx) {
	tenantID := h.tenantID(ctx)
	if tenantID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, roleUC.QueryList, roleUC.ListInput{
		TenantID: tenantID,
		Limit:    parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:   parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Grant permission code
// @Tags roles
// @Router /api/v1/roles/{id}/permissions [post]
func (h *RoleHandler) GrantPermission(ctx *fasthttp.RequestCtx) {
	var req transport.RoleGrantRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	h.grant(ctx, roleUC.CommandGrantPermission, req.Code)
}

// @Summary Revoke permission code
// @Tags roles
// @Router /api/v1/roles/{id}/permissions/{code} [delete]
func (h *RoleHandler) RevokePermission(ctx *fasthttp.RequestCtx) {
	h.grant(ctx, roleUC.CommandRevokePermission, h.pathParam(ctx, "code"))
}

func (h *RoleHandler) grant(ctx *fasthttp.RequestCtx, command, code string) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, command, roleUC.GrantInput{
		RoleID: h.pathParam(ctx, "id"),
		Code:   code,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Update role settings
// @Tags roles
// @Router /api/v1/roles/{id}/settings [put]
func (h *RoleHandler) UpdateSettings(ctx *fasthttp.RequestCtx) {
	var req transport.SettingsRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, roleUC.CommandUpdateSettings, roleUC.SettingsInput{
		RoleID:   h.pathParam(ctx, "id"),
		Settings: domain.Settings{Limits: req.Limits, Flags: req.Flags},
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}
