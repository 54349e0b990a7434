package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/idforge/backend/api/transport"
	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/pkg/httpcontext"
	"github.com/idforge/backend/usecase"
	permissionUC "github.com/idforge/backend/usecase/permission"
)

type PermissionHandler struct {
	baseHandler
}

func NewPermissionHandler(commands *usecase.CommandBus, queries *usecase.QueryBus, adapter *httpcontext.Adapter, logger *zap.Logger) *PermissionHandler {
	return &PermissionHandler{
		baseHandler: newBaseHandler(commands, queries, adapter, logger),
	}
}

// @Summary Create permission
// @Tags permissions
// @Router /api/v1/permissions [post]
func (h *PermissionHandler) Create(ctx *fasthttp.RequestCtx) {
	tenantID := h.tenantID(ctx)
	if tenantID == "" {
		return
	}

	var req transport.PermissionCreateRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, permissionUC.CommandCreate, permissionUC.CreateInput{
		TenantID:    tenantID,
		Resource:    req.Resource,
		Action:      req.Action,
		Scope:       req.Scope,
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

// @Summary Get permission
// @Tags permissions
// @Router /api/v1/permissions/{id} [get]
func (h *PermissionHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, permissionUC.QueryGet, permissionUC.GetInput{
		PermissionID: h.pathParam(ctx, "id"),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Get permission by code
// @Tags permissions
// @Router /api/v1/permissions/code/{code} [get]
func (h *PermissionHandler) GetByCode(ctx *fasthttp.RequestCtx) {
	tenantID := h.tenantID(ctx)
	if tenantID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, permissionUC.QueryGetByCode, permissionUC.GetInput{
		TenantID: tenantID,
		Code:     h.pathParam(ctx, "code"),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary List permissions
// @Tags permissions
// @Router /api/v1/permissions [get]
func (h *PermissionHandler) List(ctx *fasthttp.RequestCtx) {
	tenantID := h.tenantID(ctx)
	if tenantID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, permissionUC.QueryList, permissionUC.ListInput{
		TenantID: tenantID,
		Status:   string(ctx.QueryArgs().Peek("status")),
		Resource: string(ctx.QueryArgs().Peek("resource")),
		Limit:    parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:   parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Activate permission
// @Tags permissions
// @Router /api/v1/permissions/{id}/activate [post]
func (h *PermissionHandler) Activate(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, permissionUC.CommandActivate)
}

// @Summary Suspend permission
// @Tags permissions
// @Router /api/v1/permissions/{id}/suspend [post]
func (h *PermissionHandler) Suspend(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, permissionUC.CommandSuspend)
}

// @Summary Disable permission
// @Tags permissions
// @Router /api/v1/permissions/{id}/disable [post]
func (h *PermissionHandler) Disable(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, permissionUC.CommandDisable)
}

func (h *PermissionHandler) transition(ctx *fasthttp.RequestCtx, command string) {
	var req transport.StatusRequest
	if len(ctx.PostBody()) > 0 && !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, command, permissionUC.StatusInput{
		PermissionID: h.pathParam(ctx, "id"),
		Reason:       req.Reason,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Assign permission to role
// @Tags permissions
// @Router /api/v1/permissions/{id}/roles [post]
func (h *PermissionHandler) AssignToRole(ctx *fasthttp.RequestCtx) {
	var req transport.PermissionRoleRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	h.role(ctx, permissionUC.CommandAssignToRole, req.RoleID)
}

// @Summary Remove permission from role
// @Tags permissions
// @Router /api/v1/permissions/{id}/roles/{role_id} [delete]
func (h *PermissionHandler) RemoveFromRole(ctx *fasthttp.RequestCtx) {
	h.role(ctx, permissionUC.CommandRemoveFromRole, h.pathParam(ctx, "role_id"))
}

func (h *PermissionHandler) role(ctx *fasthttp.RequestCtx, command, roleID string) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, command, permissionUC.RoleInput{
		PermissionID: h.pathParam(ctx, "id"),
		RoleID:       roleID,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Update permission settings
// @Tags permissions
// @Router /api/v1/permissions/{id}/settings [put]
func (h *PermissionHandler) UpdateSettings(ctx *fasthttp.RequestCtx) {
	var req transport.SettingsRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, permissionUC.CommandUpdateSettings, permissionUC.SettingsInput{
		PermissionID: h.pathParam(ctx, "id"),
		Settings:     domain.Settings{Limits: req.Limits, Flags: req.Flags},
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}
