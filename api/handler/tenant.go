package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/idforge/backend/api/transport"
	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/pkg/httpcontext"
	"github.com/idforge/backend/usecase"
	tenantUC "github.com/idforge/backend/usecase/tenant"
)

type TenantHandler struct {
	baseHandler
}

func NewTenantHandler(commands *usecase.CommandBus, queries *usecase.QueryBus, adapter *httpcontext.Adapter, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{
		baseHandler: newBaseHandler(commands, queries, adapter, logger),
	}
}

// @Summary Provision tenant
// @Tags tenants
// @Router /api/v1/tenants [post]
func (h *TenantHandler) Create(ctx *fasthttp.RequestCtx) {
	var req transport.TenantCreateRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, tenantUC.CommandCreate, tenantUC.CreateInput{
		Name:   req.Name,
		Slug:   req.Slug,
		Plan:   req.Plan,
		Limits: req.Limits,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, result)
}

// @Summary Get tenant
// @Tags tenants
// @Router /api/v1/tenants/{id} [get]
func (h *TenantHandler) Get(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, tenantUC.QueryGet, tenantUC.GetInput{
		TenantID: h.pathParam(ctx, "id"),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Get tenant by slug
// @Tags tenants
// @Router /api/v1/tenants/slug/{slug} [get]
func (h *TenantHandler) GetBySlug(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, tenantUC.QueryGetBySlug, tenantUC.GetInput{
		Slug: h.pathParam(ctx, "slug"),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary List tenants
// @Tags tenants
// @Router /api/v1/tenants [get]
func (h *TenantHandler) List(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.ask(stdCtx, tenantUC.QueryList, tenantUC.ListInput{
		Status: string(ctx.QueryArgs().Peek("status")),
		Limit:  parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset: parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Activate tenant
// @Tags tenants
// @Router /api/v1/tenants/{id}/activate [post]
func (h *TenantHandler) Activate(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, tenantUC.CommandActivate)
}

// @Summary Suspend tenant
// @Tags tenants
// @Router /api/v1/tenants/{id}/suspend [post]
func (h *TenantHandler) Suspend(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, tenantUC.CommandSuspend)
}

// @Summary Disable tenant
// @Tags tenants
// @Router /api/v1/tenants/{id}/disable [post]
func (h *TenantHandler) Disable(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, tenantUC.CommandDisable)
}

func (h *TenantHandler) transition(ctx *fasthttp.RequestCtx, command string) {
	var req transport.StatusRequest
	if len(ctx.PostBody()) > 0 && !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, command, tenantUC.StatusInput{
		TenantID: h.pathParam(ctx, "id"),
		Reason:   req.Reason,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Add tenant user
// @Tags tenants
// @Router /api/v1/tenants/{id}/users [post]
func (h *TenantHandler) AddUser(ctx *fasthttp.RequestCtx) {
	h.member(ctx, tenantUC.CommandAddUser, "")
}

// @Summary Remove tenant user
// @Tags tenants
// @Router /api/v1/tenants/{id}/users/{member_id} [delete]
func (h *TenantHandler) RemoveUser(ctx *fasthttp.RequestCtx) {
	h.member(ctx, tenantUC.CommandRemoveUser, h.pathParam(ctx, "member_id"))
}

// @Summary Add tenant organization
// @Tags tenants
// @Router /api/v1/tenants/{id}/organizations [post]
func (h *TenantHandler) AddOrganization(ctx *fasthttp.RequestCtx) {
	h.member(ctx, tenantUC.CommandAddOrg, "")
}

// @Summary Remove tenant organization
// @Tags tenants
// @Router /api/v1/tenants/{id}/organizations/{member_id} [delete]
func (h *TenantHandler) RemoveOrganization(ctx *fasthttp.RequestCtx) {
	h.member(ctx, tenantUC.CommandRemoveOrg, h.pathParam(ctx, "member_id"))
}

func (h *TenantHandler) member(ctx *fasthttp.RequestCtx, command, memberID string) {
	if memberID == "" {
		var req transport.MemberRequest
		if !h.decodeBody(ctx, &req) {
			return
		}
		memberID = req.MemberID
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, command, tenantUC.MemberInput{
		TenantID: h.pathParam(ctx, "id"),
		MemberID: memberID,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}

// @Summary Update tenant settings
// @Tags tenants
// @Router /api/v1/tenants/{id}/settings [put]
func (h *TenantHandler) UpdateSettings(ctx *fasthttp.RequestCtx) {
	var req transport.SettingsRequest
	if !h.decodeBody(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.dispatch(stdCtx, tenantUC.CommandUpdateSettings, tenantUC.SettingsInput{
		TenantID: h.pathParam(ctx, "id"),
		Settings: domain.Settings{Limits: req.Limits, Flags: req.Flags},
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, result)
}
