package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/idforge/backend/api/transport"
	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/pkg/httpcontext"
	"github.com/idforge/backend/pkg/logger"
	"github.com/idforge/backend/usecase"
)

type baseHandler struct {
	adapter  *httpcontext.Adapter
	commands *usecase.CommandBus
	queries  *usecase.QueryBus
	logger   *zap.Logger
}

func newBaseHandler(commands *usecase.CommandBus, queries *usecase.QueryBus, adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{
		adapter:  adapter,
		commands: commands,
		queries:  queries,
		logger:   logger,
	}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

// dispatch routes a command through the bus, stamping it with the request's
// correlation ID.
func (h baseHandler) dispatch(ctx context.Context, name string, data interface{}) (interface{}, error) {
	cmd := usecase.NewCommand(name, data).
		WithCorrelation(logger.CorrelationIDFromContext(ctx), "")
	return h.commands.Execute(ctx, cmd)
}

// ask routes a query through the bus, stamping it with the request's
// correlation ID.
func (h baseHandler) ask(ctx context.Context, name string, data interface{}) (interface{}, error) {
	q := usecase.NewQuery(name, data).
		WithCorrelation(logger.CorrelationIDFromContext(ctx), "")
	return h.queries.Execute(ctx, q)
}

func (h baseHandler) decodeBody(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "malformed request body", nil))
		return false
	}
	return true
}

func (h baseHandler) pathParam(ctx *fasthttp.RequestCtx, name string) string {
	value, _ := ctx.UserValue(name).(string)
	return value
}

func (h baseHandler) tenantID(ctx *fasthttp.RequestCtx) string {
	if id := string(ctx.Request.Header.Peek("X-Tenant-ID")); id != "" {
		return id
	}
	h.respondJSON(ctx, http.StatusUnauthorized, transport.NewError(string(domain.ErrCodeUnauthorized), "missing tenant identity", nil))
	return ""
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	if id := string(ctx.Response.Header.Peek(httpcontext.HeaderCorrelationID)); id != "" {
		payload = payload.WithCorrelation(id)
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.NewSuccess(data))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	h.respondJSON(ctx, status, transport.NewError(code, err.Error(), nil))
}

func mapError(err error) (int, string) {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized, string(domain.ErrCodeUnauthorized)
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden, string(domain.ErrCodeForbidden)
	case domain.IsDomainError(err, domain.ErrCodeInvalid):
		return http.StatusBadRequest, string(domain.ErrCodeInvalid)
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound, string(domain.ErrCodeNotFound)
	case domain.IsDomainError(err, domain.ErrCodeConflict):
		return http.StatusConflict, string(domain.ErrCodeConflict)
	case domain.IsDomainError(err, domain.ErrCodeInvariant):
		return http.StatusUnprocessableEntity, string(domain.ErrCodeInvariant)
	case domain.IsDomainError(err, domain.ErrCodeNotRegistered):
		return http.StatusNotImplemented, string(domain.ErrCodeNotRegistered)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
