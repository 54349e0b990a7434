package permission

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/repository"
	"github.com/idforge/backend/usecase"
)

// Command and query names routed through the buses.
const (
	CommandCreate         = "permission.create"
	CommandActivate       = "permission.activate"
	CommandSuspend        = "permission.suspend"
	CommandDisable        = "permission.disable"
	CommandAssignToRole   = "permission.assign_to_role"
	CommandRemoveFromRole = "permission.remove_from_role"
	CommandUpdateSettings = "permission.update_settings"

	QueryGet       = "permission.get"
	QueryGetByCode = "permission.get_by_code"
	QueryList      = "permission.list"
)

type CreateInput struct {
	TenantID    string
	Resource    string
	Action      string
	Scope       string
	Name        string
	Description string
	Limits      map[string]int
}

type StatusInput struct {
	PermissionID string
	Reason       string
}

type RoleInput struct {
	PermissionID string
	RoleID       string
}

type SettingsInput struct {
	PermissionID string
	Settings     domain.Settings
}

type GetInput struct {
	PermissionID string
	TenantID     string
	Code         string
}

type ListInput struct {
	TenantID string
	Status   string
	Resource string
	Limit    int
	Offset   int
}

// PermissionView is the query result shape.
type PermissionView struct {
	Permission domain.Permission `json:"permission"`
	Settings   domain.Settings   `json:"settings"`
	Stats      map[string]int    `json:"stats"`
	Roles      []string          `json:"roles"`
}

type UseCase struct {
	perms     repository.PermissionRepository
	publisher *usecase.Publisher
	defaults  domain.Settings
	logger    *zap.Logger
}

func New(perms repository.PermissionRepository, publisher *usecase.Publisher, defaults domain.Settings, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		perms:     perms,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
	}
}

// Register binds every permission command and query to the buses.
func (uc *UseCase) Register(commands *usecase.CommandBus, queries *usecase.QueryBus) {
	commands.Register(CommandCreate, uc.create)
	commands.Register(CommandActivate, uc.activate)
	commands.Register(CommandSuspend, uc.suspend)
	commands.Register(CommandDisable, uc.disable)
	commands.Register(CommandAssignToRole, uc.assignToRole)
	commands.Register(CommandRemoveFromRole, uc.removeFromRole)
	commands.Register(CommandUpdateSettings, uc.updateSettings)

	queries.Register(QueryGet, uc.get)
	queries.Register(QueryGetByCode, uc.getByCode)
	queries.Register(QueryList, uc.list)
}

func (uc *UseCase) create(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(CreateInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	if in.TenantID == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "tenant id is required")
	}

	// The generator is the only construction path guaranteed to yield a
	// valid code no matter the input.
	code := domain.GeneratePermissionCode(in.Resource, in.Action, in.Scope)

	if existing, err := uc.perms.GetByCode(ctx, in.TenantID, code); err == nil && existing != nil {
		return nil, domain.NewErrorf(domain.ErrCodeConflict, "permission %s already exists", code.String())
	}

	settings := uc.defaults.Copy()
	if settings.Limits == nil {
		settings.Limits = make(map[string]int)
	}
	for k, v := range in.Limits {
		settings.Limits[k] = v
	}

	name := in.Name
	if name == "" {
		name = code.String()
	}

	agg := domain.NewPermissionAggregate(domain.Permission{
		ID:          uuid.NewString(),
		TenantID:    in.TenantID,
		Code:        code,
		Name:        name,
		Description: in.Description,
	}, settings)

	if err := uc.perms.Save(ctx, agg); err != nil {
		return nil, err
	}
	uc.publisher.Flush(ctx, agg)
	return view(agg), nil
}

func (uc *UseCase) activate(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.PermissionID, func(agg *domain.PermissionAggregate) error {
		return agg.Activate()
	})
}

func (uc *UseCase) suspend(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.PermissionID, func(agg *domain.PermissionAggregate) error {
		return agg.Suspend(in.Reason)
	})
}

func (uc *UseCase) disable(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.PermissionID, func(agg *domain.PermissionAggregate) error {
		return agg.Disable(in.Reason)
	})
}

func (uc *UseCase) assignToRole(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(RoleInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.PermissionID, func(agg *domain.PermissionAggregate) error {
		return agg.AssignToRole(in.RoleID)
	})
}

func (uc *UseCase) removeFromRole(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(RoleInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.PermissionID, func(agg *domain.PermissionAggregate) error {
		return agg.RemoveFromRole(in.RoleID)
	})
}

func (uc *UseCase) updateSettings(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(SettingsInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.PermissionID, func(agg *domain.PermissionAggregate) error {
		return agg.UpdateSettings(in.Settings)
	})
}

func (uc *UseCase) get(ctx context.Context, q *usecase.Query) (interface{}, error) {
	in, ok := q.Data.(GetInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	agg, err := uc.perms.GetByID(ctx, in.PermissionID)
	if err != nil {
		return nil, err
	}
	return view(agg), nil
}

func (uc *UseCase) getByCode(ctx context.Context, q *usecase.Query) (interface{}, error) {
	in, ok := q.Data.(GetInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	code, err := domain.ParsePermissionCode(in.Code)
	if err != nil {
		return nil, err
	}
	agg, err := uc.perms.GetByCode(ctx, in.TenantID, code)
	if err != nil {
		return nil, err
	}
	return view(agg), nil
}

func (uc *UseCase) list(ctx context.Context, q *usecase.Query) (interface{}, error) {
	in, ok := q.Data.(ListInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.perms.List(ctx, repository.PermissionFilter{
		TenantID: in.TenantID,
		Status:   in.Status,
		Resource: in.Resource,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
}

func (uc *UseCase) mutate(ctx context.Context, permissionID string, op func(*domain.PermissionAggregate) error) (*PermissionView, error) {
	if permissionID == "" {
		return nil, domain.ErrInvalidPayload
	}
	agg, err := uc.perms.GetByID(ctx, permissionID)
	if err != nil {
		return nil, err
	}
	if err := op(agg); err != nil {
		return nil, err
	}
	if err := uc.perms.Save(ctx, agg); err != nil {
		return nil, err
	}
	uc.publisher.Flush(ctx, agg)
	return view(agg), nil
}

func view(agg *domain.PermissionAggregate) *PermissionView {
	return &PermissionView{
		Permission: agg.Permission(),
		Settings:   agg.Settings(),
		Stats:      agg.Stats(),
		Roles:      agg.Roles(),
	}
}
