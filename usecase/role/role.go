package role

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
	CommandCreate           = "role.create"
	CommandGrantPermission  = "role.grant_permission"
	CommandRevokePermission = "role.revoke_permission"
	CommandUpdateSettings   = "role.update_settings"

	QueryGet  = "role.get"
	QueryList = "role.list"
)

type CreateInput struct {
	TenantID    string
	Name        string
	Description string
	Limits      map[string]int
}

type GrantInput struct {
	RoleID string
	Code   string
}

type SettingsInput struct {
	RoleID   string
	Settings domain.Settings
}

type GetInput struct {
	RoleID string
}

type ListInput struct {
	TenantID string
	Limit    int
	Offset   int
}

// RoleView is the query result shape.
type RoleView struct {
	Role        domain.Role     `json:"role"`
	Settings    domain.Settings `json:"settings"`
	Stats       map[string]int  `json:"stats"`
	Permissions []string        `json:"permissions"`
}

type UseCase struct {
	roles     repository.RoleRepository
	publisher *usecase.Publisher
	defaults  domain.Settings
	logger    *zap.Logger
}

func New(roles repository.RoleRepository, publisher *usecase.Publisher, defaults domain.Settings, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		roles:     roles,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
	}
}

// Register binds every role command and query to the buses.
func (uc *UseCase) Register(commands *usecase.CommandBus, queries *usecase.QueryBus) {
	commands.Register(CommandCreate, uc.create)
	commands.Register(CommandGrantPermission, uc.grantPermission)
	commands.Register(CommandRevokePermission, uc.revokePermission)
	commands.Register(CommandUpdateSettings, uc.updateSettings)

	queries.Register(QueryGet, uc.get)
	queries.Register(QueryList, uc.list)
}

func (uc *UseCase) create(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(CreateInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	if in.TenantID == "" || in.Name == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "role tenant id and name are required")
	}

	settings := uc.defaults.Copy()
	if settings.Limits == nil {
		settings.Limits = make(map[string]int)
	}
	for k, v := range in.Limits {
		settings.Limits[k] = v
	}

	agg := domain.NewRoleAggregate(domain.Role{
		ID:          uuid.NewString(),
		TenantID:    in.TenantID,
		Name:        in.Name,
		Description: in.Description,
	}, settings)

	if err := uc.roles.Save(ctx, agg); err != nil {
		return nil, err
	}
	uc.publisher.Flush(ctx, agg)
	return view(agg), nil
}

func (uc *UseCase) grantPermission(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(GrantInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	code, err := domain.ParsePermissionCode(in.Code)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, in.RoleID, func(agg *domain.RoleAggregate) error {
		return agg.GrantPermission(code)
	})
}

func (uc *UseCase) revokePermission(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(GrantInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	code, err := domain.ParsePermissionCode(in.Code)
	if err != nil {
		return nil, err
	}
	return uc.mutate(ctx, in.RoleID, func(agg *domain.RoleAggregate) error {
		return agg.RevokePermission(code)
	})
}

func (uc *UseCase) updateSettings(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(SettingsInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.RoleID, func(agg *domain.RoleAggregate) error {
		return agg.UpdateSettings(in.Settings)
	})
}

func (uc *UseCase) get(ctx context.Context, q *usecase.Query) (interface{}, error) {
	in, ok := q.Data.(GetInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	agg, err := uc.roles.GetByID(ctx, in.RoleID)
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
	return uc.roles.List(ctx, repository.RoleFilter{
		TenantID: in.TenantID,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
}

func (uc *UseCase) mutate(ctx context.Context, roleID string, op func(*domain.RoleAggregate) error) (*RoleView, error) {
	if roleID == "" {
		return nil, domain.ErrInvalidPayload
	}
	agg, err := uc.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if err := op(agg); err != nil {
		return nil, err
	}
	if err := uc.roles.Save(ctx, agg); err != nil {
		return nil, err
	}
	uc.publisher.Flush(ctx, agg)
	return view(agg), nil
}

func view(agg *domain.RoleAggregate) *RoleView {
	codes := agg.PermissionCodes()
	rendered := make([]string, 0, len(codes))
	for _, code := range codes {
		rendered = append(rendered, code.String())
	}
	return &RoleView{
		Role:        agg.Role(),
		Settings:    agg.Settings(),
		Stats:       agg.Stats(),
		Permissions: rendered,
	}
}
