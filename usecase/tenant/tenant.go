package tenant

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
	CommandCreate         = "tenant.create"
	CommandActivate       = "tenant.activate"
	CommandSuspend        = "tenant.suspend"
	CommandDisable        = "tenant.disable"
	CommandAddUser        = "tenant.add_user"
	CommandRemoveUser     = "tenant.remove_user"
	CommandAddOrg         = "tenant.add_organization"
	CommandRemoveOrg      = "tenant.remove_organization"
	CommandUpdateSettings = "tenant.update_settings"

	QueryGet       = "tenant.get"
	QueryGetBySlug = "tenant.get_by_slug"
	QueryList      = "tenant.list"
)

type CreateInput struct {
	Name   string
	Slug   string
	Plan   string
	Limits map[string]int
}

type StatusInput struct {
	TenantID string
	Reason   string
}

type MemberInput struct {
	TenantID string
	MemberID string
}

type SettingsInput struct {
	TenantID string
	Settings domain.Settings
}

type GetInput struct {
	TenantID string
	Slug     string
}

type ListInput struct {
	Status string
	Limit  int
	Offset int
}

// TenantView is the query result shape: entity plus the envelope's settings
// and statistics.
type TenantView struct {
	Tenant   domain.Tenant   `json:"tenant"`
	Settings domain.Settings `json:"settings"`
	Stats    map[string]int  `json:"stats"`
	Users    []string        `json:"users"`
	Orgs     []string        `json:"organizations"`
}

type UseCase struct {
	tenants   repository.TenantRepository
	publisher *usecase.Publisher
	defaults  domain.Settings
	logger    *zap.Logger
}

func New(tenants repository.TenantRepository, publisher *usecase.Publisher, defaults domain.Settings, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tenants:   tenants,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
	}
}

// Register binds every tenant command and query to the buses. Called once by
// the composition root before dispatch begins.
func (uc *UseCase) Register(commands *usecase.CommandBus, queries *usecase.QueryBus) {
	commands.Register(CommandCreate, uc.create)
	commands.Register(CommandActivate, uc.activate)
	commands.Register(CommandSuspend, uc.suspend)
	commands.Register(CommandDisable, uc.disable)
	commands.Register(CommandAddUser, uc.addUser)
	commands.Register(CommandRemoveUser, uc.removeUser)
	commands.Register(CommandAddOrg, uc.addOrganization)
	commands.Register(CommandRemoveOrg, uc.removeOrganization)
	commands.Register(CommandUpdateSettings, uc.updateSettings)

	queries.Register(QueryGet, uc.get)
	queries.Register(QueryGetBySlug, uc.getBySlug)
	queries.Register(QueryList, uc.list)
}

func (uc *UseCase) create(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(CreateInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	if in.Name == "" || in.Slug == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "tenant name and slug are required")
	}

	settings := uc.defaults.Copy()
	if settings.Limits == nil {
		settings.Limits = make(map[string]int)
	}
	for k, v := range in.Limits {
		settings.Limits[k] = v
	}

	agg := domain.NewTenantAggregate(domain.Tenant{
		ID:   uuid.NewString(),
		Name: in.Name,
		Slug: in.Slug,
		Plan: in.Plan,
	}, settings)

	if err := uc.tenants.Save(ctx, agg); err != nil {
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
	return uc.mutate(ctx, in.TenantID, func(agg *domain.TenantAggregate) error {
		return agg.Activate()
	})
}

func (uc *UseCase) suspend(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.TenantID, func(agg *domain.TenantAggregate) error {
		return agg.Suspend(in.Reason)
	})
}

func (uc *UseCase) disable(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(StatusInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.TenantID, func(agg *domain.TenantAggregate) error {
		return agg.Disable(in.Reason)
	})
}

func (uc *UseCase) addUser(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(MemberInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.TenantID, func(agg *domain.TenantAggregate) error {
		return agg.AddUser(in.MemberID)
	})
}

func (uc *UseCase) removeUser(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(MemberInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.TenantID, func(agg *domain.TenantAggregate) error {
		return agg.RemoveUser(in.MemberID)
	})
}

func (uc *UseCase) addOrganization(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(MemberInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.TenantID, func(agg *domain.TenantAggregate) error {
		return agg.AddOrganization(in.MemberID)
	})
}

func (uc *UseCase) removeOrganization(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(MemberInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.TenantID, func(agg *domain.TenantAggregate) error {
		return agg.RemoveOrganization(in.MemberID)
	})
}

func (uc *UseCase) updateSettings(ctx context.Context, cmd *usecase.Command) (interface{}, error) {
	in, ok := cmd.Data.(SettingsInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	return uc.mutate(ctx, in.TenantID, func(agg *domain.TenantAggregate) error {
		return agg.UpdateSettings(in.Settings)
	})
}

func (uc *UseCase) get(ctx context.Context, q *usecase.Query) (interface{}, error) {
	in, ok := q.Data.(GetInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	agg, err := uc.tenants.GetByID(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}
	return view(agg), nil
}

func (uc *UseCase) getBySlug(ctx context.Context, q *usecase.Query) (interface{}, error) {
	in, ok := q.Data.(GetInput)
	if !ok {
		return nil, domain.ErrInvalidPayload
	}
	agg, err := uc.tenants.GetBySlug(ctx, in.Slug)
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
	return uc.tenants.List(ctx, repository.TenantFilter{
		Status: in.Status,
		Limit:  in.Limit,
		Offset: in.Offset,
	})
}

// mutate runs the load-mutate-save-flush cycle shared by every tenant
// command. The aggregate instance is owned exclusively for the duration of
// one command.
func (uc *UseCase) mutate(ctx context.Context, tenantID string, op func(*domain.TenantAggregate) error) (*TenantView, error) {
	if tenantID == "" {
		return nil, domain.ErrInvalidPayload
	}
	agg, err := uc.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if err := op(agg); err != nil {
		return nil, err
	}
	if err := uc.tenants.Save(ctx, agg); err != nil {
		return nil, err
	}
	uc.publisher.Flush(ctx, agg)
	return view(agg), nil
}

func view(agg *domain.TenantAggregate) *TenantView {
	return &TenantView{
		Tenant:   agg.Tenant(),
		Settings: agg.Settings(),
		Stats:    agg.Stats(),
		Users:    agg.Users(),
		Orgs:     agg.Organizations(),
	}
}
