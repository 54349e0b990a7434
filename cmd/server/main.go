package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/idforge/backend/api/handler"
	"github.com/idforge/backend/domain"
	"github.com/idforge/backend/internal/config"
	"github.com/idforge/backend/internal/infrastructure/monitor"
	"github.com/idforge/backend/internal/infrastructure/outbox"
	pgInfra "github.com/idforge/backend/internal/infrastructure/postgres"
	redisInfra "github.com/idforge/backend/internal/infrastructure/redis"
	"github.com/idforge/backend/internal/middleware"
	"github.com/idforge/backend/internal/router"
	"github.com/idforge/backend/internal/services"
	"github.com/idforge/backend/internal/services/lifecycle"
	"github.com/idforge/backend/pkg/httpcontext"
	"github.com/idforge/backend/pkg/logger"
	"github.com/idforge/backend/repository/postgres"
	redisRepo "github.com/idforge/backend/repository/redis"
	"github.com/idforge/backend/usecase"
	authUC "github.com/idforge/backend/usecase/auth"
	permissionUC "github.com/idforge/backend/usecase/permission"
	roleUC "github.com/idforge/backend/usecase/role"
	tenantUC "github.com/idforge/backend/usecase/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	commandBus := usecase.NewCommandBus(zapLogger)
	queryBus := usecase.NewQueryBus(zapLogger, cfg.Bus.QueryCacheTTL)
	eventBus := usecase.NewEventBus(zapLogger)
	publisher := usecase.NewPublisher(eventBus, outboxStore, zapLogger)

	tenantRepo := postgres.NewTenantRepository(pool)
	permissionRepo := postgres.NewPermissionRepository(pool)
	roleRepo := postgres.NewRoleRepository(pool)
	authRepo := postgres.NewAuthRepository(pool)
	sessionStore := redisRepo.NewSessionStore(redisClient, cfg.Limits.SessionTTL)

	tenantUseCase := tenantUC.New(tenantRepo, publisher, domain.Settings{
		Limits: map[string]int{
			domain.LimitMaxUsers:         cfg.Limits.TenantMaxUsers,
			domain.LimitMaxOrganizations: cfg.Limits.TenantMaxOrganizations,
		},
	}, zapLogger)
	permissionUseCase := permissionUC.New(permissionRepo, publisher, domain.Settings{
		Limits: map[string]int{
			domain.LimitMaxRoles: cfg.Limits.PermissionMaxRoles,
		},
	}, zapLogger)
	roleUseCase := roleUC.New(roleRepo, publisher, domain.Settings{
		Limits: map[string]int{
			domain.LimitMaxPermissions: cfg.Limits.RoleMaxPermissions,
		},
	}, zapLogger)
	authUseCase := authUC.New(authRepo, sessionStore, publisher, domain.Settings{
		Limits: map[string]int{
			domain.LimitMaxSessions:       cfg.Limits.AuthMaxSessions,
			domain.LimitMaxFailedAttempts: cfg.Limits.AuthMaxFailedAttempts,
		},
	}, zapLogger)

	tenantUseCase.Register(commandBus, queryBus)
	permissionUseCase.Register(commandBus, queryBus)
	roleUseCase.Register(commandBus, queryBus)
	authUseCase.Register(commandBus, queryBus)

	services.RegisterAuditLogger(eventBus, zapLogger)
	services.RegisterStatsProjector(eventBus, redisClient, zapLogger)
	services.RegisterTenantDisabledRevoker(eventBus, authRepo, authUseCase, zapLogger)

	relay := services.NewEventRelay(outboxStore, eventBus, mon, zapLogger, services.RelayConfig{
		Interval:   cfg.Outbox.SyncInterval,
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetry,
		Retention:  time.Duration(cfg.Outbox.RetentionHours) * time.Hour,
	})
	relay.Start()
	manager.Register("event_relay", func(ctx context.Context) error {
		relay.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Tenant:     apiHandler.NewTenantHandler(commandBus, queryBus, ctxAdapter, zapLogger),
		Permission: apiHandler.NewPermissionHandler(commandBus, queryBus, ctxAdapter, zapLogger),
		Role:       apiHandler.NewRoleHandler(commandBus, queryBus, ctxAdapter, zapLogger),
		Auth:       apiHandler.NewAuthHandler(commandBus, queryBus, ctxAdapter, zapLogger),
		Health:     apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers, router.Middleware{
		Authenticate: middleware.JWTAuth(cfg.JWT.Secret, zapLogger),
		Require: func(code string) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
			return middleware.RequirePermission(code, zapLogger)
		},
	})

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
