package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"

	authAPI "taskboard/internal/api/auth"
	proxyAPI "taskboard/internal/api/proxy"
	taskAPI "taskboard/internal/api/task"
	"taskboard/internal/client/authapi"
	"taskboard/internal/client/taskapi"
	"taskboard/internal/config"
	"taskboard/internal/config/env"
	"taskboard/internal/middleware"
	"taskboard/internal/repository"
	"taskboard/internal/repository/memory_cache_repo"
	"taskboard/internal/repository/session_cache_repo"
	"taskboard/internal/service"
	"taskboard/internal/service/auth"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ServiceProvider struct {
	logger *slog.Logger

	//TXManager
	txManager trm.Manager

	// Database
	pgConfig config.PGConfig
	dbClient *pgxpool.Pool

	// Session cache
	cacheRepo repository.SessionCacheRepository

	// Backends
	backendCfg  config.BackendConfig
	authGateway service.AuthGateway
	taskFactory service.TaskAPIFactory

	// Auth bits
	sessionCfg config.SessionConfig
	authStores service.AuthStoreFactory
	authHand   *authAPI.Handler
	proxyHand  *proxyAPI.Handler
	taskHand   *taskAPI.Handler

	// Router and HTTP config
	logCfg   config.LogConfig
	guardCfg config.GuardConfig
	corsCfg  config.CORSConfig
	httpCfg  config.HTTPConfig
	router   chi.Router
}

func newServiceProvider() *ServiceProvider {
	return &ServiceProvider{}
}

func (sp *ServiceProvider) LogCfg() config.LogConfig {
	if sp.logCfg == nil {
		cfg, err := env.NewLogConfig()
		if err != nil {
			panic("failed to get log config: " + err.Error())
		}
		sp.logCfg = cfg
	}
	return sp.logCfg
}

func (sp *ServiceProvider) Logger() *slog.Logger {
	if sp.logger == nil {
		sp.logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: sp.LogCfg().Level(),
		}))
	}
	return sp.logger
}

// PgConfig returns nil when no database is configured
func (sp *ServiceProvider) PgConfig() config.PGConfig {
	if sp.pgConfig == nil {
		cfg, err := env.NewPGConfig()
		if err != nil {
			if errors.Is(err, env.ErrNoDSN) {
				return nil
			}
			panic("failed to get database config: " + err.Error())
		}
		sp.pgConfig = cfg
	}
	return sp.pgConfig
}

func (sp *ServiceProvider) DBClient(ctx context.Context) *pgxpool.Pool {
	if sp.dbClient == nil {
		dbc, err := pgxpool.New(ctx, sp.PgConfig().DSN())
		if err != nil {
			panic("failed to create db pool: " + err.Error())
		}
		err = dbc.Ping(ctx)
		if err != nil {
			panic("failed to ping db: " + err.Error())
		}
		err = session_cache_repo.EnsureSchema(ctx, dbc)
		if err != nil {
			panic("failed to prepare session cache: " + err.Error())
		}
		sp.dbClient = dbc
	}
	return sp.dbClient
}

func (sp *ServiceProvider) TXManager(ctx context.Context) trm.Manager {
	if sp.txManager == nil {
		m, err := manager.New(trmpgx.NewDefaultFactory(sp.DBClient(ctx)))
		if err != nil {
			panic("failed to create tx manager: " + err.Error())
		}

		sp.txManager = m
	}

	return sp.txManager
}

// CacheRepo keeps the session cache in Postgres when PG_DSN is set, in
// process memory otherwise
func (sp *ServiceProvider) CacheRepo(ctx context.Context) repository.SessionCacheRepository {
	if sp.cacheRepo == nil {
		if sp.PgConfig() == nil {
			sp.Logger().Warn("PG_DSN not set, session cache is kept in memory")
			sp.cacheRepo = memory_cache_repo.NewCacheRepository()
		} else {
			sp.cacheRepo = session_cache_repo.NewSessionCacheRepository(sp.DBClient(ctx), sp.TXManager(ctx))
		}
	}
	return sp.cacheRepo
}

func (sp *ServiceProvider) BackendCfg() config.BackendConfig {
	if sp.backendCfg == nil {
		cfg, err := env.NewBackendConfig()
		if err != nil {
			panic("failed to get backend config: " + err.Error())
		}
		sp.backendCfg = cfg
	}
	return sp.backendCfg
}

func (sp *ServiceProvider) AuthGateway() service.AuthGateway {
	if sp.authGateway == nil {
		cfg := sp.BackendCfg()
		sp.authGateway = authapi.New(cfg.AuthURL(), nil, cfg.Timeout(), sp.Logger())
	}
	return sp.authGateway
}

func (sp *ServiceProvider) TaskFactory() service.TaskAPIFactory {
	if sp.taskFactory == nil {
		cfg := sp.BackendCfg()
		sp.taskFactory = taskapi.NewFactory(cfg.TaskURL(), cfg.Timeout())
	}
	return sp.taskFactory
}

func (sp *ServiceProvider) SessionCfg() config.SessionConfig {
	if sp.sessionCfg == nil {
		cfg, err := env.NewSessionConfig()
		if err != nil {
			panic("failed to get session config: " + err.Error())
		}
		sp.sessionCfg = cfg
	}
	return sp.sessionCfg
}

func (sp *ServiceProvider) AuthStores(ctx context.Context) service.AuthStoreFactory {
	if sp.authStores == nil {
		sp.authStores = auth.NewFactory(auth.Deps{
			Gateway: sp.AuthGateway(),
			Cache:   sp.CacheRepo(ctx),
			Policy:  sp.SessionCfg().RefreshPolicy(),
			Logger:  sp.Logger().With("component", "auth_store"),
		})
	}
	return sp.authStores
}

func (sp *ServiceProvider) AuthHandler(ctx context.Context) *authAPI.Handler {
	if sp.authHand == nil {
		sp.authHand = authAPI.NewHandler(authAPI.HandlerDeps{
			Stores:       sp.AuthStores(ctx),
			Guard:        sp.GuardCfg(),
			CookieSecure: sp.SessionCfg().CookieSecure(),
			Logger:       sp.Logger(),
		})
	}
	return sp.authHand
}

func (sp *ServiceProvider) ProxyHandler() *proxyAPI.Handler {
	if sp.proxyHand == nil {
		sp.proxyHand = proxyAPI.NewHandler(proxyAPI.HandlerDeps{
			Gateway: sp.AuthGateway(),
			Logger:  sp.Logger(),
		})
	}
	return sp.proxyHand
}

func (sp *ServiceProvider) TaskHandler(ctx context.Context) *taskAPI.Handler {
	if sp.taskHand == nil {
		sp.taskHand = taskAPI.NewHandler(taskAPI.HandlerDeps{
			Tasks:   sp.TaskFactory(),
			SignOut: http.HandlerFunc(sp.AuthHandler(ctx).SignOut),
			Logger:  sp.Logger(),
		})
	}
	return sp.taskHand
}

func (sp *ServiceProvider) GuardCfg() config.GuardConfig {
	if sp.guardCfg == nil {
		cfg, err := env.NewGuardConfigFromYAML(env.ConfigFilePath())
		if err != nil {
			panic("failed to get guard config: " + err.Error())
		}
		sp.guardCfg = cfg
	}
	return sp.guardCfg
}

func (sp *ServiceProvider) CORSCfg() config.CORSConfig {
	if sp.corsCfg == nil {
		sp.corsCfg = env.NewCORSConfig()
	}
	return sp.corsCfg
}

func (sp *ServiceProvider) HTTPCfg() config.HTTPConfig {
	if sp.httpCfg == nil {
		cfg, err := env.NewHTTPConfig()
		if err != nil {
			panic("failed to get http config: " + err.Error())
		}
		sp.httpCfg = cfg
	}

	return sp.httpCfg
}

func (sp *ServiceProvider) Router(ctx context.Context) chi.Router {
	if sp.router == nil {
		r := chi.NewRouter()

		r.Use(chiMiddleware.RequestID)
		r.Use(chiMiddleware.RealIP)
		r.Use(chiMiddleware.RequestLogger(&chiMiddleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(sp.Logger().Handler(), slog.LevelInfo),
			NoColor: true,
		}))
		r.Use(chiMiddleware.Recoverer)

		// CORS middleware
		origins := sp.CORSCfg().AllowedOrigins()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", authapi.RequestIDHeader},
			ExposedHeaders:   []string{"Link", authapi.RequestIDHeader},
			AllowCredentials: !allowsAnyOrigin(origins),
			MaxAge:           60 * 15,
		}))

		r.Use(middleware.ClientID(sp.SessionCfg().CookieSecure()))
		r.Use(middleware.Guard(sp.GuardCfg()))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		// Same-origin auth proxy
		proxyHandler := sp.ProxyHandler()
		r.Route("/api/auth", func(rr chi.Router) {
			rr.Post("/sign-in", proxyHandler.SignIn)
			rr.Post("/sign-up", proxyHandler.SignUp)
			rr.Get("/use-session", proxyHandler.UseSession)
			rr.Post("/sign-out", proxyHandler.SignOut)
		})

		// Auth pages
		authHandler := sp.AuthHandler(ctx)
		r.Route("/auth", func(rr chi.Router) {
			rr.Get("/login", authHandler.LoginPage)
			rr.Post("/login", authHandler.Login)
			rr.Get("/register", authHandler.RegisterPage)
			rr.Post("/register", authHandler.Register)
			rr.Post("/logout", authHandler.SignOut)
		})

		// Dashboard
		taskHandler := sp.TaskHandler(ctx)
		dashboardPath := sp.GuardCfg().DashboardPath()
		r.Route(dashboardPath, func(rr chi.Router) {
			rr.Use(middleware.LoadSession(sp.AuthStores(ctx), http.HandlerFunc(authHandler.SignOut), sp.Logger()))
			rr.Get("/", taskHandler.Dashboard)
			rr.Post("/tasks", taskHandler.Create)
			rr.Put("/tasks/{id}", taskHandler.Update)
			rr.Delete("/tasks/{id}", taskHandler.Delete)
			rr.Patch("/tasks/{id}/toggle", taskHandler.Toggle)
		})

		sp.router = r
	}

	return sp.router
}

// Close releases the database pool, if one was opened
func (sp *ServiceProvider) Close() {
	if sp.dbClient != nil {
		sp.dbClient.Close()
	}
}

// allowsAnyOrigin - browsers reject credentials with a wildcard origin
func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
