package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/tenancy/pkg/clientip"
	"github.com/fieldops/tenancy/pkg/config"
	"github.com/fieldops/tenancy/pkg/httpserver"
	"github.com/fieldops/tenancy/pkg/logger"
	"github.com/fieldops/tenancy/pkg/mongo"
	"github.com/fieldops/tenancy/pkg/pg"
	"github.com/fieldops/tenancy/pkg/redis"
	"github.com/fieldops/tenancy/pkg/requestid"
	"github.com/fieldops/tenancy/pkg/tenant"
	"github.com/fieldops/tenancy/pkg/tenantdir"
	"github.com/fieldops/tenancy/svc/auth"
)

// Backend selects where tenant-scoped job records live.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMongo    Backend = "mongo"
	BackendMemory   Backend = "memory"
)

var ErrUnknownBackend = errors.New("unknown jobs backend")

type appConfig struct {
	Log    logger.Config
	PG     pg.Config
	Redis  redis.Config
	Mongo  mongo.Config
	HTTP   httpserver.Config
	Tenant tenant.Config

	JobsBackend       Backend       `env:"JOBS_BACKEND" envDefault:"postgres"`
	PrincipalHeader   string        `env:"AUTH_PRINCIPAL_HEADER" envDefault:"X-Principal-ID"`
	ReadinessTimeout  time.Duration `env:"HTTP_READINESS_TIMEOUT" envDefault:"3s"`
	AutoMigrate       bool          `env:"PG_AUTO_MIGRATE" envDefault:"true"`
	PoolStatsInterval time.Duration `env:"METRICS_POOL_STATS_INTERVAL" envDefault:"30s"`
}

func (c appConfig) validate() error {
	switch c.JobsBackend {
	case BackendPostgres, BackendMongo, BackendMemory:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.JobsBackend)
	}
	if c.JobsBackend == BackendMongo && c.Mongo.ConnectionURL == "" {
		return errors.New("MONGODB_URL is required for the mongo jobs backend")
	}
	return nil
}

// app carries the process-wide dependencies every command needs.
type app struct {
	cfg  appConfig
	log  *slog.Logger
	pool *pgxpool.Pool
	dir  *tenantdir.Store
}

func loadApp(ctx context.Context, envFiles []string) (*app, error) {
	var cfg appConfig
	var opts []config.Option
	if len(envFiles) > 0 {
		opts = append(opts, config.WithEnvFiles(envFiles...))
	}
	if err := config.Load(&cfg, opts...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logOpts := append(logger.FromConfig(cfg.Log), logger.WithContextExtractors(
		requestid.LoggerExtractor(),
		clientip.LoggerExtractor(),
		tenant.LoggerExtractor(),
		auth.LoggerExtractor(),
	))
	log := logger.New(logOpts...)

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:  cfg,
		log:  log,
		pool: pool,
		dir: tenantdir.New(pool,
			tenantdir.WithReservedSubdomains(cfg.Tenant.Reserved()...),
			tenantdir.WithLogger(log.With(logger.Component("tenantdir"))),
		),
	}, nil
}

func (a *app) migrate(ctx context.Context) error {
	return pg.Migrate(ctx, a.pool, tenantdir.Migrations, tenantdir.MigrationsDir, a.cfg.PG,
		a.log.With(logger.Component("migrate")))
}

func (a *app) close() {
	a.pool.Close()
}
