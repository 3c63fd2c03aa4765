package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	mongodrv "go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/fieldops/tenancy/modules/jobs"
	"github.com/fieldops/tenancy/pkg/audit"
	"github.com/fieldops/tenancy/pkg/clientip"
	"github.com/fieldops/tenancy/pkg/httpserver"
	"github.com/fieldops/tenancy/pkg/logger"
	"github.com/fieldops/tenancy/pkg/metrics"
	"github.com/fieldops/tenancy/pkg/mongo"
	"github.com/fieldops/tenancy/pkg/pg"
	"github.com/fieldops/tenancy/pkg/redis"
	"github.com/fieldops/tenancy/pkg/requestid"
	"github.com/fieldops/tenancy/pkg/scoped"
	"github.com/fieldops/tenancy/pkg/scoped/mongostore"
	"github.com/fieldops/tenancy/pkg/scoped/sqlstore"
	"github.com/fieldops/tenancy/pkg/tenant"
	"github.com/fieldops/tenancy/pkg/tenantdir"
	"github.com/fieldops/tenancy/svc/auth"
)

const jobsCollection = "jobs"

func newServeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, flags, func(a *app) error {
				return serve(cmd.Context(), a)
			})
		},
	}
}

// deps are the optional backing services, connected concurrently at startup.
type deps struct {
	redis *goredis.Client
	mongo *mongodrv.Database
}

func (d *deps) close() {
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.mongo != nil {
		_ = d.mongo.Client().Disconnect(context.Background())
	}
}

func connectDeps(ctx context.Context, cfg appConfig) (*deps, error) {
	d := &deps{}
	g, gctx := errgroup.WithContext(ctx)
	if cfg.Redis.Enabled() {
		g.Go(func() error {
			client, err := redis.Connect(gctx, cfg.Redis)
			d.redis = client
			return err
		})
	}
	if cfg.JobsBackend == BackendMongo {
		g.Go(func() error {
			db, err := mongo.Connect(gctx, cfg.Mongo)
			d.mongo = db
			return err
		})
	}
	if err := g.Wait(); err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}

func serve(ctx context.Context, a *app) error {
	log := a.log
	if a.cfg.AutoMigrate {
		if err := a.migrate(ctx); err != nil {
			return err
		}
	}

	d, err := connectDeps(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer d.close()

	checks := map[string]httpserver.Check{"postgres": pg.Healthcheck(a.pool)}

	var cache tenant.Cache
	if d.redis != nil {
		cache = tenant.NewRedisCache(d.redis, a.cfg.Redis.KeyPrefix)
		checks["redis"] = redis.Healthcheck(d.redis)
	} else if cache, err = tenant.NewMemoryCache(a.cfg.Tenant.CacheSize); err != nil {
		return err
	}
	directory := tenant.NewCachedDirectory(a.dir, cache, a.cfg.Tenant.CacheTTL)
	resolver := tenant.NewResolver(directory, append(a.cfg.Tenant.ResolverOptions(),
		tenant.WithResolverLogger(log.With(logger.Component("tenant_resolver"))))...)

	store, err := jobsStore(ctx, a, d)
	if err != nil {
		return err
	}
	if d.mongo != nil {
		checks["mongo"] = mongo.Healthcheck(d.mongo)
	}

	m := metrics.New(prometheus.NewRegistry())
	auditLog := m.AuditLogger(audit.NewLogger(audit.NewPgStorage(a.pool),
		audit.WithTenantIDExtractor(tenantIDString),
		audit.WithPrincipalIDExtractor(auth.PrincipalIDFromContext),
		audit.WithRequestIDExtractor(requestid.Lookup),
	))
	access := scoped.New[*jobs.Job](store,
		scoped.WithResource(jobs.Resource),
		scoped.WithLogger(log.With(logger.Component("jobs"))),
		scoped.WithAuditLogger(auditLog),
	)

	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware(), middleware.Recoverer)
	r.Get("/healthz", httpserver.LivenessHandler())
	r.Get("/readyz", httpserver.ReadinessHandler(log, a.cfg.ReadinessTimeout, checks))
	r.Handle("/metrics", m.Handler())
	r.Group(func(r chi.Router) {
		// outermost so auth and tenant rejections are counted too
		r.Use(m.Middleware)
		r.Use(auth.Middleware(auth.UserLoaderFunc(loadUser(a.dir)),
			auth.WithPrincipalHeader(a.cfg.PrincipalHeader),
			auth.WithLogger(log),
		))
		r.Use(tenant.Middleware(resolver,
			tenant.WithHeaderNames(a.cfg.Tenant.Headers()),
			tenant.WithPrincipalFunc(auth.PrincipalFromRequest),
			tenant.WithLogger(log),
		))
		r.Mount("/jobs", jobs.Router(access, jobs.RouterOptions{
			Principal: auth.PrincipalFromRequest,
			Logger:    log,
		}))
	})

	srv := httpserver.New(a.cfg.HTTP, httpserver.WithLogger(log))
	log.InfoContext(ctx, "starting tenancy api",
		slog.String("jobs_backend", string(a.cfg.JobsBackend)),
		slog.Bool("shared_cache", d.redis != nil),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, r) })
	g.Go(func() error { return m.CollectPoolStats(gctx, a.pool, a.cfg.PoolStatsInterval) })
	// deactivations made by other processes reach this instance's cache
	g.Go(func() error { return a.dir.WatchChanges(gctx, directory) })
	return g.Wait()
}

func jobsStore(ctx context.Context, a *app, d *deps) (scoped.Store[*jobs.Job], error) {
	switch a.cfg.JobsBackend {
	case BackendMemory:
		return scoped.NewMemoryStore[*jobs.Job](jobs.UniqueFields...), nil
	case BackendMongo:
		coll := d.mongo.Collection(jobsCollection)
		if err := mongostore.EnsureIndexes(ctx, coll, jobs.UniqueFields...); err != nil {
			return nil, err
		}
		return mongostore.New[*jobs.Job](coll), nil
	case BackendPostgres:
		store, err := sqlstore.New[*jobs.Job](pg.SQLX(a.pool), jobs.Table)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, ErrUnknownBackend
}

func loadUser(dir *tenantdir.Store) func(ctx context.Context, id string) (*auth.User, error) {
	return func(ctx context.Context, id string) (*auth.User, error) {
		p, err := dir.FindPrincipal(ctx, id)
		if errors.Is(err, tenantdir.ErrPrincipalNotFound) {
			return nil, auth.ErrUserNotFound
		}
		if err != nil {
			return nil, err
		}
		return &auth.User{ID: p.ID, Email: p.Email, HomeTenant: p.HomeTenantID, Super: p.Super}, nil
	}
}

func tenantIDString(ctx context.Context) (string, bool) {
	id, ok := tenant.IDFromContext(ctx)
	if !ok {
		return "", false
	}
	return id.String(), true
}
