package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/sadeshahansana5-cloud/G-Create-Bot/config"
	"github.com/sadeshahansana5-cloud/G-Create-Bot/database"
)

// Names of the backing services the runner knows how to connect.
const (
	Postgres = "postgres"
	Redis    = "redis"
	Mongo    = "mongo"
)

// Dependency is a backing service the hosted application needs before it
// can serve traffic.
type Dependency interface {
	Name() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// DependencyError reports which backing service failed to come up.
type DependencyError struct {
	Name string
	Err  error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// Dependencies is the set of connected backing services.
type Dependencies struct {
	list  []Dependency
	redis *redis.Client
}

// NewDependencies wraps already-connected dependencies. Used by tests and by
// callers that manage their own clients.
func NewDependencies(deps ...Dependency) *Dependencies {
	return &Dependencies{list: deps}
}

// All returns the connected dependencies in connection order.
func (d *Dependencies) All() []Dependency {
	if d == nil {
		return nil
	}
	return d.list
}

// Redis returns the Redis client when Redis is configured, nil otherwise.
func (d *Dependencies) Redis() *redis.Client {
	if d == nil {
		return nil
	}
	return d.redis
}

// Close disconnects every dependency in reverse order and joins the errors.
func (d *Dependencies) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	var errs []error
	for i := len(d.list) - 1; i >= 0; i-- {
		if err := d.list[i].Close(ctx); err != nil {
			errs = append(errs, &DependencyError{Name: d.list[i].Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// Connect opens and verifies every backing service named in cfg. Services
// without configuration are skipped. On the first failure, services opened
// so far are closed and a *DependencyError is returned.
func Connect(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	fail := func(name string, err error) (*Dependencies, error) {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.DependencyTimeout)
		defer cancel()
		_ = deps.Close(closeCtx)
		return nil, &DependencyError{Name: name, Err: err}
	}

	if cfg.DatabaseURL != "" {
		dep, err := connectPostgres(ctx, cfg)
		if err != nil {
			return fail(Postgres, err)
		}
		deps.list = append(deps.list, dep)
	}

	if cfg.RedisURL != "" {
		dep, err := connectRedis(ctx, cfg)
		if err != nil {
			return fail(Redis, err)
		}
		deps.list = append(deps.list, dep)
		deps.redis = dep.client
	}

	if cfg.MongoURI != "" {
		dep, err := connectMongo(ctx, cfg)
		if err != nil {
			return fail(Mongo, err)
		}
		deps.list = append(deps.list, dep)
	}

	return deps, nil
}

type postgresDependency struct {
	pool *pgxpool.Pool
}

func connectPostgres(ctx context.Context, cfg *config.Config) (*postgresDependency, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DependencyTimeout)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL, cfg.ServiceName, cfg.DependencyTimeout)
	if err != nil {
		return nil, err
	}
	return &postgresDependency{pool: pool}, nil
}

func (p *postgresDependency) Name() string { return Postgres }

func (p *postgresDependency) Ping(ctx context.Context) error {
	return database.HealthCheck(ctx, p.pool)
}

func (p *postgresDependency) Close(context.Context) error {
	p.pool.Close()
	return nil
}

type redisDependency struct {
	client *redis.Client
}

func connectRedis(ctx context.Context, cfg *config.Config) (*redisDependency, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisURL,
		Password:    cfg.RedisPassword,
		DB:          0,
		DialTimeout: cfg.DependencyTimeout,
		ReadTimeout: cfg.DependencyTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.DependencyTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &redisDependency{client: client}, nil
}

func (r *redisDependency) Name() string { return Redis }

func (r *redisDependency) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisDependency) Close(context.Context) error {
	return r.client.Close()
}

type mongoDependency struct {
	client *mongo.Client
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongoDependency, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.DependencyTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName(cfg.ServiceName).
		SetConnectTimeout(cfg.DependencyTimeout).
		SetServerSelectionTimeout(cfg.DependencyTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}
	return &mongoDependency{client: client}, nil
}

func (m *mongoDependency) Name() string { return Mongo }

func (m *mongoDependency) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *mongoDependency) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
