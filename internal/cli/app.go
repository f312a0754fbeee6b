package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/afaf/accounts/internal/core/ports"
	"github.com/afaf/accounts/internal/core/security"
	"github.com/afaf/accounts/internal/core/service"
	"github.com/afaf/accounts/internal/infrastructure/db/mongo"
	"github.com/afaf/accounts/internal/infrastructure/db/postgres"
	"github.com/afaf/accounts/internal/infrastructure/db/redis"
	"github.com/afaf/accounts/internal/pkg/config"
	"github.com/afaf/accounts/pkg/logger"
)

// app holds the process-wide collaborators shared by the server and tasks.
type app struct {
	cfg *config.Config
	log zerolog.Logger

	storeName string
	accounts  ports.AccountRepository
	events    ports.AuditRepository

	mongoClient *mongodriver.Client
	pgPool      *pgxpool.Pool
	rdb         *goredis.Client
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
		File:   cfg.LogFile(),
	})

	return &app{cfg: cfg, log: log}, nil
}

// openStore connects the account store selected by STORE_DRIVER.
func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.Store {
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, postgres.Config{
			URL:      a.cfg.Postgres.URL,
			MaxConns: a.cfg.Postgres.MaxConns,
		})
		if err != nil {
			return err
		}
		a.pgPool = pool
		a.storeName = "postgres"
		a.accounts = postgres.NewAccountRepository(pool)
		a.events = postgres.NewEventRepository(pool)
	default:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      a.cfg.Mongo.URI,
			Database: a.cfg.Mongo.Database,
			AppName:  "accounts",
		})
		if err != nil {
			return err
		}
		a.mongoClient = client
		a.storeName = "mongodb"
		a.accounts = mongo.NewAccountRepository(db)
		a.events = mongo.NewEventRepository(db)
	}

	a.log.Info().Str("store", a.storeName).Msg("account store connected")
	return nil
}

// migrate prepares the selected store's schema or indexes. Idempotent.
func (a *app) migrate(ctx context.Context) error {
	switch {
	case a.pgPool != nil:
		return postgres.Migrate(ctx, a.pgPool)
	case a.mongoClient != nil:
		repo, ok := a.accounts.(*mongo.AccountRepository)
		if !ok {
			return fmt.Errorf("migrate: unexpected repository %T", a.accounts)
		}
		return repo.EnsureIndexes(ctx)
	}
	return fmt.Errorf("migrate: store not opened")
}

func (a *app) openRedis(ctx context.Context) error {
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	a.rdb = rdb
	return nil
}

func (a *app) tokenService() (*security.TokenService, error) {
	return security.NewTokenService(a.cfg.Auth.JWTSecret, a.cfg.TokenTTL())
}

func (a *app) accountService(tokens *security.TokenService, opts ...service.Option) *service.AccountService {
	return service.NewAccountService(
		a.accounts,
		security.NewBcryptHasher(a.cfg.Auth.BcryptCost),
		tokens,
		a.log.With().Str("component", "account_service").Logger(),
		opts...,
	)
}

func (a *app) close(ctx context.Context) {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn().Err(err).Msg("redis close")
		}
	}
	if a.pgPool != nil {
		a.pgPool.Close()
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("mongo disconnect")
		}
	}
}
