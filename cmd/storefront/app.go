package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/invoice"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/mirror"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/profile"
)

// app holds the wired handler and everything that must be closed on exit.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires every backend named by cfg. On error the resources opened
// so far are closed before returning.
func buildApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	built := &app{}
	a, err := wire(ctx, cfg, logger, built)
	if err != nil {
		built.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, cfg config.Config, logger *zap.Logger, a *app) (*app, error) {
	var err error
	var (
		sqlDB *sql.DB
		pool  *pgxpool.Pool
	)
	if cfg.NeedsPostgres() {
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				return nil, fmt.Errorf("db migrate: %w", err)
			}
		}
		if sqlDB, err = db.Open(ctx, cfg.DatabaseDSN); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
	}

	// --- cart mirror ---
	var backend mirror.Backend
	switch cfg.Mirror {
	case config.BackendPostgres:
		if pool, err = db.NewPool(ctx, cfg.DatabaseDSN); err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		backend = mirror.NewPostgres(pool)
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		backend = mirror.NewRedis(client, cfg.RedisTTL)
	default:
		backend = mirror.NewMemory()
	}
	logger.Info("cart mirror ready", zap.String("backend", cfg.Mirror))

	// --- mongo, shared by catalog and profiles ---
	var mongoDB *mongo.Database
	if cfg.NeedsMongo() {
		client, err := connectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Disconnect(context.Background()) })
		mongoDB = client.Database(cfg.MongoDatabase)
	}

	// --- catalog ---
	var cat catalog.Catalog
	switch cfg.Catalog {
	case config.BackendMongo:
		cat = catalog.NewMongo(mongoDB)
	default:
		mem := catalog.NewMemory()
		if cfg.CatalogSeed != "" {
			seed, err := catalog.ReadSeedFile(cfg.CatalogSeed)
			if err != nil {
				return nil, err
			}
			if err := mem.Load(seed); err != nil {
				return nil, fmt.Errorf("load catalog seed: %w", err)
			}
		}
		cat = mem
	}

	// --- profiles ---
	var profiles profile.Repository = profile.NewMemoryRepository()
	if cfg.Profiles == config.BackendMongo {
		profiles = profile.NewMongoRepository(mongoDB)
	}

	// --- orders ---
	var orders order.Repository = order.NewMemoryRepository()
	if cfg.Orders == config.BackendPostgres {
		orders = order.NewRepository(sqlDB)
	}

	// --- events ---
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = conn.Close() })

		var seq events.SequenceRepository = events.NewMemorySequence()
		if sqlDB != nil {
			seq = events.NewSequenceRepository(sqlDB)
		}
		pub, err := newPublisher(conn, seq)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := pub.Close(); err != nil {
				logger.Warn("publisher close error", zap.Error(err))
			}
		})
		publisher = pub
	} else {
		logger.Info("event publishing disabled")
	}

	gateway := checkout.SandboxGateway{Decline: cfg.PaymentDecline}
	svc := checkout.NewService(gateway, orders, publisher, logger)

	sessions := httpapi.NewSessionRegistry(backend, logger, httpapi.WithSessionIdle(cfg.SessionIdle))
	h := httpapi.NewHandler(httpapi.HandlerDeps{
		Sessions: sessions,
		Catalog:  cat,
		Checkout: svc,
		Profiles: profile.NewService(profiles),
		Invoice:  invoice.Options{Currency: checkout.DefaultCurrency},
		Logger:   logger,
	})

	a.handler = httpapi.NewRouter(httpapi.Deps{
		Logger:           logger,
		Handler:          h,
		CheckoutLimiter:  httpapi.NewRateLimiter(cfg.CheckoutRate, cfg.CheckoutBurst),
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})
	return a, nil
}

func newPublisher(conn *amqp.Connection, seq events.SequenceRepository) (*events.RabbitPublisher, error) {
	pub, err := events.NewRabbitPublisher(conn, seq, events.PublisherOptions{})
	if err != nil {
		return nil, fmt.Errorf("create publisher: %w", err)
	}
	return pub, nil
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
