package di

import (
	"context"
	"fmt"

	"github.com/Fosho-App/fosho-v1/internal/eligibility"
	"github.com/Fosho-App/fosho-v1/internal/escrow"
	"github.com/Fosho-App/fosho-v1/internal/events"
	"github.com/Fosho-App/fosho-v1/internal/handler"
	"github.com/Fosho-App/fosho-v1/internal/registry"
	"github.com/Fosho-App/fosho-v1/internal/repository"
	"github.com/Fosho-App/fosho-v1/internal/service"
	"github.com/Fosho-App/fosho-v1/pkg/config"
	"github.com/Fosho-App/fosho-v1/pkg/database"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	pkgredis "github.com/Fosho-App/fosho-v1/pkg/redis"
)

// Container holds all dependencies for the service
type Container struct {
	Config *config.Config
	Logger *logger.Logger

	// Infrastructure
	DB        *database.PostgresDB
	Redis     *pkgredis.Client
	Publisher events.Publisher

	// Repositories
	CommunityRepo repository.CommunityRepository
	EventRepo     repository.EventRepository
	AttendeeRepo  repository.AttendeeRepository
	TicketRepo    repository.TicketRepository

	// Registries
	Metadata     registry.EventMetadata
	ReadMetadata registry.EventMetadata
	Tickets      registry.TicketRegistry
	Collectibles registry.CollectibleRegistry

	// Escrow
	Accountant *escrow.Accountant

	// Services
	CommunityService  service.CommunityService
	EventService      service.EventService
	AttendanceService service.AttendanceService
	ClaimService      service.ClaimService

	// Handlers
	HealthHandler    *handler.HealthHandler
	CommunityHandler *handler.CommunityHandler
	EventHandler     *handler.EventHandler
	AttendeeHandler  *handler.AttendeeHandler
}

// NewContainer builds the full dependency graph from configuration.
func NewContainer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: log,
	}

	db, err := database.NewPostgres(ctx, &database.PostgresConfig{
		Host:           cfg.Database.Host,
		Port:           cfg.Database.Port,
		User:           cfg.Database.User,
		Password:       cfg.Database.Password,
		Database:       cfg.Database.DBName,
		SSLMode:        cfg.Database.SSLMode,
		MaxConns:       int32(cfg.Database.MaxConns),
		MinConns:       int32(cfg.Database.MinConns),
		MaxRetries:     cfg.Database.MaxRetries,
		RetryInterval:  cfg.Database.RetryInterval,
		ConnectTimeout: cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	c.DB = db

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, db.Pool()); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	if cfg.Redis.Enabled {
		rdb, err := pkgredis.NewClient(ctx, &pkgredis.Config{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		c.Redis = rdb
	}

	if cfg.Kafka.Enabled {
		pub, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return nil, fmt.Errorf("kafka: %w", err)
		}
		c.Publisher = pub
	} else {
		c.Publisher = events.NopPublisher{}
	}

	pool := db.Pool()

	// Repositories
	c.CommunityRepo = repository.NewPostgresCommunityRepository(pool)
	c.EventRepo = repository.NewPostgresEventRepository(pool)
	c.AttendeeRepo = repository.NewPostgresAttendeeRepository(pool)
	c.TicketRepo = repository.NewPostgresTicketRepository(pool)

	// Registries. Services write through the uncached store so
	// attribute reads inside a transaction always see committed state;
	// the cached variant serves the display read path only.
	c.Metadata = registry.NewPostgresEventMetadata(pool)
	c.ReadMetadata = c.Metadata
	if c.Redis != nil {
		c.ReadMetadata = registry.NewCachedEventMetadata(c.Metadata, c.Redis, log.Logger)
	}
	c.Tickets = registry.NewPostgresTicketRegistry(pool)
	c.Collectibles = registry.NewPostgresCollectibleRegistry(pool)

	// Escrow
	ledger := escrow.NewPostgresNativeLedger(pool)
	assets := escrow.NewPostgresAssetTransferService(pool)
	c.Accountant = escrow.NewAccountant(ledger, assets)

	gate := eligibility.NewGate(c.Collectibles, assets)
	tx := repository.NewTxRunner(pool)
	clock := service.SystemClock()

	// Services
	c.CommunityService = service.NewCommunityService(c.CommunityRepo, c.Publisher, clock, log)
	c.EventService = service.NewEventService(tx, c.CommunityRepo, c.EventRepo, c.Metadata,
		c.Accountant, c.Publisher, clock, log)
	c.AttendanceService = service.NewAttendanceService(tx, c.CommunityRepo, c.EventRepo,
		c.AttendeeRepo, c.TicketRepo, c.Metadata, c.Tickets, gate, c.Accountant,
		c.Publisher, clock, log, cfg.Policy.RejectOnCancelled)
	c.ClaimService = service.NewClaimService(tx, c.CommunityRepo, c.EventRepo,
		c.AttendeeRepo, c.TicketRepo, c.Metadata, c.Accountant, c.Publisher, clock, log)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.CommunityHandler = handler.NewCommunityHandler(c.CommunityService, log)
	c.EventHandler = handler.NewEventHandler(c.EventService, c.ReadMetadata, log)
	c.AttendeeHandler = handler.NewAttendeeHandler(c.AttendanceService, c.ClaimService, log)

	return c, nil
}

// Close releases the container's infrastructure resources.
func (c *Container) Close() {
	if c.Publisher != nil {
		c.Publisher.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Client.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
