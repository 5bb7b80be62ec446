package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/Ashwinpatel7/Eazyvenue/internal/config"
	"github.com/Ashwinpatel7/Eazyvenue/internal/database"
	"github.com/Ashwinpatel7/Eazyvenue/internal/lock"
	"github.com/Ashwinpatel7/Eazyvenue/internal/queue"
	"github.com/Ashwinpatel7/Eazyvenue/internal/repository"
	"github.com/Ashwinpatel7/Eazyvenue/internal/service"
)

// stores bundles the repositories chosen by DB_DRIVER.
type stores struct {
	venues   repository.VenueRepository
	bookings repository.BookingRepository
	db       *sql.DB
}

func (s stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// openStores returns in-memory repositories for the memory driver and SQL
// repositories otherwise, migrating the schema first when migrateUp is set.
func openStores(ctx context.Context, cfg config.Config, migrateUp bool) (stores, error) {
	if cfg.DBDriver == config.DriverMemory {
		mem := repository.NewMemoryStore()
		return stores{venues: mem.Venues(), bookings: mem.Bookings()}, nil
	}
	db, err := database.Open(cfg)
	if err != nil {
		return stores{}, err
	}
	if migrateUp {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return stores{}, err
		}
	}
	return stores{
		venues:   repository.NewSQLVenueRepo(db),
		bookings: repository.NewSQLBookingRepo(db),
		db:       db,
	}, nil
}

// newLocker picks the venue lock. The redis backend needs a reachable
// server; the local one only serialises requests within this process.
func newLocker(cfg config.Config, rdb *redis.Client) (lock.Locker, error) {
	switch cfg.LockBackend {
	case config.LockRedis:
		if rdb == nil {
			return nil, errors.New("lock: LOCK_BACKEND=redis but redis is unreachable")
		}
		return lock.NewRedisLocker(rdb, "lock", cfg.LockTTL, cfg.LockWait), nil
	case config.LockLocal:
		return lock.NewKeyedMutex(cfg.LockWait), nil
	default:
		return nil, fmt.Errorf("lock: unknown backend %q", cfg.LockBackend)
	}
}

// eventOptions attaches a RabbitMQ publisher when RABBITMQ_URL is set. A
// broker that is down at startup disables events rather than the API.
func eventOptions(cfg config.Config) ([]service.Option, func()) {
	if cfg.RabbitURL == "" {
		return nil, func() {}
	}
	pub, err := queue.NewPublisher(cfg.RabbitURL, cfg.EventsQueue)
	if err != nil {
		log.Printf("WARN: booking events disabled: %v", err)
		return nil, func() {}
	}
	return []service.Option{service.WithEvents(pub)}, func() { _ = pub.Close() }
}
