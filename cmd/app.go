package cmd

import (
	"context"
	"errors"
	"fmt"

	"practice-service/internal/adaptive"
	"practice-service/internal/config"
	mongodb "practice-service/internal/database/mongo"
	"practice-service/internal/logger"
	"practice-service/internal/repository"
	"practice-service/internal/repository/sqlstore"
	"practice-service/internal/selection"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

// stores bundles the persistence backends selected by STORAGE_DRIVER.
type stores struct {
	catalog  repository.Catalog
	mastery  repository.MasteryStore
	attempts repository.AttemptStore

	migrate func(ctx context.Context) error
	closers []func() error
}

func openStores(ctx context.Context, cfg *config.Config, policy *adaptive.Manager, log *logger.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		log.Info("connected to MongoDB", "database", cfg.MongoDB.Database)
		return mongoStores(client, db, policy), nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := sqlstore.Open(cfg.Storage.Driver, cfg.SQL.DSN, log)
		if err != nil {
			return nil, err
		}
		log.Info("connected to SQL database", "driver", cfg.Storage.Driver)
		return sqlStores(db, policy), nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}

func mongoStores(client *mongo.Client, db *mongo.Database, policy *adaptive.Manager) *stores {
	questions := repository.NewQuestionRepository(db)
	mastery := repository.NewMasteryRepository(db, policy)
	attempts := repository.NewAttemptRepository(db)
	return &stores{
		catalog:  questions,
		mastery:  mastery,
		attempts: attempts,
		migrate: func(ctx context.Context) error {
			return errors.Join(
				questions.InitializeIndexes(ctx),
				mastery.InitializeIndexes(ctx),
				attempts.InitializeIndexes(ctx),
			)
		},
		closers: []func() error{func() error { return mongodb.Disconnect(client) }},
	}
}

func sqlStores(db *gorm.DB, policy *adaptive.Manager) *stores {
	return &stores{
		catalog:  sqlstore.NewCatalog(db),
		mastery:  sqlstore.NewMasteryStore(db, policy),
		attempts: sqlstore.NewAttemptStore(db),
		migrate: func(context.Context) error {
			return sqlstore.Migrate(db)
		},
		closers: []func() error{func() error { return sqlstore.Close(db) }},
	}
}

func (s *stores) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

func newPoolManager(s *stores, policy *adaptive.Manager, log *logger.Logger) *selection.PoolManager {
	return selection.NewPoolManager(s.catalog, s.mastery, s.attempts, policy, log)
}
