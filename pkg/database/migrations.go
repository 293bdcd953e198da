package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ourskilllab/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		logger:     log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.logger.WithFields(map[string]interface{}{
			"version":     migration.Version,
			"description": migration.Description,
		}).Info("Running migration")

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Info("Reverting migration")

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}

		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(CollectionMigrations).FindOne(ctx, bson.D{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(CollectionMigrations).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)

	return err
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users indexes",
			Up:          createUsersIndexes,
			Down:        dropIndexes(CollectionUsers),
		},
		{
			Version:     2,
			Description: "Create courses indexes",
			Up:          createCoursesIndexes,
			Down:        dropIndexes(CollectionCourses),
		},
		{
			Version:     3,
			Description: "Create discounts indexes",
			Up:          createDiscountsIndexes,
			Down:        dropIndexes(CollectionDiscounts),
		},
		{
			Version:     4,
			Description: "Create enrollments indexes with one completed enrollment per user and course",
			Up:          createEnrollmentsIndexes,
			Down:        dropIndexes(CollectionEnrollments),
		},
		{
			Version:     5,
			Description: "Create subscription plans indexes",
			Up:          createSubscriptionPlansIndexes,
			Down:        dropIndexes(CollectionSubscriptionPlans),
		},
		{
			Version:     6,
			Description: "Create user subscriptions indexes with one active subscription per user",
			Up:          createUserSubscriptionsIndexes,
			Down:        dropIndexes(CollectionUserSubscriptions),
		},
	}
}

func dropIndexes(collection string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		_, err := db.Collection(collection).Indexes().DropAll(ctx)
		return err
	}
}

func createUsersIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "mobile", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	_, err := db.Collection(CollectionUsers).Indexes().CreateMany(ctx, indexes)
	return err
}

func createCoursesIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
	}

	_, err := db.Collection(CollectionCourses).Indexes().CreateMany(ctx, indexes)
	return err
}

func createDiscountsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := db.Collection(CollectionDiscounts).Indexes().CreateMany(ctx, indexes)
	return err
}

func createEnrollmentsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "course", Value: 1}},
			Options: options.Index().
				SetName("uniq_completed_enrollment").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"payment_status": "completed"}),
		},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "payment_date", Value: -1}}},
		{Keys: bson.D{{Key: "transaction_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := db.Collection(CollectionEnrollments).Indexes().CreateMany(ctx, indexes)
	return err
}

func createSubscriptionPlansIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "price", Value: 1}}},
	}

	_, err := db.Collection(CollectionSubscriptionPlans).Indexes().CreateMany(ctx, indexes)
	return err
}

func createUserSubscriptionsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_subscription").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "active"}),
		},
		{Keys: bson.D{{Key: "stripe_subscription_id", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := db.Collection(CollectionUserSubscriptions).Indexes().CreateMany(ctx, indexes)
	return err
}
