package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var schemaUp = []string{
	`CREATE TABLE IF NOT EXISTS social_services (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		category VARCHAR(100) NOT NULL,
		address VARCHAR(500),
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		phone VARCHAR(50),
		website VARCHAR(500),
		operating_hours JSONB,
		eligibility_criteria JSONB,
		services_provided JSONB,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		last_verified TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS social_services_category_idx ON social_services (category)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		message TEXT NOT NULL,
		response TEXT,
		tools_used JSONB,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
		helpful BOOLEAN
	)`,
	`CREATE INDEX IF NOT EXISTS chat_messages_user_idx ON chat_messages (user_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS service_access (
		id BIGSERIAL PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		service_id BIGINT NOT NULL,
		service_name VARCHAR(255),
		access_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		contact_method VARCHAR(50),
		outcome VARCHAR(50),
		notes TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS service_access_user_idx ON service_access (user_id, access_date DESC)`,
}

var schemaDown = []string{
	`DROP TABLE IF EXISTS service_access`,
	`DROP TABLE IF EXISTS chat_messages`,
	`DROP TABLE IF EXISTS social_services`,
}

func createSchema(ctx context.Context, db *bun.DB) error {
	return execAll(ctx, db, schemaUp)
}

func dropSchema(ctx context.Context, db *bun.DB) error {
	return execAll(ctx, db, schemaDown)
}

func execAll(ctx context.Context, db *bun.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Migrations lists the schema history in apply order.
func Migrations() *migrate.Migrations {
	ms := migrate.NewMigrations()
	ms.Add(migrate.Migration{
		Name:    "20260301000000",
		Comment: "navigator_schema",
		Up:      createSchema,
		Down:    dropSchema,
	})
	return ms
}

// Migrate applies pending migrations under the bun migration lock.
func Migrate(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, Migrations())
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("postgres: init migrations: %w", err)
	}
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("postgres: lock migrations: %w", err)
	}
	defer func() {
		if err := migrator.Unlock(ctx); err != nil {
			log.Warn().Err(err).Msg("postgres: unlock migrations")
		}
	}()

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	if group.IsZero() {
		log.Info().Msg("postgres: schema up to date")
		return nil
	}
	log.Info().Str("group", group.String()).Msg("postgres: migrated")
	return nil
}
