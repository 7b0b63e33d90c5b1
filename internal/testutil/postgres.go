// Package testutil provides test helpers, chiefly PostgreSQL container
// management for repository integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/avheur/dicedelve/internal/config"
	"github.com/avheur/dicedelve/internal/storage/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance.
type PostgresContainer struct {
	container testcontainers.Container
	Pool      *postgres.Pool
	RawPool   *pgxpool.Pool
	Config    config.DatabaseConfig
}

// NewPostgresContainer starts a PostgreSQL test container and returns
// a connected Pool.
//
// Precondition: Docker must be available.
// Postcondition: Returns a running container with a connected pool,
// or fails the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v [%s]", err, time.Since(start))
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("getting container host: %v", err)
	}

	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("getting mapped port: %v", err)
	}

	dbCfg := config.DatabaseConfig{
		Host:            host,
		Port:            mappedPort.Int(),
		User:            "test",
		Password:        "test",
		Name:            "test",
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
	}

	pool, err := postgres.NewPool(ctx, dbCfg)
	if err != nil {
		t.Fatalf("connecting to test postgres: %v [%s]", err, time.Since(start))
	}

	t.Logf("postgres container started [%s]", time.Since(start))

	pc := &PostgresContainer{
		container: container,
		Pool:      pool,
		RawPool:   pool.DB(),
		Config:    dbCfg,
	}

	t.Cleanup(func() {
		pool.Close()
		_ = container.Terminate(ctx)
	})

	return pc
}

// ApplyMigrations runs the schema creation SQL directly for tests.
// This avoids requiring the migrate tool in the test environment. The
// statements mirror migrations/ and must be kept in sync with it.
//
// Precondition: Pool must be connected.
func (pc *PostgresContainer) ApplyMigrations(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	start := time.Now()

	schema := `
		CREATE TABLE IF NOT EXISTS players (
			id         BIGSERIAL    PRIMARY KEY,
			name       VARCHAR(64)  NOT NULL UNIQUE,
			ledger     BYTEA        NOT NULL CHECK (octet_length(ledger) = 24),
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_players_name ON players (name);

		CREATE TABLE IF NOT EXISTS items (
			id            BIGSERIAL    PRIMARY KEY,
			player_id     BIGINT       NOT NULL REFERENCES players (id) ON DELETE CASCADE,
			kind          SMALLINT     NOT NULL CHECK (kind BETWEEN 0 AND 2),
			name          VARCHAR(128) NOT NULL,
			level         INTEGER      NOT NULL,
			vaulted       BOOLEAN      NOT NULL DEFAULT FALSE,
			equipped      BOOLEAN      NOT NULL DEFAULT FALSE,
			attack        INTEGER      NOT NULL DEFAULT 0,
			two_handed    BOOLEAN      NOT NULL DEFAULT FALSE,
			budget        BYTEA        NOT NULL CHECK (octet_length(budget) = 24),
			armor_health  INTEGER      NOT NULL DEFAULT 0,
			armor_defense INTEGER      NOT NULL DEFAULT 0,
			armor_speed   INTEGER      NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_items_player_shard ON items (player_id, vaulted);
		CREATE INDEX IF NOT EXISTS idx_items_player_equipped ON items (player_id) WHERE equipped;

		CREATE TABLE IF NOT EXISTS dungeons (
			id            UUID        PRIMARY KEY,
			player_id     BIGINT      NOT NULL UNIQUE REFERENCES players (id) ON DELETE CASCADE,
			floor         INTEGER     NOT NULL CHECK (floor >= 1),
			grid          BYTEA       NOT NULL CHECK (octet_length(grid) = 100),
			pos           SMALLINT    NOT NULL,
			boss_defeated BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS battles (
			id             UUID        PRIMARY KEY,
			dungeon_id     UUID        NOT NULL UNIQUE REFERENCES dungeons (id) ON DELETE CASCADE,
			boss           BOOLEAN     NOT NULL DEFAULT FALSE,
			return_pos     SMALLINT    NOT NULL,
			player_hp      INTEGER     NOT NULL,
			player_max_hp  INTEGER     NOT NULL,
			player_speed   INTEGER     NOT NULL,
			player_defense INTEGER     NOT NULL,
			player_attack  INTEGER     NOT NULL,
			attack_budget  BYTEA       NOT NULL CHECK (octet_length(attack_budget) = 24),
			defend_budget  BYTEA       NOT NULL CHECK (octet_length(defend_budget) = 24),
			player_guard   INTEGER     NOT NULL DEFAULT 0,
			player_init    BIGINT      NOT NULL,
			enemy_init     BIGINT      NOT NULL,
			enemy_name     VARCHAR(128) NOT NULL,
			enemy_hp       INTEGER     NOT NULL,
			enemy_max_hp   INTEGER     NOT NULL,
			enemy_speed    INTEGER     NOT NULL,
			enemy_defense  INTEGER     NOT NULL,
			enemy_guard    INTEGER     NOT NULL DEFAULT 0,
			enemy_value    BYTEA       NOT NULL CHECK (octet_length(enemy_value) = 24),
			enemy_pool     BYTEA       NOT NULL CHECK (octet_length(enemy_pool) = 24),
			enemy_spend    BYTEA       NOT NULL CHECK (octet_length(enemy_spend) = 24),
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`

	_, err := pc.RawPool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	t.Logf("migrations applied [%s]", time.Since(start))
}

// DSN returns the connection string for the test database.
func (pc *PostgresContainer) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pc.Config.User, pc.Config.Password,
		pc.Config.Host, pc.Config.Port,
		pc.Config.Name, pc.Config.SSLMode,
	)
}
