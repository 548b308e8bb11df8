package database

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func testConfig() *PostgresConfig {
	cfg := DefaultPostgresConfig()

	if host := os.Getenv("TEST_POSTGRES_HOST"); host != "" {
		cfg.Host = host
	}
	if user := os.Getenv("TEST_POSTGRES_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("TEST_POSTGRES_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if dbname := os.Getenv("TEST_POSTGRES_DATABASE"); dbname != "" {
		cfg.Database = dbname
	}
	return cfg
}

func integrationDB(t *testing.T) *PostgresDB {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	db, err := NewPostgres(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestDefaultPostgresConfig(t *testing.T) {
	cfg := DefaultPostgresConfig()

	if cfg.Host != "localhost" || cfg.Port != 5432 {
		t.Errorf("addr = %s:%d, want localhost:5432", cfg.Host, cfg.Port)
	}
	if cfg.MaxConns != 25 || cfg.MinConns != 5 {
		t.Errorf("pool = %d/%d, want 25/5", cfg.MaxConns, cfg.MinConns)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.MaxRetries)
	}
}

func TestPostgresConfigDSN(t *testing.T) {
	cfg := &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "fosho",
		Password: "secret",
		Database: "fosho",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=fosho password=secret dbname=fosho sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestNewPostgresUnreachableHost(t *testing.T) {
	cfg := &PostgresConfig{
		Host:           "invalid-host-that-does-not-exist",
		Port:           9999,
		User:           "fosho",
		Password:       "secret",
		Database:       "fosho",
		SSLMode:        "disable",
		MaxRetries:     0,
		RetryInterval:  100 * time.Millisecond,
		ConnectTimeout: 1 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := NewPostgres(ctx, cfg); err == nil {
		t.Error("expected error for unreachable host, got nil")
	}
}

// Integration tests run against a live database with INTEGRATION_TEST=true.

func TestMigrateAndSchema_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	if err := db.HealthCheck(ctx); err != nil {
		t.Fatalf("health check: %v", err)
	}
	if err := Migrate(ctx, db.Pool()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Running twice must be a no-op.
	if err := Migrate(ctx, db.Pool()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	defer db.Exec(ctx, "DELETE FROM communities WHERE seed = $1", "db-test-seed")

	err := db.Exec(ctx, `
		INSERT INTO communities (id, seed, authority, name, events_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
	`, "11111111-1111-1111-1111-111111111111", "db-test-seed", "carol", "DB Test")
	if err != nil {
		t.Fatalf("insert community: %v", err)
	}

	// The seed column carries the uniqueness the derivation relies on.
	err = db.Exec(ctx, `
		INSERT INTO communities (id, seed, authority, name, events_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 0, NOW(), NOW())
	`, "22222222-2222-2222-2222-222222222222", "db-test-seed", "mallory", "Copycat")
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		t.Errorf("duplicate seed: got %v, want unique violation", err)
	}
}

func TestLedgerGuard_Integration(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	if err := Migrate(ctx, db.Pool()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	defer db.Exec(ctx, "DELETE FROM account_balances WHERE account = $1", "db-test-account")

	tx, err := db.BeginTx(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO account_balances (account, balance) VALUES ($1, $2)
	`, "db-test-account", 100)
	if err != nil {
		tx.Rollback(ctx)
		t.Fatalf("credit: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// The balance check constraint refuses an uncovered debit.
	err = db.Exec(ctx, `
		UPDATE account_balances SET balance = balance - $2 WHERE account = $1
	`, "db-test-account", 500)
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23514" {
		t.Errorf("uncovered debit: got %v, want check violation", err)
	}

	var balance int64
	err = db.QueryRow(ctx, `
		SELECT balance FROM account_balances WHERE account = $1
	`, "db-test-account").Scan(&balance)
	if err != nil || balance != 100 {
		t.Errorf("balance = %d, %v, want 100 intact", balance, err)
	}
}

func TestPostgresClose(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()

	if !db.IsConnected(ctx) {
		t.Error("expected IsConnected before Close")
	}
	if db.Stats() == nil {
		t.Error("expected pool stats")
	}

	db.Close()
	if err := db.Ping(ctx); err == nil {
		t.Error("expected Ping to fail after Close")
	}
}
