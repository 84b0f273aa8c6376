// Package testhelpers stands up throwaway Postgres and MySQL servers
// for integration tests. Containers are shared across the test run and
// the Postgres one is seeded with the two-tenant demo schema.
package testhelpers

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	postgresImage = "postgres:16-alpine"
	mysqlImage    = "mysql:8.4"

	dbUser     = "fleet"
	dbPassword = "fleet_test_password"
	dbName     = "test"
)

// PostgresDB describes a running Postgres test container. HostURL is
// the registry-format host URL (no database path).
type PostgresDB struct {
	Container testcontainers.Container
	HostURL   string
	Database  string
}

// MySQLDB describes a running MySQL test container. HostURL is the
// go-sql-driver prefix form user:pass@tcp(host:port).
type MySQLDB struct {
	Container testcontainers.Container
	HostURL   string
	Database  string
}

var (
	pgOnce sync.Once
	pgDB   *PostgresDB
	pgErr  error

	mysqlOnce sync.Once
	mysqlDB   *MySQLDB
	mysqlErr  error
)

// GetPostgresDB returns a shared Postgres container seeded with the
// test1/test2 tenant schemas. Created once per test run.
func GetPostgresDB(t *testing.T) *PostgresDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	pgOnce.Do(func() {
		pgDB, pgErr = setupPostgres()
	})
	if pgErr != nil {
		t.Fatalf("Failed to setup Postgres container: %v", pgErr)
	}
	return pgDB
}

// GetMySQLDB returns a shared MySQL container with an empty test
// database. Created once per test run.
func GetMySQLDB(t *testing.T) *MySQLDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	mysqlOnce.Do(func() {
		mysqlDB, mysqlErr = setupMySQL()
	})
	if mysqlErr != nil {
		t.Fatalf("Failed to setup MySQL container: %v", mysqlErr)
	}
	return mysqlDB
}

func setupPostgres() (*PostgresDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       dbName,
			"POSTGRES_USER":     dbUser,
			"POSTGRES_PASSWORD": dbPassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	hostURL := fmt.Sprintf("postgres://%s:%s@%s:%s", dbUser, dbPassword, host, port.Port())

	if err := applyMigrations(hostURL + "/" + dbName); err != nil {
		return nil, err
	}

	return &PostgresDB{Container: container, HostURL: hostURL, Database: dbName}, nil
}

// applyMigrations seeds the tenant schemas through golang-migrate so
// the fixture matches how a real deployment would bootstrap.
func applyMigrations(connStr string) error {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return fmt.Errorf("failed to open migration connection: %w", err)
	}
	defer db.Close()

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func setupMySQL() (*MySQLDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        mysqlImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_DATABASE":      dbName,
			"MYSQL_USER":          dbUser,
			"MYSQL_PASSWORD":      dbPassword,
			"MYSQL_ROOT_PASSWORD": dbPassword,
		},
		WaitingFor: wait.ForLog("ready for connections").
			WithOccurrence(2).
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start mysql container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}

	hostURL := fmt.Sprintf("%s:%s@tcp(%s:%s)", dbUser, dbPassword, host, port.Port())

	return &MySQLDB{Container: container, HostURL: hostURL, Database: dbName}, nil
}
