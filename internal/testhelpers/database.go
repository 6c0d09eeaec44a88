package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "disabled"})
}

// SetupTestDatabase returns a migrated in-memory SQLite database private to the test.
func SetupTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// postgresContainer holds the connection settings of a started container.
type postgresContainer struct {
	host, port, user, password, name string
}

func (p postgresContainer) url() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", p.user, p.password, p.host, p.port, p.name)
}

// startPostgres runs a PostgreSQL container for the lifetime of the test. The
// test is skipped when docker is unavailable.
func startPostgres(t *testing.T) postgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-based test in short mode")
	}
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed, skipping container-based test")
	}

	pc := postgresContainer{user: "foodgram", password: "foodgram", name: "foodgram_test"}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     pc.user,
				"POSTGRES_PASSWORD": pc.password,
				"POSTGRES_DB":       pc.name,
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
					return postgresContainer{host: host, port: port.Port(), user: pc.user, password: pc.password, name: pc.name}.url()
				}),
			).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("failed to terminate container: %v", err)
		}
	})

	if pc.host, err = container.Host(ctx); err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	mappedPort, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}
	pc.port = mappedPort.Port()
	return pc
}

// SetupPostgresDatabase starts a PostgreSQL container and returns a migrated
// gorm connection.
func SetupPostgresDatabase(t *testing.T) *gorm.DB {
	t.Helper()
	pc := startPostgres(t)

	db, err := database.Open(config.DatabaseConfig{
		Driver:          "postgres",
		Host:            pc.host,
		Port:            pc.port,
		User:            pc.user,
		Password:        pc.password,
		Name:            pc.name,
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
	})
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SetupPostgresSQL starts an empty PostgreSQL container and returns a plain
// lib/pq connection, for exercising the SQL migrations.
func SetupPostgresSQL(t *testing.T) *sql.DB {
	t.Helper()
	pc := startPostgres(t)

	db, err := sql.Open("postgres", pc.url())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}
	return db
}
