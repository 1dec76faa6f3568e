package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/storefront/order-service/internal/db"
)

const (
	dbUser     = "order_user"
	dbPassword = "order_pass"
	dbName     = "orders"
)

// PostgresHandles bundles the two database handles the service uses.
type PostgresHandles struct {
	Pool *pgxpool.Pool
	DB   *sqlx.DB
	DSN  string
}

// StartPostgres launches a temporary Postgres container, applies the
// embedded migrations, and returns connected handles. Cleanup is
// registered with t.Cleanup.
func StartPostgres(t *testing.T) PostgresHandles {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     dbUser,
			"POSTGRES_PASSWORD": dbPassword,
			"POSTGRES_DB":       dbName,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cleanupCancel()
		_ = container.Terminate(cleanupCtx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + host + ":" + mappedPort.Port() + "/" + dbName + "?sslmode=disable"

	waitForMigrations(t, dsn)

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	sqlDB, err := db.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return PostgresHandles{Pool: pool, DB: sqlDB, DSN: dsn}
}

func waitForMigrations(t *testing.T, dsn string) {
	t.Helper()

	deadline := time.Now().Add(30 * time.Second)
	for {
		err := db.RunMigrations(dsn, zerolog.Nop())
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout applying migrations: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}
