package e2e_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	testPool     *pgxpool.Pool
	testPoolOnce sync.Once
	testCleanup  func()
	testDSN      string
)

// getSharedPostgresDatabase returns the DSN of a PostgreSQL container shared
// by every E2E test. TestMain terminates it.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()

	testPoolOnce.Do(func() {
		ctx := context.Background()

		pgContainer, err := pgcontainer.Run(ctx,
			"postgres:18-alpine",
			pgcontainer.WithDatabase("folio"),
			pgcontainer.WithUsername("folio"),
			pgcontainer.WithPassword("folio"),
			pgcontainer.BasicWaitStrategies(),
		)
		if err != nil {
			t.Fatalf("failed to start postgres container: %v", err)
		}

		testCleanup = func() {
			if testPool != nil {
				testPool.Close()
			}
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				fmt.Fprintf(os.Stderr, "failed to terminate container: %s\n", err)
			}
		}

		connectionStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			testCleanup()
			t.Fatalf("failed to get connection string: %v", err)
		}

		pool, err := pgxpool.New(ctx, connectionStr)
		if err != nil {
			testCleanup()
			t.Fatalf("could not connect to database: %v", err)
		}
		if err := pool.Ping(ctx); err != nil {
			testCleanup()
			t.Fatalf("could not ping database: %v", err)
		}

		testPool = pool
		testDSN = connectionStr
	})

	if testDSN == "" {
		t.Fatal("postgres container is not available")
	}
	return testDSN
}
