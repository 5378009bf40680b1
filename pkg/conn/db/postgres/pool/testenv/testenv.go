package testenv

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/radstash/radstash/pkg/conn/db/postgres/pool"
)

// Dsn is the environment variable naming the database under test.
// Tests needing postgres are skipped when it is not set.
const Dsn = "RADSTASH_TEST_DSN"

type pg struct {
	pool *pgxpool.Pool
}

func (p *pg) GetPool(ctx context.Context, t *testing.T) kpool.Pool {
	t.Cleanup(func() {
		t.Helper()
		ClearTables(ctx, p.pool, t)
	})

	ClearTables(ctx, p.pool, t)
	return kpool.Wrap(p.pool)
}

// PoolBroaker is a interface to get a pool.
type PoolBroaker interface {
	// GetPool returns a pool.
	//
	// Tables are cleaned up before returning and after t.
	GetPool(ctx context.Context, t *testing.T) kpool.Pool
}

// NewPoolBroaker returns a PoolBroaker over the database named by
// RADSTASH_TEST_DSN, or skips t when the variable is not set.
//
// The database is expected to carry the current schema already
// (run cmd/schema_upgrader against it first).
func NewPoolBroaker(ctx context.Context, t *testing.T) PoolBroaker {
	t.Helper()

	dsn := os.Getenv(Dsn)
	if dsn == "" {
		t.Skipf("no database to test with: set %s to run this test", Dsn)
	}

	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)

	return &pg{pool: pool}
}

func ClearTables(ctx context.Context, p *pgxpool.Pool, t *testing.T) {
	t.Helper()

	conn, err := p.Acquire(ctx)
	if err != nil {
		t.Fatalf("fail to clean-up tables.: %v", err)
	}
	defer conn.Release()

	for _, command := range []string{
		`truncate "project" RESTART IDENTITY cascade`,
		`truncate "subject" RESTART IDENTITY cascade`,
		`truncate "study" RESTART IDENTITY cascade`,
		`truncate "series" RESTART IDENTITY cascade`,
		`truncate "file" RESTART IDENTITY cascade`,
		`truncate "aim" RESTART IDENTITY cascade`,
		`truncate "template" RESTART IDENTITY cascade`,
		`truncate "plugin" RESTART IDENTITY cascade`,
		`truncate "membership" RESTART IDENTITY cascade`,
		`truncate "facet_key" RESTART IDENTITY cascade`,
		`truncate "plugin_queue" RESTART IDENTITY cascade`,
		`truncate "garbage" RESTART IDENTITY cascade`,
		// facet, aim_facet, template_listing and template_summary rows
		// go with the cascade.
	} {
		_, err = conn.Exec(ctx, command)
		if err != nil {
			t.Errorf("fail to clean-up tables.: %v", err)
		}
	}
}
