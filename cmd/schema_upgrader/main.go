package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/radstash/radstash/pkg/conn/db/postgres/pool"
	kpgschema "github.com/radstash/radstash/pkg/domain/schema/db/postgres"
)

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt, os.Kill,
	)
	defer cancel()

	dburi := flag.String("dburi", "", "connection string of the database")
	schemaRepo := flag.String("schema", "", "path to the schema repository directory")
	flag.Parse()

	if *dburi == "" || *schemaRepo == "" {
		flag.Usage()
		logger.Fatal("both -dburi and -schema are required")
	}

	pool, err := pgxpool.Connect(ctx, *dburi)
	if err != nil {
		logger.Fatalf("can not connect to the database: %s", err)
	}
	defer pool.Close()

	schema := kpgschema.New(kpool.Wrap(pool), *schemaRepo)

	before, err := schema.Version(ctx)
	if err != nil {
		logger.Fatalf("can not read schema version: %s", err)
	}
	logger.Printf("schema version: %d", before)

	if err := schema.Upgrade(ctx); err != nil {
		logger.Fatalf("schema upgrade failed: %s", err)
	}

	after, err := schema.Version(ctx)
	if err != nil {
		logger.Fatalf("can not read schema version: %s", err)
	}
	logger.Printf("schema upgraded: %d -> %d", before, after)
}
