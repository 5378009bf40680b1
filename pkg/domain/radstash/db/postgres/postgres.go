package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/radstash/radstash/pkg/conn/db/postgres/pool"
	kfacet "github.com/radstash/radstash/pkg/domain/facet/db"
	kpgfacet "github.com/radstash/radstash/pkg/domain/facet/db/postgres"
	kgarbage "github.com/radstash/radstash/pkg/domain/garbage/db"
	kpggarbage "github.com/radstash/radstash/pkg/domain/garbage/db/postgres"
	kgraph "github.com/radstash/radstash/pkg/domain/graph/db"
	kpggraph "github.com/radstash/radstash/pkg/domain/graph/db/postgres"
	kplugin "github.com/radstash/radstash/pkg/domain/plugin/db"
	kpgplugin "github.com/radstash/radstash/pkg/domain/plugin/db/postgres"
	kproject "github.com/radstash/radstash/pkg/domain/project/db"
	kpgproject "github.com/radstash/radstash/pkg/domain/project/db/postgres"
	dbInterface "github.com/radstash/radstash/pkg/domain/radstash/db"
	kschema "github.com/radstash/radstash/pkg/domain/schema/db"
	kpgschema "github.com/radstash/radstash/pkg/domain/schema/db/postgres"
)

type radstashDBPostgres struct {
	pool    *pgxpool.Pool
	graph   kgraph.GraphInterface
	project kproject.ProjectInterface
	facet   kfacet.FacetInterface
	queue   kplugin.QueueInterface
	garbage kgarbage.GarbageInterface
	schema  kschema.SchemaInterface
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.RadstashDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	c := Config{}
	for _, option := range options {
		c = *option(&c)
	}

	p := kpool.Wrap(pool)
	var schema kschema.SchemaInterface = kpgschema.Null()
	if c.SchemaRepository != "" {
		schema = kpgschema.New(p, c.SchemaRepository)
	}

	return &radstashDBPostgres{
		pool:    pool,
		graph:   kpggraph.New(p),
		project: kpgproject.New(p),
		facet:   kpgfacet.New(p),
		queue:   kpgplugin.New(p),
		garbage: kpggarbage.New(p),
		schema:  schema,
	}, nil
}

func (r *radstashDBPostgres) Graph() kgraph.GraphInterface {
	return r.graph
}

func (r *radstashDBPostgres) Project() kproject.ProjectInterface {
	return r.project
}

func (r *radstashDBPostgres) Facet() kfacet.FacetInterface {
	return r.facet
}

func (r *radstashDBPostgres) Queue() kplugin.QueueInterface {
	return r.queue
}

func (r *radstashDBPostgres) Garbage() kgarbage.GarbageInterface {
	return r.garbage
}

func (r *radstashDBPostgres) Schema() kschema.SchemaInterface {
	return r.schema
}

func (r *radstashDBPostgres) Close() error {
	r.pool.Close()
	return nil
}
