package radstash

import (
	"context"

	rconf "github.com/radstash/radstash/pkg/configs/server"
	"github.com/radstash/radstash/pkg/domain/archive"
	"github.com/radstash/radstash/pkg/domain/archive/dicomweb"
	"github.com/radstash/radstash/pkg/domain/facet"
	"github.com/radstash/radstash/pkg/domain/garbage"
	"github.com/radstash/radstash/pkg/domain/graph"
	"github.com/radstash/radstash/pkg/domain/plugin"
	"github.com/radstash/radstash/pkg/domain/project"
	"github.com/radstash/radstash/pkg/domain/radstash/db/postgres"
	"github.com/radstash/radstash/pkg/domain/schema"
	"github.com/radstash/radstash/pkg/domain/store"
	"github.com/radstash/radstash/pkg/domain/store/filesystem"
	"github.com/radstash/radstash/pkg/domain/store/memory"
)

type Radstash interface {
	Config() *rconf.RadstashConfig

	Graph() graph.Interface
	Project() project.Interface
	Facet() facet.Interface
	Plugin() plugin.Interface
	Garbage() garbage.Interface

	Schema() schema.Interface
	Store() store.Store
	Archive() archive.Archive

	Close() error
}

type radstash struct {
	config *rconf.RadstashConfig

	graph   graph.Interface
	project project.Interface
	facet   facet.Interface
	plugin  plugin.Interface
	garbage garbage.Interface

	schema  schema.Interface
	store   store.Store
	archive archive.Archive

	close func() error
}

func New(
	ctx context.Context,
	config *rconf.RadstashConfig,
	options ...Option,
) (Radstash, error) {
	opt := &_options{}
	for _, o := range options {
		o(opt)
	}

	if config.SchemaRepository() != "" {
		opt.pg = append(opt.pg, postgres.WithSchemaRepository(config.SchemaRepository()))
	}

	pg, err := postgres.New(ctx, config.Database(), opt.pg...)
	if err != nil {
		return nil, err
	}

	var st store.Store
	switch config.Store().Kind() {
	case rconf.StoreKindMemory:
		st = memory.New()
	default:
		st, err = filesystem.New(config.Store().Root())
		if err != nil {
			pg.Close()
			return nil, err
		}
	}

	var arch archive.Archive
	if a := config.Archive(); a != nil {
		arch = dicomweb.New(a.Endpoint())
	}

	return &radstash{
		config: config,

		graph:   graph.New(pg.Graph()),
		project: project.New(pg.Project()),
		facet:   facet.New(pg.Facet()),
		plugin:  plugin.New(pg.Queue()),
		garbage: garbage.New(pg.Garbage()),

		schema:  schema.New(pg.Schema()),
		store:   st,
		archive: arch,

		close: pg.Close,
	}, nil
}

type Option func(*_options)

type _options struct {
	pg []postgres.Option
}

func WithSchemaRepository(repository string) Option {
	return func(o *_options) {
		o.pg = append(o.pg, postgres.WithSchemaRepository(repository))
	}
}

func (r *radstash) Config() *rconf.RadstashConfig {
	return r.config
}

func (r *radstash) Graph() graph.Interface {
	return r.graph
}

func (r *radstash) Project() project.Interface {
	return r.project
}

func (r *radstash) Facet() facet.Interface {
	return r.facet
}

func (r *radstash) Plugin() plugin.Interface {
	return r.plugin
}

func (r *radstash) Garbage() garbage.Interface {
	return r.garbage
}

func (r *radstash) Schema() schema.Interface {
	return r.schema
}

func (r *radstash) Store() store.Store {
	return r.store
}

func (r *radstash) Archive() archive.Archive {
	return r.archive
}

func (r *radstash) Close() error {
	return r.close()
}
