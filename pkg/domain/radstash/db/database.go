package db

import (
	kfacet "github.com/radstash/radstash/pkg/domain/facet/db"
	kgarbage "github.com/radstash/radstash/pkg/domain/garbage/db"
	kgraph "github.com/radstash/radstash/pkg/domain/graph/db"
	kplugin "github.com/radstash/radstash/pkg/domain/plugin/db"
	kproject "github.com/radstash/radstash/pkg/domain/project/db"
	kschema "github.com/radstash/radstash/pkg/domain/schema/db"
)

type RadstashDatabase interface {
	Graph() kgraph.GraphInterface
	Project() kproject.ProjectInterface
	Facet() kfacet.FacetInterface
	Queue() kplugin.QueueInterface
	Garbage() kgarbage.GarbageInterface
	Schema() kschema.SchemaInterface
	Close() error
}
