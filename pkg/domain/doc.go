package domain

// domain package contains the Domain Models and Interfaces for the Radstash application.
//
// `domain/radstash` package exposes root object for the Radstash application.
// Entrypoints of applications should instantiate the Radstash object and use it to interact with the domain.
//
// `domain/ENTITY.go` has high-level entities (Domain Model types) and functions.
// For example, `domain/aim.go` contains the annotation document model.
//
// `domain/ENTITY` directory contains the "phisical" representation of the domain entities.
// For example, `domain/graph/db` exposes the client interface for the resource graph in RDB,
// and `domain/graph/db/postgres` implements it.
//
// # Entities
//
// Core entities in the domain are:
//
// - `project`: Unit of grouping and access control. Every other entity becomes
// visible by being attached to a project. Projects are created, updated and
// removed via `domain/project`.
//
// - `graph`: The resource graph. Global records (subjects, studies, series,
// files, annotations, templates, plugins) plus per-project membership edges.
// Registering is idempotent; attaching creates a single edge; detaching a
// subject, study or series cascades to the descendants' edges.
//
// - `facet`: Derived, searchable attributes. Annotation documents are flattened
// into (name, value) facet pairs at ingest; template documents emit listing and
// summary rows keyed by (kind, code). Queries run against this index only, never
// against raw documents.
//
// - `plugin`: The execution ledger. Jobs referencing an annotation and a
// container move queued -> running -> complete/error; terminal rows are
// immutable except for EndTime set once.
//
// And others:
//
// - `store`: Raw document payloads, keyed by kind and uid. Filesystem or
// in-memory.
//
// - `archive`: The imaging archive the graph validates subject/study/series
// identifiers against, when configured.
//
// - `schema`: Tracks and upgrades the database schema version.
