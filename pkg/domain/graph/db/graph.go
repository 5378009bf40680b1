package db

import (
	"context"

	"github.com/radstash/radstash/pkg/domain"
)

type GraphInterface interface {
	// Register the global record of a Subject.
	//
	// Registration is idempotent. The record exists independently of any
	// project until removed with Detach(..., DetachEverywhere).
	RegisterSubject(ctx context.Context, subject domain.Subject) error

	// Register the global record of a Study under its Subject.
	//
	// returns:
	//     - error: ErrMissing when the parent Subject is not registered.
	RegisterStudy(ctx context.Context, study domain.Study) error

	// Register the global record of a Series under its Study.
	//
	// returns:
	//     - error: ErrMissing when the parent Study is not registered.
	RegisterSeries(ctx context.Context, series domain.Series) error

	// Register (or overwrite) the global record of a File.
	RegisterFile(ctx context.Context, file domain.FileInfo) error

	// Register (or overwrite) the global record of an annotation.
	RegisterAim(ctx context.Context, aim domain.AimInfo) error

	// Register (or overwrite) the global record of a template container.
	RegisterTemplate(ctx context.Context, template domain.TemplateInfo) error

	// Register (or overwrite) the global record of a plugin.
	RegisterPlugin(ctx context.Context, plugin domain.Plugin) error

	// Attach creates the membership edge (project, entityType, key).
	//
	// Attaching an already attached entity succeeds without duplicating
	// the edge.
	//
	// returns:
	//     - error: ErrMissing when no global record exists for the key,
	//       or when the project does not exist.
	Attach(ctx context.Context, project string, entityType domain.EntityType, key string) error

	// Detach removes membership edges.
	//
	// With DetachProjectOnly, the edge for (project, entityType, key) is
	// removed and, for hierarchical types, so are the edges of all
	// descendant entities within the same project. Global records and
	// other projects' edges are untouched.
	//
	// With DetachEverywhere, the global record, all of its edges across
	// every project, and all descendant records and edges are removed in
	// one transaction.
	//
	// returns:
	//     - error: ErrMissing when the edge (project scope) or the global
	//       record (everywhere scope) does not exist. ErrConflict when an
	//       everywhere removal is blocked by a queued or running plugin
	//       job referencing the entity or one of its descendants.
	Detach(ctx context.Context, project string, entityType domain.EntityType, key string, scope domain.DetachScope) error

	// ListMembers returns the members of a project with the given entity
	// type, in insertion order, optionally narrowed to descendants of the
	// ancestors named in the filter.
	ListMembers(ctx context.Context, project string, entityType domain.EntityType, filter domain.AncestorFilter) ([]domain.Member, error)

	// Exists tests the global record, independent of project membership.
	Exists(ctx context.Context, entityType domain.EntityType, key string) (bool, error)

	// SetEnabled toggles the enabled flag of an edge without removing it.
	//
	// returns:
	//     - error: ErrMissing when the edge does not exist.
	SetEnabled(ctx context.Context, project string, entityType domain.EntityType, key string, enabled bool) error

	// ProjectsOf returns the projects holding an edge to the entity, in
	// attachment order.
	ProjectsOf(ctx context.Context, entityType domain.EntityType, key string) ([]string, error)
}
