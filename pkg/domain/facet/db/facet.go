package db

import (
	"context"

	"github.com/radstash/radstash/pkg/domain"
)

type FacetInterface interface {
	// IndexAim replaces the stored facet set of an annotation with the
	// given one, atomically. Readers see either the old or the new set.
	//
	// returns:
	//     - error: ErrMissing when the annotation is not registered.
	IndexAim(ctx context.Context, aimUid string, facets []domain.Facet) error

	// DeindexAim drops the stored facet set of an annotation. Unknown
	// annotations are ignored.
	DeindexAim(ctx context.Context, aimUid string) error

	// FacetsOf returns the stored facets of each annotation, in the
	// order they were emitted at indexing time. Annotations without
	// facets are absent from the result.
	FacetsOf(ctx context.Context, aimUids []string) (map[string][]domain.Facet, error)

	// Find returns the uids of annotations whose facet set contains all
	// the given facets. With no facets given, every indexed annotation
	// matches.
	Find(ctx context.Context, facets []domain.Facet) ([]string, error)

	// IndexTemplate replaces the stored listing and summary emissions of
	// a template container, atomically.
	//
	// returns:
	//     - error: ErrMissing when the container is not registered.
	IndexTemplate(ctx context.Context, containerUid string, facets domain.TemplateFacets) error

	// DeindexTemplate drops a container's listing and summary emissions.
	// Unknown containers are ignored.
	DeindexTemplate(ctx context.Context, containerUid string) error

	// Listing returns the template documents emitted under the key.
	Listing(ctx context.Context, key domain.ListingKey) ([]domain.TemplateDocument, error)

	// Summaries returns the template summaries emitted under the key.
	Summaries(ctx context.Context, key domain.ListingKey) ([]domain.TemplateSummary, error)

	// CountListing counts listing emissions under the key. Re-indexing
	// the same container does not change the count.
	CountListing(ctx context.Context, key domain.ListingKey) (int, error)
}
