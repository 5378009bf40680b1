package mocks

import (
	"context"
	"errors"

	"github.com/radstash/radstash/pkg/domain"
	kdbfacet "github.com/radstash/radstash/pkg/domain/facet/db"
	dbmock "github.com/radstash/radstash/pkg/domain/internal/db/mock"
)

type FacetInterface struct {
	Impl struct {
		IndexAim        func(context.Context, string, []domain.Facet) error
		DeindexAim      func(context.Context, string) error
		FacetsOf        func(context.Context, []string) (map[string][]domain.Facet, error)
		Find            func(context.Context, []domain.Facet) ([]string, error)
		IndexTemplate   func(context.Context, string, domain.TemplateFacets) error
		DeindexTemplate func(context.Context, string) error
		Listing         func(context.Context, domain.ListingKey) ([]domain.TemplateDocument, error)
		Summaries       func(context.Context, domain.ListingKey) ([]domain.TemplateSummary, error)
		CountListing    func(context.Context, domain.ListingKey) (int, error)
	}
	Calls struct {
		IndexAim dbmock.CallLog[struct {
			AimUid string
			Facets []domain.Facet
		}]
		DeindexAim dbmock.CallLog[struct{ AimUid string }]
		FacetsOf   dbmock.CallLog[struct{ AimUids []string }]
		Find       dbmock.CallLog[struct{ Facets []domain.Facet }]
		IndexTemplate dbmock.CallLog[struct {
			ContainerUid string
			Facets       domain.TemplateFacets
		}]
		DeindexTemplate dbmock.CallLog[struct{ ContainerUid string }]
		Listing         dbmock.CallLog[domain.ListingKey]
		Summaries       dbmock.CallLog[domain.ListingKey]
		CountListing    dbmock.CallLog[domain.ListingKey]
	}
}

func NewFacetInterface() *FacetInterface {
	return &FacetInterface{}
}

var _ kdbfacet.FacetInterface = &FacetInterface{}

func (f *FacetInterface) IndexAim(ctx context.Context, aimUid string, facets []domain.Facet) error {
	f.Calls.IndexAim = append(f.Calls.IndexAim, struct {
		AimUid string
		Facets []domain.Facet
	}{
		AimUid: aimUid, Facets: facets,
	})
	if f.Impl.IndexAim != nil {
		return f.Impl.IndexAim(ctx, aimUid, facets)
	}
	panic(errors.New("it should not be called"))
}

func (f *FacetInterface) DeindexAim(ctx context.Context, aimUid string) error {
	f.Calls.DeindexAim = append(f.Calls.DeindexAim, struct{ AimUid string }{AimUid: aimUid})
	if f.Impl.DeindexAim != nil {
		return f.Impl.DeindexAim(ctx, aimUid)
	}
	panic(errors.New("it should not be called"))
}

func (f *FacetInterface) FacetsOf(ctx context.Context, aimUids []string) (map[string][]domain.Facet, error) {
	f.Calls.FacetsOf = append(f.Calls.FacetsOf, struct{ AimUids []string }{AimUids: aimUids})
	if f.Impl.FacetsOf != nil {
		return f.Impl.FacetsOf(ctx, aimUids)
	}
	panic(errors.New("it should not be called"))
}

func (f *FacetInterface) Find(ctx context.Context, facets []domain.Facet) ([]string, error) {
	f.Calls.Find = append(f.Calls.Find, struct{ Facets []domain.Facet }{Facets: facets})
	if f.Impl.Find != nil {
		return f.Impl.Find(ctx, facets)
	}
	panic(errors.New("it should not be called"))
}

func (f *FacetInterface) IndexTemplate(ctx context.Context, containerUid string, facets domain.TemplateFacets) error {
	f.Calls.IndexTemplate = append(f.Calls.IndexTemplate, struct {
		ContainerUid string
		Facets       domain.TemplateFacets
	}{
		ContainerUid: containerUid, Facets: facets,
	})
	if f.Impl.IndexTemplate != nil {
		return f.Impl.IndexTemplate(ctx, containerUid, facets)
	}
	panic(errors.New("it should not be called"))
}

func (f *FacetInterface) DeindexTemplate(ctx context.Context, containerUid string) error {
	f.Calls.DeindexTemplate = append(f.Calls.DeindexTemplate, struct{ ContainerUid string }{ContainerUid: containerUid})
	if f.Impl.DeindexTemplate != nil {
		return f.Impl.DeindexTemplate(ctx, containerUid)
	}
	panic(errors.New("it should not be called"))
}

func (f *FacetInterface) Listing(ctx context.Context, key domain.ListingKey) ([]domain.TemplateDocument, error) {
	f.Calls.Listing = append(f.Calls.Listing, key)
	if f.Impl.Listing != nil {
		return f.Impl.Listing(ctx, key)
	}
	panic(errors.New("it should not be called"))
}

func (f *FacetInterface) Summaries(ctx context.Context, key domain.ListingKey) ([]domain.TemplateSummary, error) {
	f.Calls.Summaries = append(f.Calls.Summaries, key)
	if f.Impl.Summaries != nil {
		return f.Impl.Summaries(ctx, key)
	}
	panic(errors.New("it should not be called"))
}

func (f *FacetInterface) CountListing(ctx context.Context, key domain.ListingKey) (int, error) {
	f.Calls.CountListing = append(f.Calls.CountListing, key)
	if f.Impl.CountListing != nil {
		return f.Impl.CountListing(ctx, key)
	}
	panic(errors.New("it should not be called"))
}
