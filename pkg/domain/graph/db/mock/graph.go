package mocks

import (
	"context"
	"errors"

	"github.com/radstash/radstash/pkg/domain"
	kdbgraph "github.com/radstash/radstash/pkg/domain/graph/db"
	dbmock "github.com/radstash/radstash/pkg/domain/internal/db/mock"
)

type GraphInterface struct {
	Impl struct {
		RegisterSubject  func(context.Context, domain.Subject) error
		RegisterStudy    func(context.Context, domain.Study) error
		RegisterSeries   func(context.Context, domain.Series) error
		RegisterFile     func(context.Context, domain.FileInfo) error
		RegisterAim      func(context.Context, domain.AimInfo) error
		RegisterTemplate func(context.Context, domain.TemplateInfo) error
		RegisterPlugin   func(context.Context, domain.Plugin) error
		Attach           func(context.Context, string, domain.EntityType, string) error
		Detach           func(context.Context, string, domain.EntityType, string, domain.DetachScope) error
		ListMembers      func(context.Context, string, domain.EntityType, domain.AncestorFilter) ([]domain.Member, error)
		Exists           func(context.Context, domain.EntityType, string) (bool, error)
		SetEnabled       func(context.Context, string, domain.EntityType, string, bool) error
		ProjectsOf       func(context.Context, domain.EntityType, string) ([]string, error)
	}
	Calls struct {
		RegisterSubject  dbmock.CallLog[domain.Subject]
		RegisterStudy    dbmock.CallLog[domain.Study]
		RegisterSeries   dbmock.CallLog[domain.Series]
		RegisterFile     dbmock.CallLog[domain.FileInfo]
		RegisterAim      dbmock.CallLog[domain.AimInfo]
		RegisterTemplate dbmock.CallLog[domain.TemplateInfo]
		RegisterPlugin   dbmock.CallLog[domain.Plugin]
		Attach           dbmock.CallLog[struct {
			Project    string
			EntityType domain.EntityType
			Key        string
		}]
		Detach dbmock.CallLog[struct {
			Project    string
			EntityType domain.EntityType
			Key        string
			Scope      domain.DetachScope
		}]
		ListMembers dbmock.CallLog[struct {
			Project    string
			EntityType domain.EntityType
			Filter     domain.AncestorFilter
		}]
		Exists dbmock.CallLog[struct {
			EntityType domain.EntityType
			Key        string
		}]
		SetEnabled dbmock.CallLog[struct {
			Project    string
			EntityType domain.EntityType
			Key        string
			Enabled    bool
		}]
		ProjectsOf dbmock.CallLog[struct {
			EntityType domain.EntityType
			Key        string
		}]
	}
}

func NewGraphInterface() *GraphInterface {
	return &GraphInterface{}
}

var _ kdbgraph.GraphInterface = &GraphInterface{}

func (g *GraphInterface) RegisterSubject(ctx context.Context, subject domain.Subject) error {
	g.Calls.RegisterSubject = append(g.Calls.RegisterSubject, subject)
	if g.Impl.RegisterSubject != nil {
		return g.Impl.RegisterSubject(ctx, subject)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) RegisterStudy(ctx context.Context, study domain.Study) error {
	g.Calls.RegisterStudy = append(g.Calls.RegisterStudy, study)
	if g.Impl.RegisterStudy != nil {
		return g.Impl.RegisterStudy(ctx, study)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) RegisterSeries(ctx context.Context, series domain.Series) error {
	g.Calls.RegisterSeries = append(g.Calls.RegisterSeries, series)
	if g.Impl.RegisterSeries != nil {
		return g.Impl.RegisterSeries(ctx, series)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) RegisterFile(ctx context.Context, file domain.FileInfo) error {
	g.Calls.RegisterFile = append(g.Calls.RegisterFile, file)
	if g.Impl.RegisterFile != nil {
		return g.Impl.RegisterFile(ctx, file)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) RegisterAim(ctx context.Context, aim domain.AimInfo) error {
	g.Calls.RegisterAim = append(g.Calls.RegisterAim, aim)
	if g.Impl.RegisterAim != nil {
		return g.Impl.RegisterAim(ctx, aim)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) RegisterTemplate(ctx context.Context, template domain.TemplateInfo) error {
	g.Calls.RegisterTemplate = append(g.Calls.RegisterTemplate, template)
	if g.Impl.RegisterTemplate != nil {
		return g.Impl.RegisterTemplate(ctx, template)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) RegisterPlugin(ctx context.Context, plugin domain.Plugin) error {
	g.Calls.RegisterPlugin = append(g.Calls.RegisterPlugin, plugin)
	if g.Impl.RegisterPlugin != nil {
		return g.Impl.RegisterPlugin(ctx, plugin)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) Attach(ctx context.Context, project string, entityType domain.EntityType, key string) error {
	g.Calls.Attach = append(g.Calls.Attach, struct {
		Project    string
		EntityType domain.EntityType
		Key        string
	}{
		Project: project, EntityType: entityType, Key: key,
	})
	if g.Impl.Attach != nil {
		return g.Impl.Attach(ctx, project, entityType, key)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) Detach(ctx context.Context, project string, entityType domain.EntityType, key string, scope domain.DetachScope) error {
	g.Calls.Detach = append(g.Calls.Detach, struct {
		Project    string
		EntityType domain.EntityType
		Key        string
		Scope      domain.DetachScope
	}{
		Project: project, EntityType: entityType, Key: key, Scope: scope,
	})
	if g.Impl.Detach != nil {
		return g.Impl.Detach(ctx, project, entityType, key, scope)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) ListMembers(ctx context.Context, project string, entityType domain.EntityType, filter domain.AncestorFilter) ([]domain.Member, error) {
	g.Calls.ListMembers = append(g.Calls.ListMembers, struct {
		Project    string
		EntityType domain.EntityType
		Filter     domain.AncestorFilter
	}{
		Project: project, EntityType: entityType, Filter: filter,
	})
	if g.Impl.ListMembers != nil {
		return g.Impl.ListMembers(ctx, project, entityType, filter)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) Exists(ctx context.Context, entityType domain.EntityType, key string) (bool, error) {
	g.Calls.Exists = append(g.Calls.Exists, struct {
		EntityType domain.EntityType
		Key        string
	}{
		EntityType: entityType, Key: key,
	})
	if g.Impl.Exists != nil {
		return g.Impl.Exists(ctx, entityType, key)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) SetEnabled(ctx context.Context, project string, entityType domain.EntityType, key string, enabled bool) error {
	g.Calls.SetEnabled = append(g.Calls.SetEnabled, struct {
		Project    string
		EntityType domain.EntityType
		Key        string
		Enabled    bool
	}{
		Project: project, EntityType: entityType, Key: key, Enabled: enabled,
	})
	if g.Impl.SetEnabled != nil {
		return g.Impl.SetEnabled(ctx, project, entityType, key, enabled)
	}
	panic(errors.New("it should not be called"))
}

func (g *GraphInterface) ProjectsOf(ctx context.Context, entityType domain.EntityType, key string) ([]string, error) {
	g.Calls.ProjectsOf = append(g.Calls.ProjectsOf, struct {
		EntityType domain.EntityType
		Key        string
	}{
		EntityType: entityType, Key: key,
	})
	if g.Impl.ProjectsOf != nil {
		return g.Impl.ProjectsOf(ctx, entityType, key)
	}
	panic(errors.New("it should not be called"))
}
