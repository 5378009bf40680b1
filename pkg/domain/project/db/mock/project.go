package mocks

import (
	"context"
	"errors"

	"github.com/radstash/radstash/pkg/domain"
	dbmock "github.com/radstash/radstash/pkg/domain/internal/db/mock"
	kdbproject "github.com/radstash/radstash/pkg/domain/project/db"
)

type ProjectInterface struct {
	Impl struct {
		Create func(context.Context, domain.Project) error
		Get    func(context.Context, string) (domain.Project, error)
		List   func(context.Context) ([]domain.Project, error)
		Update func(context.Context, domain.Project) error
		Delete func(context.Context, string) error
	}
	Calls struct {
		Create dbmock.CallLog[domain.Project]
		Get    dbmock.CallLog[struct{ ProjectId string }]
		List   dbmock.CallLog[struct{}]
		Update dbmock.CallLog[domain.Project]
		Delete dbmock.CallLog[struct{ ProjectId string }]
	}
}

func NewProjectInterface() *ProjectInterface {
	return &ProjectInterface{}
}

var _ kdbproject.ProjectInterface = &ProjectInterface{}

func (p *ProjectInterface) Create(ctx context.Context, project domain.Project) error {
	p.Calls.Create = append(p.Calls.Create, project)
	if p.Impl.Create != nil {
		return p.Impl.Create(ctx, project)
	}
	panic(errors.New("it should not be called"))
}

func (p *ProjectInterface) Get(ctx context.Context, projectId string) (domain.Project, error) {
	p.Calls.Get = append(p.Calls.Get, struct{ ProjectId string }{ProjectId: projectId})
	if p.Impl.Get != nil {
		return p.Impl.Get(ctx, projectId)
	}
	panic(errors.New("it should not be called"))
}

func (p *ProjectInterface) List(ctx context.Context) ([]domain.Project, error) {
	p.Calls.List = append(p.Calls.List, struct{}{})
	if p.Impl.List != nil {
		return p.Impl.List(ctx)
	}
	panic(errors.New("it should not be called"))
}

func (p *ProjectInterface) Update(ctx context.Context, project domain.Project) error {
	p.Calls.Update = append(p.Calls.Update, project)
	if p.Impl.Update != nil {
		return p.Impl.Update(ctx, project)
	}
	panic(errors.New("it should not be called"))
}

func (p *ProjectInterface) Delete(ctx context.Context, projectId string) error {
	p.Calls.Delete = append(p.Calls.Delete, struct{ ProjectId string }{ProjectId: projectId})
	if p.Impl.Delete != nil {
		return p.Impl.Delete(ctx, projectId)
	}
	panic(errors.New("it should not be called"))
}
