package mocks

import (
	"context"
	"errors"

	"github.com/radstash/radstash/pkg/domain"
	dbmock "github.com/radstash/radstash/pkg/domain/internal/db/mock"
	kdbplugin "github.com/radstash/radstash/pkg/domain/plugin/db"
)

type QueueInterface struct {
	Impl struct {
		Enqueue      func(context.Context, domain.PluginQueueJob) (domain.PluginQueueJob, error)
		Get          func(context.Context, int) (domain.PluginQueueJob, error)
		ChangeStatus func(context.Context, int, domain.JobStatus) error
		Find         func(context.Context, domain.JobFindQuery) ([]domain.PluginQueueJob, error)
	}
	Calls struct {
		Enqueue      dbmock.CallLog[domain.PluginQueueJob]
		Get          dbmock.CallLog[struct{ Id int }]
		ChangeStatus dbmock.CallLog[struct {
			Id   int
			Next domain.JobStatus
		}]
		Find dbmock.CallLog[domain.JobFindQuery]
	}
}

func NewQueueInterface() *QueueInterface {
	return &QueueInterface{}
}

var _ kdbplugin.QueueInterface = &QueueInterface{}

func (q *QueueInterface) Enqueue(ctx context.Context, job domain.PluginQueueJob) (domain.PluginQueueJob, error) {
	q.Calls.Enqueue = append(q.Calls.Enqueue, job)
	if q.Impl.Enqueue != nil {
		return q.Impl.Enqueue(ctx, job)
	}
	panic(errors.New("it should not be called"))
}

func (q *QueueInterface) Get(ctx context.Context, id int) (domain.PluginQueueJob, error) {
	q.Calls.Get = append(q.Calls.Get, struct{ Id int }{Id: id})
	if q.Impl.Get != nil {
		return q.Impl.Get(ctx, id)
	}
	panic(errors.New("it should not be called"))
}

func (q *QueueInterface) ChangeStatus(ctx context.Context, id int, next domain.JobStatus) error {
	q.Calls.ChangeStatus = append(q.Calls.ChangeStatus, struct {
		Id   int
		Next domain.JobStatus
	}{
		Id: id, Next: next,
	})
	if q.Impl.ChangeStatus != nil {
		return q.Impl.ChangeStatus(ctx, id, next)
	}
	panic(errors.New("it should not be called"))
}

func (q *QueueInterface) Find(ctx context.Context, query domain.JobFindQuery) ([]domain.PluginQueueJob, error) {
	q.Calls.Find = append(q.Calls.Find, query)
	if q.Impl.Find != nil {
		return q.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}
