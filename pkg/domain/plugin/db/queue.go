package db

import (
	"context"

	"github.com/radstash/radstash/pkg/domain"
)

type QueueInterface interface {
	// Enqueue appends a job to the execution ledger.
	//
	// The job's AimUid, ContainerId and ContainerName are required; the
	// plugin/project/template references are not validated for
	// existence. Status is forced to queued, StartTime defaults to the
	// enqueue time when zero, and EndTime starts unset.
	//
	// returns:
	//     - PluginQueueJob: the stored job, with Id and StartTime set.
	//     - error: ErrInvalid when a required field is empty.
	Enqueue(ctx context.Context, job domain.PluginQueueJob) (domain.PluginQueueJob, error)

	// Get a job by id.
	//
	// returns:
	//     - error: ErrMissing when no such job exists.
	Get(ctx context.Context, id int) (domain.PluginQueueJob, error)

	// ChangeStatus moves a job to the next status.
	//
	// Reaching a terminal status records the end time; terminal jobs
	// accept no further transition.
	//
	// returns:
	//     - error: ErrMissing when no such job exists,
	//       ErrInvalidJobStateChanging when the transition is not
	//       allowed from the job's current status.
	ChangeStatus(ctx context.Context, id int, next domain.JobStatus) error

	// Find jobs matching the query, oldest first. Empty dimensions of
	// the query match any value.
	Find(ctx context.Context, query domain.JobFindQuery) ([]domain.PluginQueueJob, error)
}
