package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/radstash/radstash/pkg/utils/cmp"
)

type JobStatus string

const (
	// This job is waiting to be picked by the executor.
	JobQueued JobStatus = "queued"

	// The executor has started the job's container.
	JobRunning JobStatus = "running"

	// This job has been done, successfully.
	JobComplete JobStatus = "complete"

	// This job stopped with error.
	JobError JobStatus = "error"
)

func (js JobStatus) String() string {
	return string(js)
}

func AsJobStatus(status string) (JobStatus, error) {
	switch status {
	case string(JobQueued):
		return JobQueued, nil
	case string(JobRunning):
		return JobRunning, nil
	case string(JobComplete):
		return JobComplete, nil
	case string(JobError):
		return JobError, nil
	default:
		return "", fmt.Errorf("'%s' is not JobStatus", status)
	}
}

func (js JobStatus) Terminal() bool {
	switch js {
	case JobComplete, JobError:
		return true
	default:
		return false
	}
}

// CanTransitTo reports whether the executor may move a job from js to next.
// Terminal states accept no transition. Queued may skip straight to a
// terminal state (executors report immediate failures that way).
func (js JobStatus) CanTransitTo(next JobStatus) bool {
	switch js {
	case JobQueued:
		return next == JobRunning || next == JobComplete || next == JobError
	case JobRunning:
		return next == JobComplete || next == JobError
	default:
		return false
	}
}

var ErrInvalidJobStateChanging = errors.New("cannot change job state")

func NewErrInvalidJobStateChanging(from, to JobStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidJobStateChanging, from, to)
}

// PluginQueueJob is one row of the execution ledger. Once enqueued, only
// Status and EndTime ever change.
type PluginQueueJob struct {
	Id int

	// nullable references; not validated at enqueue time so the ledger
	// stays append-only even if the referenced rows are removed later.
	PluginId   *string
	ProjectId  *string
	TemplateId *string

	ParameterType string
	AimUid        string
	ContainerId   string
	ContainerName string

	// memory limit in megabytes; 0 means unlimited.
	MaxMemory int

	Status  JobStatus
	Creator string

	// fixed at enqueue time.
	StartTime time.Time

	// nil until the job reaches a terminal status; immutable after.
	EndTime *time.Time
}

func (j PluginQueueJob) Equal(o PluginQueueJob) bool {
	return j.Id == o.Id &&
		cmp.PEqEq(j.PluginId, o.PluginId) &&
		cmp.PEqEq(j.ProjectId, o.ProjectId) &&
		cmp.PEqEq(j.TemplateId, o.TemplateId) &&
		j.ParameterType == o.ParameterType &&
		j.AimUid == o.AimUid &&
		j.ContainerId == o.ContainerId &&
		j.ContainerName == o.ContainerName &&
		j.MaxMemory == o.MaxMemory &&
		j.Status == o.Status &&
		j.Creator == o.Creator &&
		j.StartTime.Equal(o.StartTime) &&
		cmp.PEqualWith(j.EndTime, o.EndTime, func(a, b time.Time) bool { return a.Equal(b) })
}

// JobFindQuery filters queue listings. Empty dimensions match any.
type JobFindQuery struct {
	ProjectId []string
	PluginId  []string
	Status    []JobStatus
}
