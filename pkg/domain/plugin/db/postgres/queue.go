package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	kpool "github.com/radstash/radstash/pkg/conn/db/postgres/pool"
	"github.com/radstash/radstash/pkg/domain"
	domerr "github.com/radstash/radstash/pkg/domain/errors"
	kpgerr "github.com/radstash/radstash/pkg/domain/errors/dberrors/postgres"
	"github.com/radstash/radstash/pkg/utils/slices"
)

type queuePG struct { // implements db.QueueInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *queuePG {
	return &queuePG{pool: pool}
}

func (q *queuePG) Enqueue(ctx context.Context, job domain.PluginQueueJob) (domain.PluginQueueJob, error) {
	if job.AimUid == "" {
		return domain.PluginQueueJob{}, fmt.Errorf("%w: aim_uid is required", domerr.ErrInvalid)
	}
	if job.ContainerId == "" {
		return domain.PluginQueueJob{}, fmt.Errorf("%w: container_id is required", domerr.ErrInvalid)
	}
	if job.ContainerName == "" {
		return domain.PluginQueueJob{}, fmt.Errorf("%w: container_name is required", domerr.ErrInvalid)
	}

	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return domain.PluginQueueJob{}, err
	}
	defer conn.Release()

	var starttime *string
	if !job.StartTime.IsZero() {
		s := job.StartTime.Format("2006-01-02T15:04:05.999999Z07:00")
		starttime = &s
	}

	stored := job
	stored.Status = domain.JobQueued
	stored.EndTime = nil
	if err := conn.QueryRow(
		ctx,
		`
		insert into "plugin_queue" (
			"plugin_id", "project_id", "template_id",
			"parameter_type", "aim_uid", "container_id", "container_name",
			"max_memory", "status", "creator", "starttime"
		)
		values ($1, $2, $3, $4, $5, $6, $7, $8, 'queued', $9, coalesce($10::timestamp with time zone, now()))
		returning "id", "starttime"
		`,
		job.PluginId, job.ProjectId, job.TemplateId,
		job.ParameterType, job.AimUid, job.ContainerId, job.ContainerName,
		job.MaxMemory, job.Creator, starttime,
	).Scan(&stored.Id, &stored.StartTime); err != nil {
		return domain.PluginQueueJob{}, err
	}

	return stored, nil
}

func (q *queuePG) Get(ctx context.Context, id int) (domain.PluginQueueJob, error) {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return domain.PluginQueueJob{}, err
	}
	defer conn.Release()

	jobs, err := q.find(
		ctx, conn, `where "id" = $1`, []interface{}{id},
	)
	if err != nil {
		return domain.PluginQueueJob{}, err
	}
	if len(jobs) == 0 {
		return domain.PluginQueueJob{}, kpgerr.Missing{
			Table: "plugin_queue", Identity: fmt.Sprintf("id=%d", id),
		}
	}
	return jobs[0], nil
}

func (q *queuePG) ChangeStatus(ctx context.Context, id int, next domain.JobStatus) error {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var current domain.JobStatus
	{
		var s string
		if err := tx.QueryRow(
			ctx,
			`select "status" from "plugin_queue" where "id" = $1 for update`,
			id,
		).Scan(&s); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return kpgerr.Missing{
					Table: "plugin_queue", Identity: fmt.Sprintf("id=%d", id),
				}
			}
			return err
		}
		if current, err = domain.AsJobStatus(s); err != nil {
			return err
		}
	}

	if !current.CanTransitTo(next) {
		return domain.NewErrInvalidJobStateChanging(current, next)
	}

	// endtime is written exactly once, on the transition into a
	// terminal status.
	if next.Terminal() {
		_, err = tx.Exec(
			ctx,
			`update "plugin_queue" set "status" = $2, "endtime" = now() where "id" = $1`,
			id, string(next),
		)
	} else {
		_, err = tx.Exec(
			ctx,
			`update "plugin_queue" set "status" = $2 where "id" = $1`,
			id, string(next),
		)
	}
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (q *queuePG) Find(ctx context.Context, query domain.JobFindQuery) ([]domain.PluginQueueJob, error) {
	conn, err := q.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	conds := []string{}
	args := []interface{}{}
	if 0 < len(query.ProjectId) {
		args = append(args, query.ProjectId)
		conds = append(conds, fmt.Sprintf(`"project_id" = any($%d::varchar[])`, len(args)))
	}
	if 0 < len(query.PluginId) {
		args = append(args, query.PluginId)
		conds = append(conds, fmt.Sprintf(`"plugin_id" = any($%d::varchar[])`, len(args)))
	}
	if 0 < len(query.Status) {
		args = append(args, slices.Map(query.Status, domain.JobStatus.String))
		conds = append(conds, fmt.Sprintf(`"status" = any($%d::job_status[])`, len(args)))
	}

	where := ""
	if 0 < len(conds) {
		where = "where " + strings.Join(conds, " and ")
	}

	return q.find(ctx, conn, where, args)
}

func (q *queuePG) find(ctx context.Context, conn kpool.Conn, where string, args []interface{}) ([]domain.PluginQueueJob, error) {
	rows, err := conn.Query(
		ctx,
		`
		select
			"id", "plugin_id", "project_id", "template_id",
			"parameter_type", "aim_uid", "container_id", "container_name",
			"max_memory", "status", "creator", "starttime", "endtime"
		from "plugin_queue"
		`+where+`
		order by "id"`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []domain.PluginQueueJob{}
	for rows.Next() {
		var job domain.PluginQueueJob
		var status string
		if err := rows.Scan(
			&job.Id, &job.PluginId, &job.ProjectId, &job.TemplateId,
			&job.ParameterType, &job.AimUid, &job.ContainerId, &job.ContainerName,
			&job.MaxMemory, &status, &job.Creator, &job.StartTime, &job.EndTime,
		); err != nil {
			return nil, err
		}
		if job.Status, err = domain.AsJobStatus(status); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
