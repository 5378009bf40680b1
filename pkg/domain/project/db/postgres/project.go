package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	pgerrcode "github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	kpool "github.com/radstash/radstash/pkg/conn/db/postgres/pool"
	"github.com/radstash/radstash/pkg/domain"
	kpgerr "github.com/radstash/radstash/pkg/domain/errors/dberrors/postgres"
)

type projectPG struct { // implements db.ProjectInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *projectPG {
	return &projectPG{pool: pool}
}

func (p *projectPG) Create(ctx context.Context, project domain.Project) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var createdAt *time.Time
	if !project.CreatedAt.IsZero() {
		createdAt = &project.CreatedAt
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "project" ("project_id", "name", "description", "access", "creator", "created_at")
		values ($1, $2, $3, $4, $5, coalesce($6::timestamp with time zone, now()))
		`,
		project.ProjectId, project.Name, project.Description,
		string(project.Access), project.Creator, createdAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return kpgerr.Conflict{
				Table:    "project",
				Identity: fmt.Sprintf("project_id='%s'", project.ProjectId),
				Reason:   "already exists",
			}
		}
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "membership" ("project_id", "entity_type", "entity_key")
		values ($1, 'project', $1)
		`,
		project.ProjectId,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *projectPG) Get(ctx context.Context, projectId string) (domain.Project, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return domain.Project{}, err
	}
	defer conn.Release()

	var project domain.Project
	var access string
	if err := conn.QueryRow(
		ctx,
		`
		select "project_id", "name", "description", "access", "creator", "created_at"
		from "project" where "project_id" = $1
		`,
		projectId,
	).Scan(
		&project.ProjectId, &project.Name, &project.Description,
		&access, &project.Creator, &project.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, kpgerr.Missing{
				Table: "project", Identity: fmt.Sprintf("project_id='%s'", projectId),
			}
		}
		return domain.Project{}, err
	}
	if project.Access, err = domain.AsProjectAccess(access); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

func (p *projectPG) List(ctx context.Context) ([]domain.Project, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "project_id", "name", "description", "access", "creator", "created_at"
		from "project" order by "created_at", "project_id"
		`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		var project domain.Project
		var access string
		if err := rows.Scan(
			&project.ProjectId, &project.Name, &project.Description,
			&access, &project.Creator, &project.CreatedAt,
		); err != nil {
			return nil, err
		}
		if project.Access, err = domain.AsProjectAccess(access); err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, nil
}

func (p *projectPG) Update(ctx context.Context, project domain.Project) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`
		update "project" set "name" = $2, "description" = $3, "access" = $4
		where "project_id" = $1
		`,
		project.ProjectId, project.Name, project.Description, string(project.Access),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "project", Identity: fmt.Sprintf("project_id='%s'", project.ProjectId),
		}
	}
	return nil
}

func (p *projectPG) Delete(ctx context.Context, projectId string) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	// membership edges are dropped by the foreign key; global records of
	// the members stay.
	tag, err := conn.Exec(
		ctx, `delete from "project" where "project_id" = $1`, projectId,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "project", Identity: fmt.Sprintf("project_id='%s'", projectId),
		}
	}
	return nil
}
