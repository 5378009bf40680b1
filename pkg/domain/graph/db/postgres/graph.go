package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgconn"
	pgerrcode "github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"
	kpool "github.com/radstash/radstash/pkg/conn/db/postgres/pool"
	"github.com/radstash/radstash/pkg/domain"
	kpgerr "github.com/radstash/radstash/pkg/domain/errors/dberrors/postgres"
)

type graphPG struct { // implements db.GraphInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *graphPG {
	return &graphPG{pool: pool}
}

// rel locates the global table of an entity type.
type rel struct {
	table string
	key   string
}

func globalRel(et domain.EntityType) (rel, bool) {
	switch et {
	case domain.EntitySubject:
		return rel{"subject", "subject_id"}, true
	case domain.EntityStudy:
		return rel{"study", "study_uid"}, true
	case domain.EntitySeries:
		return rel{"series", "series_uid"}, true
	case domain.EntityFile:
		return rel{"file", "name"}, true
	case domain.EntityAim:
		return rel{"aim", "aim_uid"}, true
	case domain.EntityTemplate:
		return rel{"template", "container_uid"}, true
	case domain.EntityPlugin:
		return rel{"plugin", "plugin_id"}, true
	default:
		return rel{}, false
	}
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// asMissingOnFKViolation converts a foreign key violation into a Missing
// on the referenced table. Other errors pass through.
func asMissingOnFKViolation(err error, table string, identity string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
		return kpgerr.Missing{Table: table, Identity: identity}
	}
	return err
}

func (g *graphPG) RegisterSubject(ctx context.Context, subject domain.Subject) error {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "subject" ("subject_id", "name") values ($1, $2)
		on conflict ("subject_id") do update set "name" = excluded."name"
		`,
		subject.SubjectId, subject.Name,
	)
	return err
}

func (g *graphPG) RegisterStudy(ctx context.Context, study domain.Study) error {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "study" ("study_uid", "subject_id") values ($1, $2)
		on conflict ("study_uid") do nothing
		`,
		study.StudyUid, study.SubjectId,
	)
	return asMissingOnFKViolation(
		err, "subject", fmt.Sprintf("subject_id='%s'", study.SubjectId),
	)
}

func (g *graphPG) RegisterSeries(ctx context.Context, series domain.Series) error {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "series" ("series_uid", "study_uid") values ($1, $2)
		on conflict ("series_uid") do nothing
		`,
		series.SeriesUid, series.StudyUid,
	)
	return asMissingOnFKViolation(
		err, "study", fmt.Sprintf("study_uid='%s'", series.StudyUid),
	)
}

func (g *graphPG) RegisterFile(ctx context.Context, file domain.FileInfo) error {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "file" ("name", "subject_id", "study_uid", "series_uid", "size", "creator")
		values ($1, $2, $3, $4, $5, $6)
		on conflict ("name") do update set
			"subject_id" = excluded."subject_id",
			"study_uid" = excluded."study_uid",
			"series_uid" = excluded."series_uid",
			"size" = excluded."size",
			"creator" = excluded."creator"
		`,
		file.Name,
		nullIfEmpty(file.SubjectId), nullIfEmpty(file.StudyUid), nullIfEmpty(file.SeriesUid),
		file.Size, file.Creator,
	)
	return asMissingOnFKViolation(
		err, "subject", fmt.Sprintf("scope of file '%s'", file.Name),
	)
}

func (g *graphPG) RegisterAim(ctx context.Context, aim domain.AimInfo) error {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "aim" ("aim_uid", "subject_id", "study_uid", "series_uid", "creator")
		values ($1, $2, $3, $4, $5)
		on conflict ("aim_uid") do update set
			"subject_id" = excluded."subject_id",
			"study_uid" = excluded."study_uid",
			"series_uid" = excluded."series_uid",
			"creator" = excluded."creator"
		`,
		aim.AimUid,
		nullIfEmpty(aim.SubjectId), nullIfEmpty(aim.StudyUid), nullIfEmpty(aim.SeriesUid),
		aim.Creator,
	)
	return asMissingOnFKViolation(
		err, "subject", fmt.Sprintf("scope of aim '%s'", aim.AimUid),
	)
}

func (g *graphPG) RegisterTemplate(ctx context.Context, template domain.TemplateInfo) error {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "template" ("container_uid", "code_value") values ($1, $2)
		on conflict ("container_uid") do update set "code_value" = excluded."code_value"
		`,
		template.ContainerUid, template.CodeValue,
	)
	return err
}

func (g *graphPG) RegisterPlugin(ctx context.Context, plugin domain.Plugin) error {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "plugin" ("plugin_id", "name", "image") values ($1, $2, $3)
		on conflict ("plugin_id") do update set
			"name" = excluded."name",
			"image" = excluded."image"
		`,
		plugin.PluginId, plugin.Name, plugin.Image,
	)
	return err
}

func (g *graphPG) Attach(ctx context.Context, project string, entityType domain.EntityType, key string) error {
	r, ok := globalRel(entityType)
	if !ok {
		return fmt.Errorf("unsupported entity type: %s", entityType)
	}

	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// "for key share" holds the global row against the "for update"
	// taken by an everywhere detach, so the new edge cannot land on a
	// record that is being removed.
	var one int
	if err := tx.QueryRow(
		ctx,
		fmt.Sprintf(`select 1 from "%s" where "%s" = $1 for key share`, r.table, r.key),
		key,
	).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{
				Table: r.table, Identity: fmt.Sprintf("%s='%s'", r.key, key),
			}
		}
		return err
	}

	if _, err := tx.Exec(
		ctx,
		`
		insert into "membership" ("project_id", "entity_type", "entity_key")
		values ($1, $2, $3)
		on conflict do nothing
		`,
		project, string(entityType), key,
	); err != nil {
		return asMissingOnFKViolation(
			err, "project", fmt.Sprintf("project_id='%s'", project),
		)
	}

	return tx.Commit(ctx)
}

// edge sweeps for project-scoped detach of hierarchical types.
// $1 = project id, $2 = the ancestor's key.
var projectCascades = map[domain.EntityType][]string{
	domain.EntitySubject: {
		`delete from "membership" m using "study" s
			where m."project_id" = $1 and m."entity_type" = 'study'
			and m."entity_key" = s."study_uid" and s."subject_id" = $2`,
		`delete from "membership" m using "series" se, "study" st
			where m."project_id" = $1 and m."entity_type" = 'series'
			and m."entity_key" = se."series_uid"
			and se."study_uid" = st."study_uid" and st."subject_id" = $2`,
		`delete from "membership" m using "file" f
			where m."project_id" = $1 and m."entity_type" = 'file'
			and m."entity_key" = f."name" and f."subject_id" = $2`,
		`delete from "membership" m using "aim" a
			where m."project_id" = $1 and m."entity_type" = 'aim'
			and m."entity_key" = a."aim_uid" and a."subject_id" = $2`,
	},
	domain.EntityStudy: {
		`delete from "membership" m using "series" se
			where m."project_id" = $1 and m."entity_type" = 'series'
			and m."entity_key" = se."series_uid" and se."study_uid" = $2`,
		`delete from "membership" m using "file" f
			where m."project_id" = $1 and m."entity_type" = 'file'
			and m."entity_key" = f."name" and f."study_uid" = $2`,
		`delete from "membership" m using "aim" a
			where m."project_id" = $1 and m."entity_type" = 'aim'
			and m."entity_key" = a."aim_uid" and a."study_uid" = $2`,
	},
	domain.EntitySeries: {
		`delete from "membership" m using "file" f
			where m."project_id" = $1 and m."entity_type" = 'file'
			and m."entity_key" = f."name" and f."series_uid" = $2`,
		`delete from "membership" m using "aim" a
			where m."project_id" = $1 and m."entity_type" = 'aim'
			and m."entity_key" = a."aim_uid" and a."series_uid" = $2`,
	},
}

// edge sweeps for everywhere detach of hierarchical types: remove every
// project's edges to the entity and its descendants. $1 = the entity's key.
var everywhereCascades = map[domain.EntityType]string{
	domain.EntitySubject: `
		delete from "membership" where ("entity_type", "entity_key") in (
			select 'subject'::entity_type, "subject_id" from "subject" where "subject_id" = $1
			union all
			select 'study'::entity_type, "study_uid" from "study" where "subject_id" = $1
			union all
			select 'series'::entity_type, se."series_uid" from "series" se
				join "study" st on se."study_uid" = st."study_uid"
				where st."subject_id" = $1
			union all
			select 'file'::entity_type, "name" from "file" where "subject_id" = $1
			union all
			select 'aim'::entity_type, "aim_uid" from "aim" where "subject_id" = $1
		)`,
	domain.EntityStudy: `
		delete from "membership" where ("entity_type", "entity_key") in (
			select 'study'::entity_type, "study_uid" from "study" where "study_uid" = $1
			union all
			select 'series'::entity_type, "series_uid" from "series" where "study_uid" = $1
			union all
			select 'file'::entity_type, "name" from "file" where "study_uid" = $1
			union all
			select 'aim'::entity_type, "aim_uid" from "aim" where "study_uid" = $1
		)`,
	domain.EntitySeries: `
		delete from "membership" where ("entity_type", "entity_key") in (
			select 'series'::entity_type, "series_uid" from "series" where "series_uid" = $1
			union all
			select 'file'::entity_type, "name" from "file" where "series_uid" = $1
			union all
			select 'aim'::entity_type, "aim_uid" from "aim" where "series_uid" = $1
		)`,
}

// payload keys queued for content store cleanup when an entity and its
// descendants are removed everywhere. The rows are popped by the
// garbage collector after the transaction commits. $1 = the entity's key.
var garbageSweeps = map[domain.EntityType][]string{
	domain.EntitySubject: {
		`insert into "garbage" ("kind", "key")
			select 'annotation', "aim_uid" from "aim" where "subject_id" = $1
			on conflict do nothing`,
		`insert into "garbage" ("kind", "key")
			select 'file-blob', "name" from "file" where "subject_id" = $1
			on conflict do nothing`,
		`insert into "garbage" ("kind", "key")
			select 'file-meta', "name" from "file" where "subject_id" = $1
			on conflict do nothing`,
	},
	domain.EntityStudy: {
		`insert into "garbage" ("kind", "key")
			select 'annotation', "aim_uid" from "aim" where "study_uid" = $1
			on conflict do nothing`,
		`insert into "garbage" ("kind", "key")
			select 'file-blob', "name" from "file" where "study_uid" = $1
			on conflict do nothing`,
		`insert into "garbage" ("kind", "key")
			select 'file-meta', "name" from "file" where "study_uid" = $1
			on conflict do nothing`,
	},
	domain.EntitySeries: {
		`insert into "garbage" ("kind", "key")
			select 'annotation', "aim_uid" from "aim" where "series_uid" = $1
			on conflict do nothing`,
		`insert into "garbage" ("kind", "key")
			select 'file-blob', "name" from "file" where "series_uid" = $1
			on conflict do nothing`,
		`insert into "garbage" ("kind", "key")
			select 'file-meta', "name" from "file" where "series_uid" = $1
			on conflict do nothing`,
	},
	domain.EntityAim: {
		`insert into "garbage" ("kind", "key") values ('annotation', $1)
			on conflict do nothing`,
	},
	domain.EntityTemplate: {
		`insert into "garbage" ("kind", "key") values ('template', $1)
			on conflict do nothing`,
	},
	domain.EntityFile: {
		`insert into "garbage" ("kind", "key") values ('file-blob', $1)
			on conflict do nothing`,
		`insert into "garbage" ("kind", "key") values ('file-meta', $1)
			on conflict do nothing`,
	},
}

// queries counting queued or running plugin jobs that pin an entity
// against everywhere detach. $1 = the entity's key.
var activeJobChecks = map[domain.EntityType]string{
	domain.EntitySubject: `
		select count(*) from "plugin_queue" q
			join "aim" a on q."aim_uid" = a."aim_uid"
			where a."subject_id" = $1 and q."status" in ('queued', 'running')`,
	domain.EntityStudy: `
		select count(*) from "plugin_queue" q
			join "aim" a on q."aim_uid" = a."aim_uid"
			where a."study_uid" = $1 and q."status" in ('queued', 'running')`,
	domain.EntitySeries: `
		select count(*) from "plugin_queue" q
			join "aim" a on q."aim_uid" = a."aim_uid"
			where a."series_uid" = $1 and q."status" in ('queued', 'running')`,
	domain.EntityAim: `
		select count(*) from "plugin_queue"
			where "aim_uid" = $1 and "status" in ('queued', 'running')`,
	domain.EntityTemplate: `
		select count(*) from "plugin_queue"
			where "template_id" = $1 and "status" in ('queued', 'running')`,
	domain.EntityPlugin: `
		select count(*) from "plugin_queue"
			where "plugin_id" = $1 and "status" in ('queued', 'running')`,
}

func (g *graphPG) Detach(ctx context.Context, project string, entityType domain.EntityType, key string, scope domain.DetachScope) error {
	r, ok := globalRel(entityType)
	if !ok {
		return fmt.Errorf("unsupported entity type: %s", entityType)
	}

	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	switch scope {
	case domain.DetachEverywhere:
		err = g.detachEverywhere(ctx, tx, r, entityType, key)
	default:
		err = g.detachProject(ctx, tx, project, entityType, key)
	}
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (g *graphPG) detachProject(ctx context.Context, tx kpool.Tx, project string, entityType domain.EntityType, key string) error {
	for _, sweep := range projectCascades[entityType] {
		if _, err := tx.Exec(ctx, sweep, project, key); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(
		ctx,
		`delete from "membership" where "project_id" = $1 and "entity_type" = $2 and "entity_key" = $3`,
		project, string(entityType), key,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "membership",
			Identity: fmt.Sprintf(
				"(project_id, entity_type, entity_key)=('%s', '%s', '%s')",
				project, entityType, key,
			),
		}
	}
	return nil
}

func (g *graphPG) detachEverywhere(ctx context.Context, tx kpool.Tx, r rel, entityType domain.EntityType, key string) error {
	// lock the global row so a concurrent attach cannot re-create an
	// edge while the cascade runs.
	var locked string
	if err := tx.QueryRow(
		ctx,
		fmt.Sprintf(`select "%s" from "%s" where "%s" = $1 for update`, r.key, r.table, r.key),
		key,
	).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{
				Table: r.table, Identity: fmt.Sprintf("%s='%s'", r.key, key),
			}
		}
		return err
	}

	if check, ok := activeJobChecks[entityType]; ok {
		var active int
		if err := tx.QueryRow(ctx, check, key).Scan(&active); err != nil {
			return err
		}
		if 0 < active {
			return kpgerr.Conflict{
				Table:    r.table,
				Identity: fmt.Sprintf("%s='%s'", r.key, key),
				Reason:   fmt.Sprintf("%d queued or running plugin jobs reference it", active),
			}
		}
	}

	for _, sweep := range garbageSweeps[entityType] {
		if _, err := tx.Exec(ctx, sweep, key); err != nil {
			return err
		}
	}

	if sweep, ok := everywhereCascades[entityType]; ok {
		if _, err := tx.Exec(ctx, sweep, key); err != nil {
			return err
		}
	} else {
		if _, err := tx.Exec(
			ctx,
			`delete from "membership" where "entity_type" = $1 and "entity_key" = $2`,
			string(entityType), key,
		); err != nil {
			return err
		}
	}

	// descendant global rows go with the root row by foreign keys.
	_, err := tx.Exec(
		ctx,
		fmt.Sprintf(`delete from "%s" where "%s" = $1`, r.table, r.key),
		key,
	)
	return err
}

func (g *graphPG) ListMembers(ctx context.Context, project string, entityType domain.EntityType, filter domain.AncestorFilter) ([]domain.Member, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	query, args, err := buildListQuery(project, entityType, filter)
	if err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.Key, &m.Enabled, &m.AttachedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

// buildListQuery narrows a membership listing by joining the entity's
// global table when an ancestor filter is given.
func buildListQuery(project string, entityType domain.EntityType, filter domain.AncestorFilter) (string, []interface{}, error) {
	base := `select m."entity_key", m."enabled", m."attached_at" from "membership" m`
	conds := []string{`m."project_id" = $1`, `m."entity_type" = $2`}
	args := []interface{}{project, string(entityType)}

	join := ""
	if !filter.Empty() {
		arg := func(v string) string {
			args = append(args, v)
			return fmt.Sprintf("$%d", len(args))
		}
		switch entityType {
		case domain.EntityStudy:
			join = ` join "study" s on m."entity_key" = s."study_uid"`
			if filter.SubjectId != "" {
				conds = append(conds, `s."subject_id" = `+arg(filter.SubjectId))
			}
		case domain.EntitySeries:
			join = ` join "series" se on m."entity_key" = se."series_uid"` +
				` join "study" st on se."study_uid" = st."study_uid"`
			if filter.SubjectId != "" {
				conds = append(conds, `st."subject_id" = `+arg(filter.SubjectId))
			}
			if filter.StudyUid != "" {
				conds = append(conds, `se."study_uid" = `+arg(filter.StudyUid))
			}
		case domain.EntityFile:
			join = ` join "file" f on m."entity_key" = f."name"`
			if filter.SubjectId != "" {
				conds = append(conds, `f."subject_id" = `+arg(filter.SubjectId))
			}
			if filter.StudyUid != "" {
				conds = append(conds, `f."study_uid" = `+arg(filter.StudyUid))
			}
			if filter.SeriesUid != "" {
				conds = append(conds, `f."series_uid" = `+arg(filter.SeriesUid))
			}
		case domain.EntityAim:
			join = ` join "aim" a on m."entity_key" = a."aim_uid"`
			if filter.SubjectId != "" {
				conds = append(conds, `a."subject_id" = `+arg(filter.SubjectId))
			}
			if filter.StudyUid != "" {
				conds = append(conds, `a."study_uid" = `+arg(filter.StudyUid))
			}
			if filter.SeriesUid != "" {
				conds = append(conds, `a."series_uid" = `+arg(filter.SeriesUid))
			}
		default:
			return "", nil, fmt.Errorf(
				"ancestor filter is not applicable to entity type %s", entityType,
			)
		}
	}

	query := base + join +
		` where ` + strings.Join(conds, " and ") +
		` order by m."seq"`
	return query, args, nil
}

func (g *graphPG) Exists(ctx context.Context, entityType domain.EntityType, key string) (bool, error) {
	r, ok := globalRel(entityType)
	if !ok {
		return false, fmt.Errorf("unsupported entity type: %s", entityType)
	}

	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	var found bool
	if err := conn.QueryRow(
		ctx,
		fmt.Sprintf(`select exists (select 1 from "%s" where "%s" = $1)`, r.table, r.key),
		key,
	).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func (g *graphPG) SetEnabled(ctx context.Context, project string, entityType domain.EntityType, key string, enabled bool) error {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tag, err := conn.Exec(
		ctx,
		`update "membership" set "enabled" = $4 where "project_id" = $1 and "entity_type" = $2 and "entity_key" = $3`,
		project, string(entityType), key, enabled,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{
			Table: "membership",
			Identity: fmt.Sprintf(
				"(project_id, entity_type, entity_key)=('%s', '%s', '%s')",
				project, entityType, key,
			),
		}
	}
	return nil
}

func (g *graphPG) ProjectsOf(ctx context.Context, entityType domain.EntityType, key string) ([]string, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`select "project_id" from "membership" where "entity_type" = $1 and "entity_key" = $2 order by "seq"`,
		string(entityType), key,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}
