package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	kpool "github.com/radstash/radstash/pkg/conn/db/postgres/pool"
	"github.com/radstash/radstash/pkg/domain"
	kpgerr "github.com/radstash/radstash/pkg/domain/errors/dberrors/postgres"
	"github.com/radstash/radstash/pkg/utils/slices"
)

type facetPG struct { // implements db.FacetInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *facetPG {
	return &facetPG{pool: pool}
}

func lockAim(ctx context.Context, conn kpool.Queryer, aimUid string) error {
	var locked string
	if err := conn.QueryRow(
		ctx,
		`select "aim_uid" from "aim" where "aim_uid" = $1 for update`,
		aimUid,
	).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{
				Table: "aim", Identity: fmt.Sprintf("aim_uid='%s'", aimUid),
			}
		}
		return err
	}
	return nil
}

func (f *facetPG) IndexAim(ctx context.Context, aimUid string, facets []domain.Facet) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockAim(ctx, tx, aimUid); err != nil {
		return err
	}

	// re-emission replaces, not accumulates.
	if _, err := tx.Exec(
		ctx, `delete from "aim_facet" where "aim_uid" = $1`, aimUid,
	); err != nil {
		return err
	}

	for ord, facet := range facets {
		if _, err := tx.Exec(
			ctx,
			`
			with "key_insert" as (
				insert into "facet_key" ("key") values ($1)
				on conflict do nothing
				returning "id"
			),
			"key" as (
				select "id" as id from "key_insert"
				union
				select "id" as id from "facet_key" where "key" = $1
				limit 1
			),
			"facet_insert" as (
				insert into "facet" ("key_id", "value")
				select
					"key"."id" as "key_id",
					$2 as value
				from "key"
				on conflict do nothing
				returning "id"
			),
			"facet_in" as (
				select "id" as "facet_id" from "facet_insert"
				union
				select "facet"."id" as "facet_id" from "facet"
					inner join "key" on "key"."id" = "facet"."key_id"
					where "facet"."value" = $2
				limit 1
			)
			insert into "aim_facet" ("facet_id", "aim_uid", "ord")
			select
				"facet_in"."facet_id" as "facet_id",
				$3 as "aim_uid",
				$4 as "ord"
			from "facet_in"
			on conflict do nothing
			`,
			facet.Name, facet.Value, aimUid, ord,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (f *facetPG) DeindexAim(ctx context.Context, aimUid string) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx, `delete from "aim_facet" where "aim_uid" = $1`, aimUid,
	)
	return err
}

func (f *facetPG) FacetsOf(ctx context.Context, aimUids []string) (map[string][]domain.Facet, error) {
	result := map[string][]domain.Facet{}
	if len(aimUids) == 0 {
		return result, nil
	}

	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "aim_uid", "key", "value"
		from "aim_facet"
		inner join "facet" on "aim_facet"."facet_id" = "facet"."id"
		inner join "facet_key" on "facet"."key_id" = "facet_key"."id"
		where "aim_uid" = any($1::varchar[])
		order by "aim_uid", "ord"
		`,
		aimUids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var aimUid string
		var facet domain.Facet
		if err := rows.Scan(&aimUid, &facet.Name, &facet.Value); err != nil {
			return nil, err
		}
		result[aimUid] = append(result[aimUid], facet)
	}
	return result, nil
}

func (f *facetPG) Find(ctx context.Context, facets []domain.Facet) ([]string, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		with
		"_query" as (
			select
				unnest("c"[:][1:1]) as "key",
				unnest("c"[:][2:2]) as "value"
			from (select $1::varchar[][]) as "t"("c")
		),
		"_facet_key" as (
			select "key", "id" as "key_id"
			from "facet_key"
			where "key" in (select distinct "key" from "_query")
		),
		"query" as (
			select "id" as "facet_id"
			from "facet"
			inner join "_facet_key" using("key_id")
			where ("key", "value") in (select * from "_query")
		),
		"found" as (
			select "aim_uid" from "aim_facet"
			inner join "query" using("facet_id")
			group by "aim_uid"
			having count(*) = (select count(*) from "_query")

			union

			select distinct "aim_uid" from "aim_facet"
			where (select count(*) from "_query") = 0
		)
		select "aim_uid" from "found" order by "aim_uid"
		`,
		slices.Map(facets, func(f domain.Facet) [2]string { return [2]string{f.Name, f.Value} }),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	aimUids := []string{}
	for rows.Next() {
		var aimUid string
		if err := rows.Scan(&aimUid); err != nil {
			return nil, err
		}
		aimUids = append(aimUids, aimUid)
	}
	return aimUids, nil
}

func (f *facetPG) IndexTemplate(ctx context.Context, containerUid string, facets domain.TemplateFacets) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked string
	if err := tx.QueryRow(
		ctx,
		`select "container_uid" from "template" where "container_uid" = $1 for update`,
		containerUid,
	).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return kpgerr.Missing{
				Table: "template", Identity: fmt.Sprintf("container_uid='%s'", containerUid),
			}
		}
		return err
	}

	if _, err := tx.Exec(
		ctx, `delete from "template_listing" where "container_uid" = $1`, containerUid,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		ctx, `delete from "template_summary" where "container_uid" = $1`, containerUid,
	); err != nil {
		return err
	}

	for _, l := range facets.Listing {
		payload, err := json.Marshal(l.Payload)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "template_listing" ("container_uid", "kind", "code", "payload")
			values ($1, $2, $3, $4)
			on conflict do nothing
			`,
			containerUid, l.Key.Kind, l.Key.Code, payload,
		); err != nil {
			return err
		}
	}
	for _, s := range facets.Summary {
		summary, err := json.Marshal(s.Summary)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			ctx,
			`
			insert into "template_summary" ("container_uid", "kind", "code", "summary")
			values ($1, $2, $3, $4)
			on conflict do nothing
			`,
			containerUid, s.Key.Kind, s.Key.Code, summary,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (f *facetPG) DeindexTemplate(ctx context.Context, containerUid string) error {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(
		ctx, `delete from "template_listing" where "container_uid" = $1`, containerUid,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		ctx, `delete from "template_summary" where "container_uid" = $1`, containerUid,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (f *facetPG) Listing(ctx context.Context, key domain.ListingKey) ([]domain.TemplateDocument, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "payload" from "template_listing"
		where "kind" = $1 and "code" = $2
		order by "container_uid"
		`,
		key.Kind, key.Code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []domain.TemplateDocument{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var doc domain.TemplateDocument
		if err := json.Unmarshal(payload, &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (f *facetPG) Summaries(ctx context.Context, key domain.ListingKey) ([]domain.TemplateSummary, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(
		ctx,
		`
		select "summary" from "template_summary"
		where "kind" = $1 and "code" = $2
		order by "container_uid"
		`,
		key.Kind, key.Code,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []domain.TemplateSummary{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var summary domain.TemplateSummary
		if err := json.Unmarshal(payload, &summary); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (f *facetPG) CountListing(ctx context.Context, key domain.ListingKey) (int, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(
		ctx,
		`select count(*) from "template_listing" where "kind" = $1 and "code" = $2`,
		key.Kind, key.Code,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
