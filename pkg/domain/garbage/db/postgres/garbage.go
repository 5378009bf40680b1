package postgres

import (
	"context"

	kpool "github.com/radstash/radstash/pkg/conn/db/postgres/pool"
	"github.com/radstash/radstash/pkg/domain"
)

type garbagePG struct { // implements db.GarbageInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *garbagePG {
	return &garbagePG{pool: pool}
}

func (g *garbagePG) Pop(ctx context.Context, callback func(domain.Garbage) error) (bool, error) {
	conn, err := g.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(
		ctx,
		`
		with "popped" as (
			select "kind", "key" from "garbage" limit 1 for update skip locked
		),
		"removed" as (
			delete from "garbage"
			where ("kind", "key") in (select "kind", "key" from "popped")
		)
		select "kind", "key" from "popped"
		`,
	)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	item := domain.Garbage{}
	popped := false
	for rows.Next() {
		if err := rows.Scan(&item.Kind, &item.Key); err != nil {
			return false, err
		}
		popped = true
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	if popped && callback != nil {
		if err := callback(item); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}

	return popped, nil
}
