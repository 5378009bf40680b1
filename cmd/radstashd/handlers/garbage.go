package handlers

import (
	"context"
	"errors"

	"github.com/radstash/radstash/pkg/domain"
	kerr "github.com/radstash/radstash/pkg/domain/errors"
	kgarbage "github.com/radstash/radstash/pkg/domain/garbage/db"
	"github.com/radstash/radstash/pkg/domain/store"
)

// collectGarbage drains the payload cleanup queue into the content
// store. An everywhere detach records the payload keys of everything it
// removed; popping them here deletes the bytes. A key whose payload is
// already gone counts as collected. On error the remaining keys stay
// queued and are retried by the next collection.
func collectGarbage(ctx context.Context, dbGarbage kgarbage.GarbageInterface, st store.Store) error {
	for {
		popped, err := dbGarbage.Pop(ctx, func(g domain.Garbage) error {
			err := st.Delete(ctx, store.Kind(g.Kind), g.Key)
			if errors.Is(err, kerr.ErrMissing) {
				return nil
			}
			return err
		})
		if err != nil {
			return err
		}
		if !popped {
			return nil
		}
	}
}
