package db

import (
	"context"

	"github.com/radstash/radstash/pkg/domain"
)

type GarbageInterface interface {
	// Pop hands one queued payload key to the callback.
	//
	// When the callback returns nil, the item is removed from the
	// queue; when it returns an error, the item is rolled back and
	// stays queued.
	//
	// returns:
	//     - bool: whether an item was popped.
	//     - error: the callback's error, or a database error.
	Pop(ctx context.Context, callback func(domain.Garbage) error) (bool, error)
}
