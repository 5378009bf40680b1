// Package store abstracts the keyed payload store holding raw entity
// bodies. The relational ledger references payloads by key only; the
// bytes live behind this interface.
package store

import (
	"context"
)

// Kind discriminates the payload namespaces of the store.
type Kind string

const (
	KindTemplate   Kind = "template"
	KindAnnotation Kind = "annotation"
	KindFileMeta   Kind = "file-meta"
	KindFileBlob   Kind = "file-blob"
)

type Store interface {
	// Get a payload.
	//
	// returns:
	//     - error: ErrMissing when no payload is stored under the key.
	Get(ctx context.Context, kind Kind, key string) ([]byte, error)

	// Put stores (or overwrites) a payload. Readers of the key see
	// either the old or the new payload, never a partial write.
	Put(ctx context.Context, kind Kind, key string, payload []byte) error

	// Delete removes a payload.
	//
	// returns:
	//     - error: ErrMissing when no payload is stored under the key.
	Delete(ctx context.Context, kind Kind, key string) error
}
