// Package memory holds payloads in process memory. For tests and
// single-node trials; nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	domerr "github.com/radstash/radstash/pkg/domain/errors"
	"github.com/radstash/radstash/pkg/domain/store"
)

type entry struct {
	kind store.Kind
	key  string
}

type memStore struct {
	mu       sync.RWMutex
	payloads map[entry][]byte
}

var _ store.Store = &memStore{}

func New() *memStore {
	return &memStore{payloads: map[entry][]byte{}}
}

func (s *memStore) Get(ctx context.Context, kind store.Kind, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.payloads[entry{kind: kind, key: key}]
	if !ok {
		return nil, fmt.Errorf("%w: %s '%s'", domerr.ErrMissing, kind, key)
	}
	copied := make([]byte, len(payload))
	copy(copied, payload)
	return copied, nil
}

func (s *memStore) Put(ctx context.Context, kind store.Kind, key string, payload []byte) error {
	copied := make([]byte, len(payload))
	copy(copied, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[entry{kind: kind, key: key}] = copied
	return nil
}

func (s *memStore) Delete(ctx context.Context, kind store.Kind, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{kind: kind, key: key}
	if _, ok := s.payloads[e]; !ok {
		return fmt.Errorf("%w: %s '%s'", domerr.ErrMissing, kind, key)
	}
	delete(s.payloads, e)
	return nil
}
