// Package filesystem stores payloads as plain files under a root
// directory, one subdirectory per payload kind.
package filesystem

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	domerr "github.com/radstash/radstash/pkg/domain/errors"
	"github.com/radstash/radstash/pkg/domain/store"
)

type fileStore struct {
	root string
}

var _ store.Store = &fileStore{}

func New(root string) (*fileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{root: root}, nil
}

// keys are escaped so that uids and user-supplied file names cannot
// traverse out of the kind directory.
func (s *fileStore) path(kind store.Kind, key string) string {
	return filepath.Join(s.root, string(kind), url.PathEscape(key))
}

func (s *fileStore) Get(ctx context.Context, kind store.Kind, key string) ([]byte, error) {
	payload, err := os.ReadFile(s.path(kind, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s '%s'", domerr.ErrMissing, kind, key)
		}
		return nil, err
	}
	return payload, nil
}

func (s *fileStore) Put(ctx context.Context, kind store.Kind, key string, payload []byte) error {
	dir := filepath.Join(s.root, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// write to a temp name then rename, so readers never see a torn
	// payload.
	tmp := filepath.Join(dir, "."+uuid.New().String())
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path(kind, key)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func (s *fileStore) Delete(ctx context.Context, kind store.Kind, key string) error {
	err := os.Remove(s.path(kind, key))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s '%s'", domerr.ErrMissing, kind, key)
	}
	return err
}
