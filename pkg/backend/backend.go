// Package backend implements the reference/object resolution engine on top
// of the repository store.
package backend

import (
	"context"

	"github.com/jeffthecoder/gitview/pkg/proto"
)

// Backend resolves refs and walks trees against a repository store. It is
// stateless; every call re-resolves from the store.
type Backend struct {
	store proto.RepositoryStore
}

// New returns a new Backend using the given repository store.
func New(store proto.RepositoryStore) *Backend {
	return &Backend{store: store}
}

// Open opens a repository by name.
func (b *Backend) Open(ctx context.Context, name string) (proto.Repository, error) {
	return b.store.Open(ctx, name)
}
