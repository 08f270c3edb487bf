// Package git implements the repository store on top of go-git, giving
// read-only access to bare repositories on disk.
package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/jeffthecoder/gitview/pkg/proto"
)

// Store opens bare repositories under a root directory. It implements
// proto.RepositoryStore.
type Store struct {
	root string
}

var _ proto.RepositoryStore = (*Store)(nil)

// NewStore returns a store rooted at the given directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Open implements proto.RepositoryStore.
func (s *Store) Open(_ context.Context, name string) (proto.Repository, error) {
	path, err := s.repoPath(name)
	if err != nil {
		return nil, err
	}

	repo, err := gogit.PlainOpen(path)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, proto.ErrRepoNotFound
		}
		return nil, fmt.Errorf("%w: open %s: %s", proto.ErrUpstreamFault, name, err)
	}

	return &repository{name: name, repo: repo}, nil
}

// repoPath resolves a repository name to a path, ensuring it stays within
// the store root.
func (s *Store) repoPath(name string) (string, error) {
	name = strings.Trim(filepath.Clean("/"+name), "/")
	if name == "" || name == "." {
		return "", proto.ErrRepoNotFound
	}

	absRoot, err := filepath.Abs(s.root)
	if err != nil {
		return "", fmt.Errorf("%w: %s", proto.ErrUpstreamFault, err)
	}

	path := filepath.Join(absRoot, name)
	if !strings.HasPrefix(path, absRoot+string(filepath.Separator)) {
		return "", proto.ErrRepoNotFound
	}

	return path, nil
}
