package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/jeffthecoder/gitview/pkg/proto"
)

// repository is a read-only view of one bare repository. It holds no state
// beyond the open go-git handle and is discarded after the request.
type repository struct {
	name string
	repo *gogit.Repository
}

var _ proto.Repository = (*repository)(nil)

// Name implements proto.Repository.
func (r *repository) Name() string { return r.name }

// DefaultBranch implements proto.Repository.
func (r *repository) DefaultBranch() (string, error) {
	ref, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", proto.ErrRefNotFound
		}
		return "", fmt.Errorf("%w: resolve HEAD: %s", proto.ErrUpstreamFault, err)
	}
	if ref.Type() != plumbing.SymbolicReference {
		return "", proto.ErrRefNotFound
	}

	// HEAD can symbolically point at a branch that was never born (or was
	// deleted). Only report branches that actually exist.
	if _, err := r.repo.Reference(ref.Target(), true); err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", proto.ErrRefNotFound
		}
		return "", fmt.Errorf("%w: resolve HEAD: %s", proto.ErrUpstreamFault, err)
	}

	return ref.Target().Short(), nil
}

// Branches implements proto.Repository.
func (r *repository) Branches() ([]string, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("%w: list branches: %s", proto.ErrUpstreamFault, err)
	}
	defer iter.Close()

	var names []string
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: list branches: %s", proto.ErrUpstreamFault, err)
	}

	return names, nil
}

// Tags implements proto.Repository. Names are shortened, i.e. the
// refs/tags/ prefix is stripped.
func (r *repository) Tags() ([]string, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("%w: list tags: %s", proto.ErrUpstreamFault, err)
	}
	defer iter.Close()

	var names []string
	if err := iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	}); err != nil {
		return nil, fmt.Errorf("%w: list tags: %s", proto.ErrUpstreamFault, err)
	}

	return names, nil
}

// BranchTip implements proto.Repository.
func (r *repository) BranchTip(name string) (proto.Object, error) {
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, proto.ErrRefNotFound
		}
		return nil, fmt.Errorf("%w: resolve branch %s: %s", proto.ErrUpstreamFault, name, err)
	}

	return r.Object(proto.Oid(ref.Hash().String()))
}

// TagTarget implements proto.Repository. The returned oid is the reference
// target as recorded, without peeling annotated tags.
func (r *repository) TagTarget(name string) (proto.Oid, error) {
	ref, err := r.repo.Reference(plumbing.NewTagReferenceName(name), false)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", proto.ErrRefNotFound
		}
		return "", fmt.Errorf("%w: resolve tag %s: %s", proto.ErrUpstreamFault, name, err)
	}

	return proto.Oid(ref.Hash().String()), nil
}

// Object implements proto.Repository.
func (r *repository) Object(oid proto.Oid) (proto.Object, error) {
	h := plumbing.NewHash(oid.String())
	obj, err := r.repo.Object(plumbing.AnyObject, h)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, proto.ErrObjectNotFound
		}
		return nil, fmt.Errorf("%w: object %s: %s", proto.ErrUpstreamFault, oid, err)
	}

	return wrapObject(obj)
}

// Blob implements proto.Repository.
func (r *repository) Blob(oid proto.Oid) (proto.Blob, error) {
	obj, err := r.Object(oid)
	if err != nil {
		return nil, err
	}

	b, ok := obj.(proto.Blob)
	if !ok {
		return nil, proto.ErrObjectNotFound
	}

	return b, nil
}

// Peel implements proto.Repository. Commits and tags dereference down to
// their tree, trees peel to themselves, blobs cannot peel.
func (r *repository) Peel(obj proto.Object) (proto.Tree, error) {
	switch o := obj.(type) {
	case *commitObject:
		t, err := o.commit.Tree()
		if err != nil {
			return nil, fmt.Errorf("%w: peel commit %s: %s", proto.ErrUpstreamFault, o.ID(), err)
		}
		return &treeObject{tree: t}, nil
	case *tagObject:
		t, err := o.tag.Tree()
		if err != nil {
			return nil, fmt.Errorf("%w: peel tag %s: %s", proto.ErrUpstreamFault, o.ID(), err)
		}
		return &treeObject{tree: t}, nil
	case *treeObject:
		return o, nil
	case *blobObject:
		return nil, proto.ErrNotPeelable
	default:
		return nil, proto.ErrNotPeelable
	}
}
