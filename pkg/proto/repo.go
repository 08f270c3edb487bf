// Package proto defines the domain types and collaborator interfaces the
// resolution engine and the LFS gateway are written against.
package proto

import (
	"context"
)

// Oid is a content-addressed object identifier in hex form.
type Oid string

// String implements fmt.Stringer.
func (o Oid) String() string { return string(o) }

// ObjectKind is the kind of a repository object. The set is closed; every
// switch over it must handle all four kinds.
type ObjectKind int

// Object kinds.
const (
	KindCommit ObjectKind = iota
	KindTree
	KindBlob
	KindTag
)

// String implements fmt.Stringer.
func (k ObjectKind) String() string {
	switch k {
	case KindCommit:
		return "commit"
	case KindTree:
		return "tree"
	case KindBlob:
		return "blob"
	case KindTag:
		return "tag"
	}
	return "unknown"
}

// Entry is a named child of a tree.
type Entry struct {
	Name string
	Oid  Oid
	Kind ObjectKind
}

// Object is a repository object. A resolved object always carries its kind;
// kind is never inferred from context.
type Object interface {
	ID() Oid
	Kind() ObjectKind
}

// Tree is a list of entries in store enumeration order.
type Tree interface {
	Object
	Entries() ([]Entry, error)
}

// Blob is raw byte content with a size. Content may be binary.
type Blob interface {
	Object
	Size() int64
	Content() ([]byte, error)
	IsBinary() (bool, error)
}

// Repository is read-only access to a bare repository's references and
// objects. Implementations must not cache across calls; every request
// re-resolves from scratch.
type Repository interface {
	// Name returns the repository name, e.g. "project.git".
	Name() string

	// DefaultBranch returns the short name of the branch HEAD points at.
	// Returns ErrRefNotFound when HEAD is unset or not symbolic.
	DefaultBranch() (string, error)

	// Branches returns local branch names in store enumeration order.
	Branches() ([]string, error)

	// Tags returns shortened tag names (refs/tags/ stripped) in store
	// enumeration order.
	Tags() ([]string, error)

	// BranchTip returns the object the named local branch points at.
	// Returns ErrRefNotFound if no such branch exists.
	BranchTip(name string) (Object, error)

	// TagTarget returns the oid the named tag is recorded against, without
	// peeling. Returns ErrRefNotFound if no such tag exists.
	TagTarget(name string) (Oid, error)

	// Object looks up an object by id. Returns ErrObjectNotFound if the id
	// has no object behind it.
	Object(oid Oid) (Object, error)

	// Peel dereferences a commit or tag down to its tree. A tree peels to
	// itself. Blobs return ErrNotPeelable.
	Peel(obj Object) (Tree, error)

	// Blob looks up a blob by id.
	Blob(oid Oid) (Blob, error)
}

// RepositoryStore opens repositories by path.
type RepositoryStore interface {
	// Open opens the bare repository at the given name relative to the
	// store root. Returns ErrRepoNotFound if it doesn't exist.
	Open(ctx context.Context, name string) (Repository, error)
}
