package backend

import (
	"strings"
	"unicode/utf8"

	"github.com/jeffthecoder/gitview/pkg/proto"
)

// readmeNames are matched case-sensitively, in entry order.
var readmeNames = []string{"README.md", "README"}

// Descend resolves a slash-separated path against a root object and returns
// the target entry's oid and kind.
//
// An empty path yields the root itself: commits and tags peel through to
// their tree, a blob root is returned as-is. A non-empty path against a
// blob root is ErrInvalidPath. While walking, a missing segment or a
// non-final segment that lands on a blob is ErrPathNotFound.
func (b *Backend) Descend(repo proto.Repository, root proto.Oid, path string) (proto.Oid, proto.ObjectKind, error) {
	obj, err := repo.Object(root)
	if err != nil {
		return "", 0, err
	}

	segments := splitPath(path)
	if len(segments) == 0 {
		switch obj.Kind() {
		case proto.KindBlob:
			return obj.ID(), proto.KindBlob, nil
		case proto.KindCommit, proto.KindTag, proto.KindTree:
			tree, err := repo.Peel(obj)
			if err != nil {
				return "", 0, err
			}
			return tree.ID(), proto.KindTree, nil
		}
	}

	if obj.Kind() == proto.KindBlob {
		return "", 0, proto.ErrInvalidPath
	}

	tree, err := repo.Peel(obj)
	if err != nil {
		return "", 0, err
	}

	for i, segment := range segments {
		entry, ok, err := findEntry(tree, segment)
		if err != nil {
			return "", 0, err
		}
		if !ok {
			return "", 0, proto.ErrPathNotFound
		}

		last := i == len(segments)-1
		if last {
			return entry.Oid, entry.Kind, nil
		}

		// Intermediate segments must be descendable.
		if entry.Kind != proto.KindTree {
			return "", 0, proto.ErrPathNotFound
		}

		child, err := repo.Object(entry.Oid)
		if err != nil {
			return "", 0, err
		}
		tree, err = repo.Peel(child)
		if err != nil {
			return "", 0, err
		}
	}

	return tree.ID(), proto.KindTree, nil
}

// ListEntries returns the entries of the tree with the given oid, in store
// enumeration order.
func (b *Backend) ListEntries(repo proto.Repository, oid proto.Oid) ([]proto.Entry, error) {
	obj, err := repo.Object(oid)
	if err != nil {
		return nil, err
	}

	tree, err := repo.Peel(obj)
	if err != nil {
		return nil, err
	}

	return tree.Entries()
}

// FindReadme scans a tree for a README.md or README blob and returns its
// decoded content. Binary content, invalid UTF-8, or any read failure all
// mean "no readme", never an error.
func (b *Backend) FindReadme(repo proto.Repository, tree proto.Tree) (string, bool) {
	entries, err := tree.Entries()
	if err != nil {
		return "", false
	}

	for _, want := range readmeNames {
		for _, entry := range entries {
			if entry.Name != want || entry.Kind != proto.KindBlob {
				continue
			}

			blob, err := repo.Blob(entry.Oid)
			if err != nil {
				return "", false
			}

			if bin, err := blob.IsBinary(); err != nil || bin {
				return "", false
			}

			content, err := blob.Content()
			if err != nil || !utf8.Valid(content) {
				return "", false
			}

			return string(content), true
		}
	}

	return "", false
}

// findEntry looks a name up in a tree. Entry names are unique within one
// tree.
func findEntry(tree proto.Tree, name string) (proto.Entry, bool, error) {
	entries, err := tree.Entries()
	if err != nil {
		return proto.Entry{}, false, err
	}

	for _, e := range entries {
		if e.Name == name {
			return e, true, nil
		}
	}

	return proto.Entry{}, false, nil
}

func splitPath(path string) []string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" && s != "." {
			segments = append(segments, s)
		}
	}
	return segments
}
