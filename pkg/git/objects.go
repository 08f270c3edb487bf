package git

import (
	"fmt"
	"io"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/binary"
	"github.com/jeffthecoder/gitview/pkg/proto"
)

// wrapObject maps a go-git object onto the proto tagged union.
func wrapObject(obj object.Object) (proto.Object, error) {
	switch o := obj.(type) {
	case *object.Commit:
		return &commitObject{commit: o}, nil
	case *object.Tag:
		return &tagObject{tag: o}, nil
	case *object.Tree:
		return &treeObject{tree: o}, nil
	case *object.Blob:
		return &blobObject{blob: o}, nil
	default:
		return nil, fmt.Errorf("%w: unexpected object type %s", proto.ErrUpstreamFault, obj.Type())
	}
}

type commitObject struct {
	commit *object.Commit
}

func (c *commitObject) ID() proto.Oid          { return proto.Oid(c.commit.Hash.String()) }
func (c *commitObject) Kind() proto.ObjectKind { return proto.KindCommit }

type tagObject struct {
	tag *object.Tag
}

func (t *tagObject) ID() proto.Oid          { return proto.Oid(t.tag.Hash.String()) }
func (t *tagObject) Kind() proto.ObjectKind { return proto.KindTag }

type treeObject struct {
	tree *object.Tree
}

var _ proto.Tree = (*treeObject)(nil)

func (t *treeObject) ID() proto.Oid          { return proto.Oid(t.tree.Hash.String()) }
func (t *treeObject) Kind() proto.ObjectKind { return proto.KindTree }

// Entries implements proto.Tree in stored order.
func (t *treeObject) Entries() ([]proto.Entry, error) {
	entries := make([]proto.Entry, 0, len(t.tree.Entries))
	for _, e := range t.tree.Entries {
		entries = append(entries, proto.Entry{
			Name: e.Name,
			Oid:  proto.Oid(e.Hash.String()),
			Kind: entryKind(e.Mode),
		})
	}
	return entries, nil
}

// entryKind classifies a tree entry by its file mode. Anything that is not
// a directory is content, i.e. a blob.
func entryKind(mode filemode.FileMode) proto.ObjectKind {
	if mode == filemode.Dir {
		return proto.KindTree
	}
	return proto.KindBlob
}

type blobObject struct {
	blob *object.Blob
}

var _ proto.Blob = (*blobObject)(nil)

func (b *blobObject) ID() proto.Oid          { return proto.Oid(b.blob.Hash.String()) }
func (b *blobObject) Kind() proto.ObjectKind { return proto.KindBlob }
func (b *blobObject) Size() int64            { return b.blob.Size }

// Content implements proto.Blob.
func (b *blobObject) Content() ([]byte, error) {
	rd, err := b.blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: read blob %s: %s", proto.ErrUpstreamFault, b.ID(), err)
	}
	defer rd.Close() // nolint: errcheck

	bts, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("%w: read blob %s: %s", proto.ErrUpstreamFault, b.ID(), err)
	}

	return bts, nil
}

// IsBinary implements proto.Blob.
func (b *blobObject) IsBinary() (bool, error) {
	rd, err := b.blob.Reader()
	if err != nil {
		return false, fmt.Errorf("%w: read blob %s: %s", proto.ErrUpstreamFault, b.ID(), err)
	}
	defer rd.Close() // nolint: errcheck

	bin, err := binary.IsBinary(rd)
	if err != nil {
		return false, fmt.Errorf("%w: read blob %s: %s", proto.ErrUpstreamFault, b.ID(), err)
	}

	return bin, nil
}
