package web

import (
	"context"
	"net/http"
	"testing"

	"github.com/jeffthecoder/gitview/pkg/auth"
	"github.com/jeffthecoder/gitview/pkg/backend"
	"github.com/jeffthecoder/gitview/pkg/config"
	"github.com/jeffthecoder/gitview/pkg/proto"
	"github.com/jeffthecoder/gitview/pkg/storage"
	"github.com/matryer/is"
)

type fakeObject struct {
	id   proto.Oid
	kind proto.ObjectKind
}

func (o fakeObject) ID() proto.Oid          { return o.id }
func (o fakeObject) Kind() proto.ObjectKind { return o.kind }

type fakeTree struct {
	fakeObject
	entries []proto.Entry
}

func (t fakeTree) Entries() ([]proto.Entry, error) { return t.entries, nil }

type fakeBlob struct {
	fakeObject
	content []byte
	binary  bool
}

func (b fakeBlob) Size() int64              { return int64(len(b.content)) }
func (b fakeBlob) Content() ([]byte, error) { return b.content, nil }
func (b fakeBlob) IsBinary() (bool, error)  { return b.binary, nil }

type fakeRepo struct {
	name     string
	head     string
	branches map[string]proto.Oid
	tags     map[string]proto.Oid
	objects  map[proto.Oid]proto.Object
	treeOf   map[proto.Oid]proto.Oid
}

var _ proto.Repository = (*fakeRepo)(nil)

func (r *fakeRepo) Name() string { return r.name }

func (r *fakeRepo) DefaultBranch() (string, error) {
	if r.head == "" {
		return "", proto.ErrRefNotFound
	}
	return r.head, nil
}

func (r *fakeRepo) Branches() ([]string, error) {
	return []string{r.head}, nil
}

func (r *fakeRepo) Tags() ([]string, error) {
	var names []string
	for name := range r.tags {
		names = append(names, name)
	}
	return names, nil
}

func (r *fakeRepo) BranchTip(name string) (proto.Object, error) {
	oid, ok := r.branches[name]
	if !ok {
		return nil, proto.ErrRefNotFound
	}
	return r.Object(oid)
}

func (r *fakeRepo) TagTarget(name string) (proto.Oid, error) {
	oid, ok := r.tags[name]
	if !ok {
		return "", proto.ErrRefNotFound
	}
	return oid, nil
}

func (r *fakeRepo) Object(oid proto.Oid) (proto.Object, error) {
	obj, ok := r.objects[oid]
	if !ok {
		return nil, proto.ErrObjectNotFound
	}
	return obj, nil
}

func (r *fakeRepo) Blob(oid proto.Oid) (proto.Blob, error) {
	obj, err := r.Object(oid)
	if err != nil {
		return nil, err
	}
	b, ok := obj.(fakeBlob)
	if !ok {
		return nil, proto.ErrObjectNotFound
	}
	return b, nil
}

func (r *fakeRepo) Peel(obj proto.Object) (proto.Tree, error) {
	switch obj.Kind() {
	case proto.KindTree:
		return obj.(fakeTree), nil
	case proto.KindCommit, proto.KindTag:
		oid, ok := r.treeOf[obj.ID()]
		if !ok {
			return nil, proto.ErrObjectNotFound
		}
		tree, err := r.Object(oid)
		if err != nil {
			return nil, err
		}
		return tree.(fakeTree), nil
	default:
		return nil, proto.ErrNotPeelable
	}
}

type fakeStore struct {
	repos map[string]proto.Repository
}

func (s *fakeStore) Open(_ context.Context, name string) (proto.Repository, error) {
	repo, ok := s.repos[name]
	if !ok {
		return nil, proto.ErrRepoNotFound
	}
	return repo, nil
}

// testRepo has one commit on "main" with a README.md, a text file, and a
// binary file.
func testRepo() *fakeRepo {
	readme := fakeBlob{fakeObject{"blob-readme", proto.KindBlob}, []byte("# project\n"), false}
	text := fakeBlob{fakeObject{"blob-text", proto.KindBlob}, []byte("hello\n"), false}
	image := fakeBlob{fakeObject{"blob-image", proto.KindBlob}, []byte{0x89, 0x50, 0x4e, 0x47}, true}

	root := fakeTree{fakeObject{"tree-root", proto.KindTree}, []proto.Entry{
		{Name: "README.md", Oid: "blob-readme", Kind: proto.KindBlob},
		{Name: "file.txt", Oid: "blob-text", Kind: proto.KindBlob},
		{Name: "logo.png", Oid: "blob-image", Kind: proto.KindBlob},
	}}

	return &fakeRepo{
		name:     "project.git",
		head:     "main",
		branches: map[string]proto.Oid{"main": "commit-1"},
		tags:     map[string]proto.Oid{},
		objects: map[proto.Oid]proto.Object{
			"commit-1":    fakeObject{"commit-1", proto.KindCommit},
			"tree-root":   root,
			"blob-readme": readme,
			"blob-text":   text,
			"blob-image":  image,
		},
		treeOf: map[proto.Oid]proto.Oid{"commit-1": "tree-root"},
	}
}

// setup builds a router wired to a fake repository store and a local object
// store in a temp dir.
func setup(t *testing.T) (http.Handler, *config.Config, *storage.LocalObjectStore, *auth.Authenticator) {
	t.Helper()
	is := is.New(t)

	cfg := config.DefaultConfig()
	cfg.DataPath = t.TempDir()
	cfg.LFS.Secret = "test-secret"
	is.NoErr(cfg.Validate())

	strg := storage.NewLocalStorage(cfg.DataPath)
	signer := storage.NewURLSigner(cfg.LFS.Secret, cfg.HTTP.PublicURL)
	objstore := storage.NewLocalObjectStore(strg, signer)
	authn := auth.NewAuthenticator(cfg.LFS.Secret)

	ctx := context.Background()
	ctx = config.WithContext(ctx, cfg)
	ctx = backend.WithContext(ctx, backend.New(&fakeStore{
		repos: map[string]proto.Repository{"project.git": testRepo()},
	}))
	ctx = storage.WithContext(ctx, objstore)
	ctx = auth.WithContext(ctx, authn)

	return NewRouter(ctx), cfg, objstore, authn
}
