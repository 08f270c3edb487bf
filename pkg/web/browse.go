package web

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/jeffthecoder/gitview/pkg/backend"
	"github.com/jeffthecoder/gitview/pkg/proto"
)

type treeEntry struct {
	Name string `json:"name"`
	Oid  string `json:"oid"`
	Kind string `json:"kind"`
}

type treeView struct {
	Repo     string      `json:"repo"`
	Ref      string      `json:"ref"`
	Path     string      `json:"path"`
	Branches []string    `json:"branches"`
	Tags     []string    `json:"tags"`
	Entries  []treeEntry `json:"entries"`
	Readme   string      `json:"readme,omitempty"`
}

type blobView struct {
	Repo    string `json:"repo"`
	Ref     string `json:"ref"`
	Path    string `json:"path"`
	Oid     string `json:"oid"`
	Size    int64  `json:"size"`
	Binary  bool   `json:"binary"`
	Content string `json:"content,omitempty"`
}

// serviceRepoOverview renders the default branch's root tree, the same view
// the tree route gives for an empty path.
// GET: /<repo>.git.
func serviceRepoOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	name := mux.Vars(r)["repo"]

	repo, err := be.Open(ctx, name+".git")
	if err != nil {
		renderResolveError(w, r, err)
		return
	}

	ref, err := repo.DefaultBranch()
	if err != nil {
		if !errors.Is(err, proto.ErrRefNotFound) {
			renderResolveError(w, r, err)
			return
		}

		// Unborn HEAD. Fall back to whatever branch exists.
		branches, _, lerr := be.ListRefs(repo)
		if lerr != nil {
			renderResolveError(w, r, lerr)
			return
		}
		if len(branches) == 0 {
			renderResolveError(w, r, proto.ErrRefNotFound)
			return
		}
		ref = branches[0]
	}

	browseCounter.WithLabelValues(name, "tree").Inc()
	renderTree(w, r, repo, name, ref, "")
}

// serviceBrowse renders a tree or blob at ref and path.
// GET: /<repo>.git/<tree|blob>/<ref>/<path>.
func serviceBrowse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	be := backend.FromContext(ctx)
	vars := mux.Vars(r)
	name, mode, ref, path := vars["repo"], vars["mode"], vars["ref"], vars["path"]

	repo, err := be.Open(ctx, name+".git")
	if err != nil {
		renderResolveError(w, r, err)
		return
	}

	browseCounter.WithLabelValues(name, mode).Inc()

	root, err := be.Resolve(repo, ref)
	if err != nil {
		renderResolveError(w, r, err)
		return
	}

	oid, kind, err := be.Descend(repo, root, path)
	if err != nil {
		renderResolveError(w, r, err)
		return
	}

	switch mode {
	case "tree":
		if kind != proto.KindTree {
			renderResolveError(w, r, proto.ErrKindMismatch)
			return
		}
		renderTreeAt(w, r, repo, name, ref, path, oid)
	case "blob":
		if kind != proto.KindBlob {
			renderResolveError(w, r, proto.ErrKindMismatch)
			return
		}
		renderBlob(w, r, repo, name, ref, path, oid)
	}
}

func renderTree(w http.ResponseWriter, r *http.Request, repo proto.Repository, name, ref, path string) {
	be := backend.FromContext(r.Context())

	root, err := be.Resolve(repo, ref)
	if err != nil {
		renderResolveError(w, r, err)
		return
	}

	oid, kind, err := be.Descend(repo, root, path)
	if err != nil {
		renderResolveError(w, r, err)
		return
	}
	if kind != proto.KindTree {
		renderResolveError(w, r, proto.ErrKindMismatch)
		return
	}

	renderTreeAt(w, r, repo, name, ref, path, oid)
}

func renderTreeAt(w http.ResponseWriter, r *http.Request, repo proto.Repository, name, ref, path string, oid proto.Oid) {
	be := backend.FromContext(r.Context())

	branches, tags, err := be.ListRefs(repo)
	if err != nil {
		renderResolveError(w, r, err)
		return
	}

	entries, err := be.ListEntries(repo, oid)
	if err != nil {
		renderResolveError(w, r, err)
		return
	}

	view := treeView{
		Repo:     name,
		Ref:      ref,
		Path:     path,
		Branches: branches,
		Tags:     tags,
		Entries:  make([]treeEntry, 0, len(entries)),
	}
	for _, e := range entries {
		view.Entries = append(view.Entries, treeEntry{
			Name: e.Name,
			Oid:  e.Oid.String(),
			Kind: e.Kind.String(),
		})
	}

	if obj, err := repo.Object(oid); err == nil {
		if tree, err := repo.Peel(obj); err == nil {
			if readme, ok := be.FindReadme(repo, tree); ok {
				view.Readme = readme
			}
		}
	}

	renderView(w, r, view)
}

func renderBlob(w http.ResponseWriter, r *http.Request, repo proto.Repository, name, ref, path string, oid proto.Oid) {
	blob, err := repo.Blob(oid)
	if err != nil {
		renderResolveError(w, r, err)
		return
	}

	binary, err := blob.IsBinary()
	if err != nil {
		renderResolveError(w, r, err)
		return
	}

	view := blobView{
		Repo:   name,
		Ref:    ref,
		Path:   path,
		Oid:    oid.String(),
		Size:   blob.Size(),
		Binary: binary,
	}

	if !binary {
		content, err := blob.Content()
		if err != nil {
			renderResolveError(w, r, err)
			return
		}
		if utf8.Valid(content) {
			view.Content = string(content)
		} else {
			view.Binary = true
		}
	}

	renderView(w, r, view)
}
