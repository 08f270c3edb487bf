package backend

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jeffthecoder/gitview/pkg/proto"
)

// rawOidPattern matches a full hex object id. Compiled once, never mutated.
var rawOidPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// Resolve maps a textual ref to an object id. Precedence, first hit wins:
//
//  1. a local branch named exactly name, peeled to its tree;
//  2. a tag whose shortened name equals name, returning its recorded
//     target without peeling;
//  3. name parsed as a raw hex object id, lowercased to the canonical hash
//     form. Existence is not verified here; a later object lookup may
//     still fail.
//
// An exact branch always beats a tag of the same name, and both beat
// content addressing by raw id. Returns ErrRefNotFound when nothing
// applies. Resolution is read-only and idempotent against an unchanged
// repository.
func (b *Backend) Resolve(repo proto.Repository, name string) (proto.Oid, error) {
	tip, err := repo.BranchTip(name)
	switch {
	case err == nil:
		tree, err := repo.Peel(tip)
		if err != nil {
			return "", err
		}
		return tree.ID(), nil
	case !errors.Is(err, proto.ErrRefNotFound):
		return "", err
	}

	oid, err := repo.TagTarget(name)
	switch {
	case err == nil:
		return oid, nil
	case !errors.Is(err, proto.ErrRefNotFound):
		return "", err
	}

	if rawOidPattern.MatchString(name) {
		return proto.Oid(strings.ToLower(name)), nil
	}

	return "", proto.ErrRefNotFound
}

// ListRefs returns branch names and shortened tag names for display, one
// full scan each, in store enumeration order.
func (b *Backend) ListRefs(repo proto.Repository) (branches, tags []string, err error) {
	branches, err = repo.Branches()
	if err != nil {
		return nil, nil, err
	}

	tags, err = repo.Tags()
	if err != nil {
		return nil, nil, err
	}

	return branches, tags, nil
}
