package proto

import (
	"errors"
)

var (
	// ErrUnauthenticated is returned when no valid capability token accompanies a request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when a token's bound command doesn't match the requested operation.
	ErrForbidden = errors.New("forbidden")
	// ErrRepoNotFound is returned when a repository is not found.
	ErrRepoNotFound = errors.New("repository not found")
	// ErrRefNotFound is returned when a name matches no branch, tag, or raw object id.
	ErrRefNotFound = errors.New("reference not found")
	// ErrObjectNotFound is returned when an object id has no object behind it.
	ErrObjectNotFound = errors.New("object not found")
	// ErrPathNotFound is returned when a path segment cannot be descended to.
	ErrPathNotFound = errors.New("path not found")
	// ErrInvalidPath is returned when a path is given against a non-descendable root.
	ErrInvalidPath = errors.New("invalid path")
	// ErrKindMismatch is returned when a resolved entry doesn't match the requested display mode.
	ErrKindMismatch = errors.New("object kind mismatch")
	// ErrNotPeelable is returned when an object cannot be peeled to a tree.
	ErrNotPeelable = errors.New("object cannot be peeled to a tree")
	// ErrStoreUnavailable is returned on an object store I/O fault.
	ErrStoreUnavailable = errors.New("object store unavailable")
	// ErrUpstreamFault is returned on a repository store read fault.
	ErrUpstreamFault = errors.New("repository store fault")
)
