// Package storage provides object storage for LFS artifacts, plus the
// presigned-URL capability the batch gateway hands out.
package storage

import (
	"context"
	"io"
	"io/fs"
	"time"
)

// Object is an interface for objects that can be stored.
type Object interface {
	io.Seeker
	fs.File
	Name() string
}

// Storage is an interface for storing and retrieving objects.
type Storage interface {
	Open(name string) (Object, error)
	Stat(name string) (fs.FileInfo, error)
	Put(name string, r io.Reader) (int64, error)
	Delete(name string) error
	Exists(name string) (bool, error)
}

// ObjectStore is the backing store the LFS gateway consults: an existence
// check and presigned, time-bounded transfer URLs. Implementations are
// expected to be safe for concurrent use.
type ObjectStore interface {
	// Exists reports whether an object is present under the given key.
	Exists(ctx context.Context, key string) (bool, error)

	// PresignGet returns a URL granting read access to the object for the
	// given duration.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)

	// PresignPut returns a URL granting write access to the object for the
	// given duration.
	PresignPut(ctx context.Context, key string, expires time.Duration) (string, error)
}
