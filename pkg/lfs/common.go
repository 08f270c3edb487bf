// Package lfs defines the Git LFS batch API wire types.
// https://github.com/git-lfs/git-lfs/blob/main/docs/api/batch.md
package lfs

import (
	"time"
)

const (
	// MediaType contains the media type for LFS server requests.
	MediaType = "application/vnd.git-lfs+json"

	// TransferBasic is the name of the Git LFS basic transfer protocol.
	TransferBasic = "basic"

	// HashAlgorithmSHA256 is the only supported content hash algorithm.
	HashAlgorithmSHA256 = "sha256"

	// OperationDownload is the operation name for a download request.
	OperationDownload = "download"

	// OperationUpload is the operation name for an upload request.
	OperationUpload = "upload"

	// ActionDownload is the action name for a download request.
	ActionDownload = OperationDownload

	// ActionUpload is the action name for an upload request.
	ActionUpload = OperationUpload
)

// ValidOperation reports whether op names a known batch operation.
func ValidOperation(op string) bool {
	return op == OperationDownload || op == OperationUpload
}

// Pointer identifies one LFS object: a content hash and its declared size.
type Pointer struct {
	Oid  string `json:"oid"`
	Size int64  `json:"size"`
}

// ErrorResponse describes the error to the client.
type ErrorResponse struct {
	Message          string `json:"message,omitempty"`
	DocumentationURL string `json:"documentation_url,omitempty"`
	RequestID        string `json:"request_id,omitempty"`
}

// BatchRequest contains multiple transfer requests processed in one batch
// operation.
type BatchRequest struct {
	Operation string     `json:"operation"`
	Transfers []string   `json:"transfers,omitempty"`
	Ref       *Reference `json:"ref,omitempty"`
	Objects   []Pointer  `json:"objects"`
	HashAlgo  string     `json:"hash_algo,omitempty"`
}

// Reference contains a git reference.
type Reference struct {
	Name string `json:"name"`
}

// BatchResponse contains the object metadata for a processed batch, in the
// same order the objects were requested.
type BatchResponse struct {
	Transfer string            `json:"transfer,omitempty"`
	Objects  []*ObjectResponse `json:"objects"`
	HashAlgo string            `json:"hash_algo,omitempty"`
}

// ObjectResponse is object metadata as seen by clients of the LFS server.
// An object that needs no transfer carries no actions.
type ObjectResponse struct {
	Pointer
	Authenticated bool             `json:"authenticated"`
	Actions       map[string]*Link `json:"actions,omitempty"`
	Error         *ObjectError     `json:"error,omitempty"`
}

// Link is a presigned action granting time-bounded direct access to one
// object for exactly one operation.
type Link struct {
	Href      string            `json:"href"`
	Header    map[string]string `json:"header"`
	ExpiresIn int64             `json:"expires_in"`
}

// ObjectError defines the JSON structure returned to the client in case of
// a per-object error.
type ObjectError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// AuthenticateResponse is the git-lfs-authenticate JSON response object.
type AuthenticateResponse struct {
	Header    map[string]string `json:"header"`
	Href      string            `json:"href"`
	ExpiresIn int64             `json:"expires_in"`
	ExpiresAt time.Time         `json:"expires_at"`
}
