package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/jeffthecoder/gitview/pkg/auth"
	"github.com/jeffthecoder/gitview/pkg/config"
	"github.com/jeffthecoder/gitview/pkg/lfs"
	"github.com/jeffthecoder/gitview/pkg/storage"
	"golang.org/x/sync/errgroup"
)

func askCredentials(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("LFS-Authenticate", `Token realm="Git LFS"`)
}

// serviceLfsBatch handles Git LFS batch requests.
// https://github.com/git-lfs/git-lfs/blob/main/docs/api/batch.md
// POST: /<repo>.git/info/lfs/objects/batch.
func serviceLfsBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := config.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http.lfs")

	if !cfg.LFS.Enabled {
		renderNotFound(w, r)
		return
	}

	if !isLfs(r) {
		logger.Errorf("invalid content type: %s", r.Header.Get("Content-Type"))
		renderNotAcceptable(w)
		return
	}

	token, err := auth.FromContext(ctx).Authenticate(r.Header.Get("Authorization"))
	if err != nil {
		askCredentials(w, r)
		renderJSON(w, http.StatusUnauthorized, lfs.ErrorResponse{
			Message:   "credentials needed",
			RequestID: RequestIDFromContext(ctx),
		})
		return
	}

	var batchRequest lfs.BatchRequest
	defer r.Body.Close() //nolint: errcheck
	if err := json.NewDecoder(r.Body).Decode(&batchRequest); err != nil {
		logger.Errorf("error decoding json: %s", err)
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message:   "validation error in request: " + err.Error(),
			RequestID: RequestIDFromContext(ctx),
		})
		return
	}

	// We only accept basic transfers.
	// Default to basic if no transfer is specified.
	if len(batchRequest.Transfers) > 0 {
		var isBasic bool
		for _, t := range batchRequest.Transfers {
			if t == lfs.TransferBasic {
				isBasic = true
				break
			}
		}

		if !isBasic {
			renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
				Message:   "unsupported transfer",
				RequestID: RequestIDFromContext(ctx),
			})
			return
		}
	}

	if !lfs.ValidOperation(batchRequest.Operation) {
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message:   "unsupported operation",
			RequestID: RequestIDFromContext(ctx),
		})
		return
	}

	if err := token.Allows(batchRequest.Operation); err != nil {
		renderJSON(w, http.StatusForbidden, lfs.ErrorResponse{
			Message:   "operation not permitted by token",
			RequestID: RequestIDFromContext(ctx),
		})
		return
	}

	if len(batchRequest.Objects) == 0 {
		renderJSON(w, http.StatusUnprocessableEntity, lfs.ErrorResponse{
			Message:   "no objects found",
			RequestID: RequestIDFromContext(ctx),
		})
		return
	}

	name := mux.Vars(r)["repo"]
	objstore := storage.FromContext(ctx)
	expiry := cfg.URLExpiry()

	lfsBatchCounter.WithLabelValues(name, batchRequest.Operation).Inc()

	// Check objects concurrently. Results land at the request index so the
	// response preserves request order.
	objects := make([]*lfs.ObjectResponse, len(batchRequest.Objects))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.LFS.Workers)
	for i, o := range batchRequest.Objects {
		i, o := i, o
		g.Go(func() error {
			key := config.LFSObjectKey(name+".git", o.Oid)

			exist, err := objstore.Exists(gctx, key)
			if err != nil {
				// A store fault must not let a client skip a transfer, so an
				// unverifiable object is treated as needing one.
				logger.Error("error checking object", "oid", o.Oid, "repo", name, "err", err)
				exist = false
			}

			resp := &lfs.ObjectResponse{
				Pointer:       o,
				Authenticated: true,
			}

			if !exist {
				var href string
				switch batchRequest.Operation {
				case lfs.OperationDownload:
					href, err = objstore.PresignGet(gctx, key, expiry)
				case lfs.OperationUpload:
					href, err = objstore.PresignPut(gctx, key, expiry)
				}
				if err != nil {
					return err
				}

				resp.Actions = map[string]*lfs.Link{
					batchRequest.Operation: {
						Href:      href,
						Header:    map[string]string{},
						ExpiresIn: int64(expiry.Seconds()),
					},
				}
			}

			objects[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		logger.Error("error preparing batch", "repo", name, "err", err)
		renderJSON(w, http.StatusInternalServerError, lfs.ErrorResponse{
			Message:   "internal server error",
			RequestID: RequestIDFromContext(ctx),
		})
		return
	}

	renderJSON(w, http.StatusOK, lfs.BatchResponse{
		Transfer: lfs.TransferBasic,
		Objects:  objects,
		HashAlgo: lfs.HashAlgorithmSHA256,
	})
}

// serviceLfsTransfer serves the presigned object URLs the batch API hands
// out. The URL signature is the only credential; no Authorization header is
// required here.
func serviceLfsTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := config.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("http.lfs-transfer")

	if !cfg.LFS.Enabled {
		renderNotFound(w, r)
		return
	}

	name, oid := mux.Vars(r)["repo"], mux.Vars(r)["oid"]
	key := config.LFSObjectKey(name+".git", oid)

	local, ok := storage.FromContext(ctx).(*storage.LocalObjectStore)
	if !ok {
		// Presigned URLs point at the external store, nothing to serve here.
		renderNotFound(w, r)
		return
	}

	if err := local.Signer().Verify(r.Method, key, r.URL.Query(), timeNow()); err != nil {
		logger.Debug("rejected transfer url", "key", key, "err", err)
		renderForbidden(w, r)
		return
	}

	lfsTransferCounter.WithLabelValues(name, r.Method).Inc()

	switch r.Method {
	case http.MethodGet:
		serviceLfsTransferDownload(w, r, local.Storage(), key)
	case http.MethodPut:
		serviceLfsTransferUpload(w, r, local.Storage(), key)
	}
}

func serviceLfsTransferDownload(w http.ResponseWriter, r *http.Request, strg storage.Storage, key string) {
	logger := log.FromContext(r.Context()).WithPrefix("http.lfs-transfer")

	obj, err := strg.Open(key)
	if err != nil {
		renderNotFound(w, r)
		return
	}
	defer obj.Close() //nolint: errcheck

	info, err := obj.Stat()
	if err != nil {
		logger.Error("error stating object", "key", key, "err", err)
		renderInternalServerError(w, r)
		return
	}

	hdrNocache(w)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj); err != nil {
		logger.Error("error writing object", "key", key, "err", err)
	}
}

func serviceLfsTransferUpload(w http.ResponseWriter, r *http.Request, strg storage.Storage, key string) {
	logger := log.FromContext(r.Context()).WithPrefix("http.lfs-transfer")

	if !isBinary(r) {
		renderNotAcceptable(w)
		return
	}

	defer r.Body.Close() //nolint: errcheck
	if _, err := strg.Put(key, r.Body); err != nil {
		logger.Error("error storing object", "key", key, "err", err)
		renderInternalServerError(w, r)
		return
	}

	renderStatus(http.StatusOK)(w, r)
}

// serviceLfsLocksVerify is a stub. Locking is not supported, but the
// request body is always drained so clients on keep-alive connections
// don't stall mid-write.
// POST: /<repo>.git/info/lfs/locks/verify.
func serviceLfsLocksVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cfg := config.FromContext(ctx)

	if !cfg.LFS.Enabled {
		renderNotFound(w, r)
		return
	}

	io.Copy(io.Discard, r.Body) //nolint: errcheck
	defer r.Body.Close()        //nolint: errcheck

	renderJSON(w, http.StatusInternalServerError, lfs.ErrorResponse{
		Message:   "lock verification is not supported",
		RequestID: RequestIDFromContext(ctx),
	})
}
