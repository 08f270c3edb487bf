package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jeffthecoder/gitview/pkg/lfs"
	"github.com/matryer/is"
)

var (
	oidOne = strings.Repeat("1", 64)
	oidTwo = strings.Repeat("2", 64)
)

func batchRequest(t *testing.T, token string, req lfs.BatchRequest) *http.Request {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodPost, "/project.git/info/lfs/objects/batch", bytes.NewReader(body))
	r.Header.Set("Content-Type", lfs.MediaType)
	r.Header.Set("Accept", lfs.MediaType)
	if token != "" {
		r.Header.Set("Authorization", "Token "+token)
	}
	return r
}

func decodeBatch(t *testing.T, w *httptest.ResponseRecorder) lfs.BatchResponse {
	t.Helper()
	var resp lfs.BatchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestLfsBatch(t *testing.T) {
	handler, cfg, objstore, authn := setup(t)

	download := func(t *testing.T) string {
		t.Helper()
		is := is.New(t)
		signed, err := authn.Issue("project", lfs.OperationDownload, time.Now(), time.Minute)
		is.NoErr(err)
		return signed
	}

	t.Run("no credentials", func(t *testing.T) {
		is := is.New(t)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, batchRequest(t, "", lfs.BatchRequest{
			Operation: lfs.OperationDownload,
			Objects:   []lfs.Pointer{{Oid: oidOne, Size: 1}},
		}))
		is.Equal(w.Code, http.StatusUnauthorized)
		is.True(w.Header().Get("LFS-Authenticate") != "")
	})

	t.Run("expired token", func(t *testing.T) {
		is := is.New(t)
		signed, err := authn.Issue("project", lfs.OperationDownload, time.Now().Add(-time.Hour), time.Minute)
		is.NoErr(err)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, batchRequest(t, signed, lfs.BatchRequest{
			Operation: lfs.OperationDownload,
			Objects:   []lfs.Pointer{{Oid: oidOne, Size: 1}},
		}))
		is.Equal(w.Code, http.StatusUnauthorized)

		resp := decodeBatch(t, w)
		is.Equal(len(resp.Objects), 0)
	})

	t.Run("operation not covered by token", func(t *testing.T) {
		is := is.New(t)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, batchRequest(t, download(t), lfs.BatchRequest{
			Operation: lfs.OperationUpload,
			Objects:   []lfs.Pointer{{Oid: oidOne, Size: 1}},
		}))
		is.Equal(w.Code, http.StatusForbidden)
	})

	t.Run("wrong media type", func(t *testing.T) {
		is := is.New(t)
		r := batchRequest(t, download(t), lfs.BatchRequest{
			Operation: lfs.OperationDownload,
			Objects:   []lfs.Pointer{{Oid: oidOne, Size: 1}},
		})
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		is.Equal(w.Code, http.StatusNotAcceptable)
	})

	t.Run("no objects", func(t *testing.T) {
		is := is.New(t)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, batchRequest(t, download(t), lfs.BatchRequest{
			Operation: lfs.OperationDownload,
		}))
		is.Equal(w.Code, http.StatusUnprocessableEntity)
	})

	t.Run("unknown operation", func(t *testing.T) {
		is := is.New(t)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, batchRequest(t, download(t), lfs.BatchRequest{
			Operation: "delete",
			Objects:   []lfs.Pointer{{Oid: oidOne, Size: 1}},
		}))
		is.Equal(w.Code, http.StatusUnprocessableEntity)
	})

	t.Run("unsupported transfer", func(t *testing.T) {
		is := is.New(t)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, batchRequest(t, download(t), lfs.BatchRequest{
			Operation: lfs.OperationDownload,
			Transfers: []string{"multipart"},
			Objects:   []lfs.Pointer{{Oid: oidOne, Size: 1}},
		}))
		is.Equal(w.Code, http.StatusUnprocessableEntity)
	})

	t.Run("download preserves order and skips present objects", func(t *testing.T) {
		is := is.New(t)
		_, err := objstore.Storage().Put("project.git/lfs/objects/"+oidOne, strings.NewReader("present"))
		is.NoErr(err)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, batchRequest(t, download(t), lfs.BatchRequest{
			Operation: lfs.OperationDownload,
			Objects: []lfs.Pointer{
				{Oid: oidOne, Size: 7},
				{Oid: oidTwo, Size: 9},
			},
		}))
		is.Equal(w.Code, http.StatusOK)

		resp := decodeBatch(t, w)
		is.Equal(resp.Transfer, lfs.TransferBasic)
		is.Equal(resp.HashAlgo, lfs.HashAlgorithmSHA256)
		is.Equal(len(resp.Objects), 2)

		present := resp.Objects[0]
		is.Equal(present.Oid, oidOne)
		is.True(present.Authenticated)
		is.Equal(len(present.Actions), 0)

		absent := resp.Objects[1]
		is.Equal(absent.Oid, oidTwo)
		action, ok := absent.Actions[lfs.ActionDownload]
		is.True(ok)
		is.Equal(action.ExpiresIn, int64(cfg.URLExpiry().Seconds()))
		is.Equal(len(action.Header), 0)

		u, err := url.Parse(action.Href)
		is.NoErr(err)
		is.Equal(u.Path, "/project.git/lfs/objects/"+oidTwo)
		is.NoErr(objstore.Signer().Verify(http.MethodGet, "project.git/lfs/objects/"+oidTwo, u.Query(), time.Now()))
	})

	t.Run("upload presigns put", func(t *testing.T) {
		is := is.New(t)
		signed, err := authn.Issue("project", lfs.OperationUpload, time.Now(), time.Minute)
		is.NoErr(err)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, batchRequest(t, signed, lfs.BatchRequest{
			Operation: lfs.OperationUpload,
			Objects:   []lfs.Pointer{{Oid: oidTwo, Size: 9}},
		}))
		is.Equal(w.Code, http.StatusOK)

		resp := decodeBatch(t, w)
		is.Equal(len(resp.Objects), 1)
		action, ok := resp.Objects[0].Actions[lfs.ActionUpload]
		is.True(ok)

		u, err := url.Parse(action.Href)
		is.NoErr(err)
		is.NoErr(objstore.Signer().Verify(http.MethodPut, "project.git/lfs/objects/"+oidTwo, u.Query(), time.Now()))
	})
}

func TestLfsTransfer(t *testing.T) {
	handler, _, objstore, _ := setup(t)
	key := "project.git/lfs/objects/" + oidOne

	t.Run("upload then download", func(t *testing.T) {
		is := is.New(t)
		put, err := objstore.PresignPut(context.TODO(), key, time.Hour)
		is.NoErr(err)

		u, err := url.Parse(put)
		is.NoErr(err)
		r := httptest.NewRequest(http.MethodPut, u.RequestURI(), strings.NewReader("large content"))
		r.Header.Set("Content-Type", "application/octet-stream")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		is.Equal(w.Code, http.StatusOK)

		get, err := objstore.PresignGet(context.TODO(), key, time.Hour)
		is.NoErr(err)
		u, err = url.Parse(get)
		is.NoErr(err)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
		is.Equal(w.Code, http.StatusOK)
		is.Equal(w.Body.String(), "large content")
	})

	t.Run("bad signature", func(t *testing.T) {
		is := is.New(t)
		get, err := objstore.PresignGet(context.TODO(), key, time.Hour)
		is.NoErr(err)
		u, err := url.Parse(get)
		is.NoErr(err)
		q := u.Query()
		q.Set("signature", "00deadbeef")
		u.RawQuery = q.Encode()

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
		is.Equal(w.Code, http.StatusForbidden)
	})

	t.Run("missing object", func(t *testing.T) {
		is := is.New(t)
		missing := "project.git/lfs/objects/" + oidTwo
		get, err := objstore.PresignGet(context.TODO(), missing, time.Hour)
		is.NoErr(err)
		u, err := url.Parse(get)
		is.NoErr(err)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))
		is.Equal(w.Code, http.StatusNotFound)
	})
}

func TestLfsLocksVerify(t *testing.T) {
	is := is.New(t)
	handler, _, _, _ := setup(t)

	// A body bigger than any buffer the server might keep around. The
	// handler has to drain it before responding.
	body := bytes.Repeat([]byte("x"), 1<<20)
	r := httptest.NewRequest(http.MethodPost, "/project.git/info/lfs/locks/verify", bytes.NewReader(body))
	r.Header.Set("Content-Type", lfs.MediaType)
	r.Header.Set("Accept", lfs.MediaType)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	is.Equal(w.Code, http.StatusInternalServerError)

	var resp lfs.ErrorResponse
	is.NoErr(json.NewDecoder(w.Body).Decode(&resp))
	is.True(resp.Message != "")
}
