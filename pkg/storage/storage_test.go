package storage

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestLocalStorage(t *testing.T) {
	is := is.New(t)
	strg := NewLocalStorage(t.TempDir())

	key := "project.git/lfs/objects/abc123"

	exist, err := strg.Exists(key)
	is.NoErr(err)
	is.True(!exist)

	n, err := strg.Put(key, strings.NewReader("payload"))
	is.NoErr(err)
	is.Equal(n, int64(7))

	exist, err = strg.Exists(key)
	is.NoErr(err)
	is.True(exist)

	info, err := strg.Stat(key)
	is.NoErr(err)
	is.Equal(info.Size(), int64(7))

	f, err := strg.Open(key)
	is.NoErr(err)
	content, err := io.ReadAll(f)
	is.NoErr(err)
	is.NoErr(f.Close())
	is.Equal(string(content), "payload")

	is.NoErr(strg.Delete(key))
	exist, err = strg.Exists(key)
	is.NoErr(err)
	is.True(!exist)
}

func TestURLSigner(t *testing.T) {
	signer := NewURLSigner("secret", "http://localhost:8080")
	now := time.Now()

	parse := func(t *testing.T, raw string) url.Values {
		t.Helper()
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatal(err)
		}
		return u.Query()
	}

	t.Run("roundtrip", func(t *testing.T) {
		is := is.New(t)
		raw := signer.Sign(http.MethodGet, "a.git/lfs/objects/oid", now.Add(time.Hour))
		is.True(strings.HasPrefix(raw, "http://localhost:8080/a.git/lfs/objects/oid?"))
		is.NoErr(signer.Verify(http.MethodGet, "a.git/lfs/objects/oid", parse(t, raw), now))
	})

	t.Run("method is part of the signature", func(t *testing.T) {
		is := is.New(t)
		raw := signer.Sign(http.MethodGet, "a.git/lfs/objects/oid", now.Add(time.Hour))
		err := signer.Verify(http.MethodPut, "a.git/lfs/objects/oid", parse(t, raw), now)
		is.True(err != nil)
	})

	t.Run("key is part of the signature", func(t *testing.T) {
		is := is.New(t)
		raw := signer.Sign(http.MethodGet, "a.git/lfs/objects/oid", now.Add(time.Hour))
		err := signer.Verify(http.MethodGet, "b.git/lfs/objects/oid", parse(t, raw), now)
		is.True(err != nil)
	})

	t.Run("expired url", func(t *testing.T) {
		is := is.New(t)
		raw := signer.Sign(http.MethodGet, "a.git/lfs/objects/oid", now.Add(time.Hour))
		err := signer.Verify(http.MethodGet, "a.git/lfs/objects/oid", parse(t, raw), now.Add(2*time.Hour))
		is.True(err != nil)
	})

	t.Run("missing query params", func(t *testing.T) {
		is := is.New(t)
		err := signer.Verify(http.MethodGet, "a.git/lfs/objects/oid", url.Values{}, now)
		is.True(err != nil)
	})

	t.Run("tampered expiry", func(t *testing.T) {
		is := is.New(t)
		raw := signer.Sign(http.MethodGet, "a.git/lfs/objects/oid", now.Add(time.Minute))
		q := parse(t, raw)
		q.Set("expires", "9999999999")
		err := signer.Verify(http.MethodGet, "a.git/lfs/objects/oid", q, now)
		is.True(err != nil)
	})
}

func TestLocalObjectStore(t *testing.T) {
	is := is.New(t)
	ctx := context.TODO()
	strg := NewLocalStorage(t.TempDir())
	signer := NewURLSigner("secret", "http://localhost:8080")
	store := NewLocalObjectStore(strg, signer)

	key := "project.git/lfs/objects/deadbeef"

	exist, err := store.Exists(ctx, key)
	is.NoErr(err)
	is.True(!exist)

	_, err = strg.Put(key, strings.NewReader("content"))
	is.NoErr(err)

	exist, err = store.Exists(ctx, key)
	is.NoErr(err)
	is.True(exist)

	get, err := store.PresignGet(ctx, key, time.Hour)
	is.NoErr(err)
	u, err := url.Parse(get)
	is.NoErr(err)
	is.Equal(u.Path, "/"+key)
	is.NoErr(signer.Verify(http.MethodGet, key, u.Query(), time.Now()))

	put, err := store.PresignPut(ctx, key, time.Hour)
	is.NoErr(err)
	u, err = url.Parse(put)
	is.NoErr(err)
	is.NoErr(signer.Verify(http.MethodPut, key, u.Query(), time.Now()))
}
