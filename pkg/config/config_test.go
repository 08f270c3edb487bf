package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestDefaultConfig(t *testing.T) {
	is := is.New(t)
	t.Setenv("GITVIEW_DATA_PATH", t.TempDir())

	cfg := DefaultConfig()
	is.NoErr(cfg.Validate())
	is.True(filepath.IsAbs(cfg.DataPath))
	is.True(filepath.IsAbs(cfg.ReposPath))
	is.Equal(cfg.HTTP.ListenAddr, ":8080")
	is.Equal(cfg.TokenExpiry(), 30*time.Minute)
	is.Equal(cfg.URLExpiry(), time.Hour)
	is.True(cfg.LFS.Workers > 0)
}

func TestParseEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("GITVIEW_DATA_PATH", t.TempDir())
	t.Setenv("GITVIEW_NAME", "testview")
	t.Setenv("GITVIEW_HTTP_LISTEN_ADDR", ":9999")
	t.Setenv("GITVIEW_HTTP_PUBLIC_URL", "https://git.example.com/")
	t.Setenv("GITVIEW_LFS_SECRET", "s3cret")
	t.Setenv("GITVIEW_LFS_URL_EXPIRY", "2h")
	t.Setenv("GITVIEW_LFS_WORKERS", "3")

	cfg := DefaultConfig()
	is.NoErr(cfg.ParseEnv())
	is.Equal(cfg.Name, "testview")
	is.Equal(cfg.HTTP.ListenAddr, ":9999")
	is.Equal(cfg.HTTP.PublicURL, "https://git.example.com")
	is.Equal(cfg.LFS.Secret, "s3cret")
	is.Equal(cfg.URLExpiry(), 2*time.Hour)
	is.Equal(cfg.LFS.Workers, 3)
}

func TestValidate(t *testing.T) {
	t.Run("bad token expiry", func(t *testing.T) {
		is := is.New(t)
		cfg := DefaultConfig()
		cfg.LFS.TokenExpiry = "soon"
		is.True(cfg.Validate() != nil)
	})

	t.Run("bad url expiry", func(t *testing.T) {
		is := is.New(t)
		cfg := DefaultConfig()
		cfg.LFS.URLExpiry = "later"
		is.True(cfg.Validate() != nil)
	})

	t.Run("non-positive workers fall back", func(t *testing.T) {
		is := is.New(t)
		cfg := DefaultConfig()
		cfg.LFS.Workers = 0
		is.NoErr(cfg.Validate())
		is.Equal(cfg.LFS.Workers, 8)
	})
}

func TestLFSObjectKey(t *testing.T) {
	is := is.New(t)
	is.Equal(LFSObjectKey("project.git", "deadbeef"), "project.git/lfs/objects/deadbeef")
}
