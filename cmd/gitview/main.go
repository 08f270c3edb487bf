package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/jeffthecoder/gitview/cmd/gitview/serve"
	"github.com/jeffthecoder/gitview/cmd/gitview/token"
	"github.com/jeffthecoder/gitview/pkg/auth"
	"github.com/jeffthecoder/gitview/pkg/backend"
	"github.com/jeffthecoder/gitview/pkg/config"
	"github.com/jeffthecoder/gitview/pkg/git"
	logger "github.com/jeffthecoder/gitview/pkg/log"
	"github.com/jeffthecoder/gitview/pkg/storage"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

var (
	// Version contains the application version number. It's set via ldflags
	// when building.
	Version = ""

	// CommitSHA contains the SHA of the commit that this application was built
	// against. It's set via ldflags when building.
	CommitSHA = ""

	rootCmd = &cobra.Command{
		Use:          "gitview",
		Short:        "A read-only source repository viewer and Git LFS gateway",
		Long:         "Gitview serves repository browsing views and the Git LFS batch API over HTTP.",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(
		serve.Command,
		token.Command,
	)

	rootCmd.CompletionOptions.HiddenDefaultCmd = true

	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
			Version = info.Main.Version
		} else {
			Version = "unknown (built from source)"
		}
	}
	rootCmd.Version = Version
}

func main() {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx = config.WithContext(ctx, cfg)

	l, f, err := logger.NewLogger(cfg)
	if err != nil {
		log.Errorf("error creating logger: %v", err)
	}
	if f != nil {
		defer f.Close() //nolint:errcheck
	}

	// Set global logger
	log.SetDefault(l)

	// Set the max number of processes to the number of CPUs
	// This is useful when running gitview in a container
	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.Warn("couldn't set automaxprocs", "error", err)
	}

	ctx = log.WithContext(ctx, l)

	// Set up the repository store and resolution backend
	store := git.NewStore(cfg.ReposPath)
	be := backend.New(store)
	ctx = backend.WithContext(ctx, be)

	// Set up the LFS object store
	strg := storage.NewLocalStorage(cfg.DataPath)
	signer := storage.NewURLSigner(cfg.LFS.Secret, cfg.HTTP.PublicURL)
	ctx = storage.WithContext(ctx, storage.NewLocalObjectStore(strg, signer))

	// Set up the token authenticator
	ctx = auth.WithContext(ctx, auth.NewAuthenticator(cfg.LFS.Secret))

	if rootCmd.ExecuteContext(ctx) != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if cfg.Exist() {
		if err := cfg.ParseFile(); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	} else {
		if err := cfg.WriteConfig(); err != nil {
			return nil, fmt.Errorf("write config file: %w", err)
		}
	}

	if err := cfg.ParseEnv(); err != nil {
		return nil, fmt.Errorf("parse environment variables: %w", err)
	}

	return cfg, nil
}
