// Package token implements the token command.
package token

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jeffthecoder/gitview/pkg/auth"
	"github.com/jeffthecoder/gitview/pkg/config"
	"github.com/jeffthecoder/gitview/pkg/lfs"
	"github.com/spf13/cobra"
)

// Command is the token command. It mints a capability token for one
// repository and operation and prints the response git-lfs-authenticate
// expects on stdout.
var Command = &cobra.Command{
	Use:   "token REPOSITORY OPERATION",
	Short: "Mint a Git LFS capability token",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		ctx := c.Context()
		cfg := config.FromContext(ctx)

		repo := strings.TrimSuffix(strings.Trim(args[0], "/"), ".git")
		operation := args[1]
		if !lfs.ValidOperation(operation) {
			return fmt.Errorf("unsupported operation %q", operation)
		}

		now := time.Now()
		expiry := cfg.TokenExpiry()
		authn := auth.FromContext(ctx)
		signed, err := authn.Issue(repo, operation, now, expiry)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}

		resp := lfs.AuthenticateResponse{
			Header: map[string]string{
				"Authorization": "Token " + signed,
			},
			Href:      fmt.Sprintf("%s/%s.git/info/lfs", cfg.HTTP.PublicURL, repo),
			ExpiresIn: int64(expiry.Seconds()),
			ExpiresAt: now.Add(expiry),
		}

		bts, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("marshal response: %w", err)
		}

		c.Println(string(bts))
		return nil
	},
}
