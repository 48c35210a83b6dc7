/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cli implements the vcverify command line.
package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trustbloc/vc-offline-verifier/internal/config"
	"github.com/trustbloc/vc-offline-verifier/internal/logging"
	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

// ErrNotVerified is returned by the verify commands when the credential or presentation did not verify.
var ErrNotVerified = errors.New("credential not verified")

// Execute runs the vcverify root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand creates the vcverify command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "vcverify",
		Short:         "verify verifiable credentials offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "increase verbosity")
	viper.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose")) //nolint:errcheck

	root.AddCommand(newVerifyCommand(), newVerifyPresentationCommand(), newResolveCommand())

	return root
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, errors.Wrap(err, "loading config")
	}

	return cfg, nil
}

// newKeyResolver creates the did:key, did:web and https resolver behind a key cache.
func newKeyResolver(cfg *config.Config) vermethod.KeyResolver {
	resolver := vermethod.NewResolver(
		vermethod.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}),
		vermethod.WithLogger(logging.Entry()),
	)

	if cfg.Cache.Size == 0 {
		return resolver
	}

	return vermethod.NewCachingResolver(resolver, cfg.Cache.Size, cfg.Cache.TTL)
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())

		return b, errors.Wrap(err, "reading stdin")
	}

	b, err := os.ReadFile(path) //nolint:gosec

	return b, errors.Wrapf(err, "reading %s", path)
}

func readJSONFile(path string, v interface{}) error {
	b, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return errors.Wrapf(err, "reading %s", path)
	}

	return errors.Wrapf(json.Unmarshal(b, v), "decoding %s", path)
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return errors.Wrap(enc.Encode(v), "writing output")
}
