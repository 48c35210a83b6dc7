/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trustbloc/vc-offline-verifier/internal/config"
	"github.com/trustbloc/vc-offline-verifier/internal/logging"
	"github.com/trustbloc/vc-offline-verifier/status"
	"github.com/trustbloc/vc-offline-verifier/verifiable"
	"github.com/trustbloc/vc-offline-verifier/verifiable/lddocument"
)

type verifyOutput struct {
	Verified  bool                         `json:"verified"`
	ErrorCode string                       `json:"errorCode,omitempty"`
	Message   string                       `json:"message,omitempty"`
	Status    status.VerificationLogStatus `json:"status"`
}

func newVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [flags] <credential file | ->",
		Short: "validate and verify a credential",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}

	cmd.Flags().StringP("format", "f", "", "credential format: ldp_vc, jwt_vc, cwt_vc or mso_mdoc (detected when empty)")
	cmd.Flags().StringP("keys", "k", "", "JSON file of cached verification method keys by id")
	cmd.Flags().String("status-lists", "", "JSON file of cached status list credentials by URL")
	cmd.Flags().StringP("contexts", "c", "", "directory of cached JSON-LD contexts")
	viper.BindPFlag("contexts.dir", cmd.Flags().Lookup("contexts")) //nolint:errcheck

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	credential := string(raw)

	format, err := credentialFormat(cmd, credential)
	if err != nil {
		return err
	}

	opts, err := verifierOptions(cmd, cfg)
	if err != nil {
		return err
	}

	v, err := verifiable.NewCredentialsVerifier(opts...)
	if err != nil {
		return errors.Wrap(err, "initing verifier")
	}

	result := v.Verify(cmd.Context(), credential, format)

	err = writeJSON(cmd, verifyOutput{
		Verified:  result.Verified,
		ErrorCode: result.ErrorCode,
		Message:   result.Message,
		Status:    status.DeriveVerificationLogStatus(result),
	})
	if err != nil {
		return err
	}

	if !result.Verified {
		return ErrNotVerified
	}

	return nil
}

func credentialFormat(cmd *cobra.Command, credential string) (verifiable.Format, error) {
	name, _ := cmd.Flags().GetString("format") //nolint:errcheck
	if name == "" {
		f, err := verifiable.DetectFormat(credential)

		return f, errors.Wrap(err, "detecting credential format")
	}

	f, err := verifiable.ParseFormat(name)

	return f, errors.Wrap(err, "parsing --format")
}

func verifierOptions(cmd *cobra.Command, cfg *config.Config) ([]verifiable.Opt, error) {
	loader, err := documentLoader(cfg)
	if err != nil {
		return nil, err
	}

	opts := []verifiable.Opt{
		verifiable.WithDocumentLoader(loader),
		verifiable.WithResolver(newKeyResolver(cfg)),
		verifiable.WithLogger(logging.Entry()),
	}

	if path, _ := cmd.Flags().GetString("keys"); path != "" { //nolint:errcheck
		keys := map[string]lddocument.CachedKey{}

		if err = readJSONFile(path, &keys); err != nil {
			return nil, err
		}

		opts = append(opts, verifiable.WithKeyStore(lddocument.NewMapKeyStore(keys)))
	}

	if path, _ := cmd.Flags().GetString("status-lists"); path != "" { //nolint:errcheck
		lists := status.MapListStore{}

		if err = readJSONFile(path, &lists); err != nil {
			return nil, err
		}

		listVerifier, err := verifiable.NewStatusListVerifier(opts...)
		if err != nil {
			return nil, errors.Wrap(err, "initing status list verifier")
		}

		opts = append(opts, verifiable.WithStatusChecker(status.NewClient(lists, status.WithListVerifier(listVerifier))))
	}

	return opts, nil
}

func documentLoader(cfg *config.Config) (*lddocument.DocumentLoader, error) {
	loaderOpts := []lddocument.LoaderOpt{lddocument.WithLoaderLogger(logging.Entry())}

	if cfg.Contexts.Online {
		loaderOpts = append(loaderOpts, lddocument.WithOnlineFallback(
			&http.Client{Timeout: cfg.HTTP.Timeout}, cfg.Contexts.CacheBytes))
	}

	loader, err := lddocument.NewDocumentLoader(loaderOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "initing document loader")
	}

	if cfg.Contexts.Dir != "" {
		n, err := loader.LoadContextsDir(cfg.Contexts.Dir)
		if err != nil {
			return nil, errors.Wrap(err, "loading contexts")
		}

		logging.Entry().WithField("count", n).Debug("loaded cached contexts")
	}

	return loader, nil
}
