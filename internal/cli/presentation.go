/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trustbloc/vc-offline-verifier/verifiable"
)

func newVerifyPresentationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-vp [flags] <presentation file | ->",
		Short: "verify a presentation and the ldp_vc credentials it embeds",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerifyPresentation,
	}

	cmd.Flags().StringP("keys", "k", "", "JSON file of cached verification method keys by id")
	cmd.Flags().String("status-lists", "", "JSON file of cached status list credentials by URL")
	cmd.Flags().StringP("contexts", "c", "", "directory of cached JSON-LD contexts")
	viper.BindPFlag("contexts.dir", cmd.Flags().Lookup("contexts")) //nolint:errcheck

	return cmd
}

func runVerifyPresentation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}

	opts, err := verifierOptions(cmd, cfg)
	if err != nil {
		return err
	}

	v, err := verifiable.NewPresentationVerifier(opts...)
	if err != nil {
		return errors.Wrap(err, "initing presentation verifier")
	}

	result, err := v.Verify(cmd.Context(), string(raw))
	if err != nil {
		return errors.Wrap(err, "verifying presentation")
	}

	if err = writeJSON(cmd, result); err != nil {
		return err
	}

	invalid := lo.ContainsBy(result.VCResults, func(r verifiable.VCResult) bool {
		return r.Status == verifiable.StatusInvalid
	})

	if result.ProofVerificationStatus != verifiable.VPValid || invalid {
		return ErrNotVerified
	}

	return nil
}
