/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cli

import (
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trustbloc/kms-go/doc/jose/jwk"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
)

type keyOutput struct {
	VerificationMethod     string          `json:"verificationMethod"`
	VerificationMethodType string          `json:"verificationMethodType,omitempty"`
	KeyType                pubkey.KeyType  `json:"keyType"`
	Encoding               pubkey.Encoding `json:"encoding"`
	PublicKeyHex           string          `json:"publicKeyHex,omitempty"`
	PublicKeyJwk           *jwk.JWK        `json:"publicKeyJwk,omitempty"`
}

func newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <verification method id>",
		Short: "resolve a did:key, did:web or https verification method to its normalized key",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	key, err := newKeyResolver(cfg).Resolve(cmd.Context(), args[0])
	if err != nil {
		return errors.Wrapf(err, "resolving %s", args[0])
	}

	return writeJSON(cmd, keyView(key))
}

func keyView(key *pubkey.PublicKey) keyOutput {
	out := keyOutput{
		VerificationMethod:     key.VerificationMethod,
		VerificationMethodType: key.VerificationMethodType,
		KeyType:                key.Type,
		Encoding:               key.Encoding,
		PublicKeyJwk:           key.JWK,
	}

	if key.BytesKey != nil {
		out.PublicKeyHex = hex.EncodeToString(key.BytesKey.Bytes)
	}

	return out
}
