/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package suite defines the interface of data integrity cryptographic suites.
package suite

import (
	"errors"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/models"
)

var (
	// ErrProofTransformation is returned when a proof does not name a cryptosuite the suite implements.
	ErrProofTransformation = errors.New("error transforming proof")
	// ErrSignatureMismatch is returned when a well formed proof value does not match the document.
	ErrSignatureMismatch = errors.New("data integrity proof signature mismatch")
)

// Verifier verifies data integrity proofs of one cryptographic suite.
type Verifier interface {
	// VerifyProof checks proof over doc, which must not carry the proof, with the verification method key.
	VerifyProof(doc map[string]interface{}, proof *models.Proof, key *pubkey.PublicKey) error
	// Type returns the cryptosuite names the verifier implements.
	Type() []string
}
