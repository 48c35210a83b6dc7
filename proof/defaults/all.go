/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package defaults

import (
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/proof/checker"
	"github.com/trustbloc/vc-offline-verifier/proof/ldproofs"
)

type verificationMethodResolver interface {
	ResolveVerificationMethod(verificationMethod string, expectedProofIssuer string) (*pubkey.PublicKey, error)
}

// NewDefaultProofChecker creates a proof checker with every supported LD proof suite
// and the PS256, RS256, EdDSA and ES256K signature routines.
func NewDefaultProofChecker(verificationMethodResolver verificationMethodResolver) *checker.ProofChecker {
	return checker.New(verificationMethodResolver,
		checker.WithDispatch(checker.NewDispatch()),
		checker.WithLDProofTypes(ldproofs.All()...),
	)
}
