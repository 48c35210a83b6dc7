/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package dataintegrity verifies Data Integrity proofs (https://www.w3.org/TR/vc-data-integrity/).
package dataintegrity

import (
	"errors"
	"fmt"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/models"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/suite"
)

var (
	// ErrUnsupportedSuite is returned when a Verifier is required to use
	// a cryptographic suite for which it doesn't have a suite.Verifier initialized.
	ErrUnsupportedSuite = errors.New("data integrity proof requires unsupported cryptographic suite")
	// ErrVMResolution is returned when a Verifier needs to resolve a
	// verification method but this fails.
	ErrVMResolution = errors.New("failed to resolve verification method")
	// ErrWrongProofPurpose is returned when a proof was made for another purpose.
	ErrWrongProofPurpose = errors.New("proof purpose does not match")
)

type keyResolver interface {
	ResolveVerificationMethod(verificationMethod string, expectedProofIssuer string) (*pubkey.PublicKey, error)
}

// Verifier verifies data integrity proofs with the registered suites.
type Verifier struct {
	resolver keyResolver
	purpose  string
	suites   map[string]suite.Verifier
}

// NewVerifier creates Verifier. Proofs must be made for purpose.
func NewVerifier(resolver keyResolver, purpose string, suites ...suite.Verifier) *Verifier {
	v := &Verifier{
		resolver: resolver,
		purpose:  purpose,
		suites:   make(map[string]suite.Verifier),
	}

	for _, s := range suites {
		for _, t := range s.Type() {
			v.suites[t] = s
		}
	}

	return v
}

// VerifyProof checks rawProof, one proof of doc. A signature that does not match returns
// suite.ErrSignatureMismatch.
func (v *Verifier) VerifyProof(doc, rawProof map[string]interface{}) error {
	proof, err := models.ParseProof(rawProof)
	if err != nil {
		return err
	}

	if proof.ProofPurpose != v.purpose {
		return fmt.Errorf("%w: %q", ErrWrongProofPurpose, proof.ProofPurpose)
	}

	verifier, ok := v.suites[proof.CryptoSuite]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedSuite, proof.CryptoSuite)
	}

	key, err := v.resolver.ResolveVerificationMethod(proof.VerificationMethod, "")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVMResolution, err)
	}

	return verifier.VerifyProof(doc, proof, key)
}
