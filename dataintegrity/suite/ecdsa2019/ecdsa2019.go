/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ecdsa2019

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"

	"github.com/multiformats/go-multibase"
	"github.com/piprate/json-gold/ld"
	"github.com/trustbloc/did-go/doc/ld/processor"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/ecdsa"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/models"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/suite"
)

const (
	// SuiteType "ecdsa-2019" is the data integrity Type identifier for the suite
	// implementing ecdsa signatures with RDF canonicalization as per this
	// spec:https://www.w3.org/TR/vc-di-ecdsa/#ecdsa-2019
	SuiteType = "ecdsa-2019"

	// SuiteTypeNew "ecdsa-rdfc-2019" is the data integrity Type identifier for the suite
	SuiteTypeNew = "ecdsa-rdfc-2019"
)

const (
	ldCtxKey   = "@context"
	ldProofKey = "proof"
)

// A Verifier is able to verify messages.
type Verifier interface {
	// Verify reports whether signature matches msg under pubKey. Malformed input returns an error.
	Verify(signature, msg []byte, pubKey *pubkey.PublicKey) (bool, error)
}

// Suite implements the ecdsa-2019 data integrity cryptographic suite.
type Suite struct {
	ldLoader     ld.DocumentLoader
	p256Verifier Verifier
	p384Verifier Verifier
}

// VerifierInitializerOptions provides options for a verification Suite.
type VerifierInitializerOptions struct {
	LDDocumentLoader ld.DocumentLoader // required
	P256Verifier     Verifier          // optional
	P384Verifier     Verifier          // optional
}

// NewVerifier creates an ecdsa-2019 verification Suite.
func NewVerifier(options *VerifierInitializerOptions) *Suite {
	p256Verifier, p384Verifier := options.P256Verifier, options.P384Verifier

	if p256Verifier == nil {
		p256Verifier = ecdsa.NewES256()
	}

	if p384Verifier == nil {
		p384Verifier = ecdsa.NewES384()
	}

	return &Suite{
		ldLoader:     options.LDDocumentLoader,
		p256Verifier: p256Verifier,
		p384Verifier: p384Verifier,
	}
}

// Type implements suite.Verifier.
func (s *Suite) Type() []string {
	return []string{SuiteType, SuiteTypeNew}
}

// VerifyProof implements the ecdsa-2019 cryptographic suite for Verify Proof:
// https://www.w3.org/TR/vc-di-ecdsa/#verify-proof-ecdsa-rdfc-2019
func (s *Suite) VerifyProof(doc map[string]interface{}, proof *models.Proof, key *pubkey.PublicKey) error {
	message, verifier, err := s.transformAndHash(doc, proof, key)
	if err != nil {
		return err
	}

	_, signature, err := multibase.Decode(proof.ProofValue)
	if err != nil {
		return fmt.Errorf("decoding proofValue: %w", err)
	}

	ok, err := verifier.Verify(signature, message, key)
	if err != nil {
		return fmt.Errorf("failed to verify ecdsa-2019 DI proof: %w", err)
	}

	if !ok {
		return suite.ErrSignatureMismatch
	}

	return nil
}

func (s *Suite) transformAndHash(doc map[string]interface{}, proof *models.Proof,
	key *pubkey.PublicKey) ([]byte, Verifier, error) {
	if proof.Type != models.DataIntegrityProof ||
		(proof.CryptoSuite != SuiteType && proof.CryptoSuite != SuiteTypeNew) {
		return nil, nil, suite.ErrProofTransformation
	}

	var (
		h        hash.Hash
		verifier Verifier
	)

	switch key.Type {
	case pubkey.P256:
		h = sha256.New()
		verifier = s.p256Verifier
	case pubkey.P384:
		h = sha512.New384()
		verifier = s.p384Verifier
	default:
		return nil, nil, errors.New("unsupported ECDSA curve")
	}

	unsecured := make(map[string]interface{}, len(doc))

	for k, v := range doc {
		if k != ldProofKey {
			unsecured[k] = v
		}
	}

	canonDoc, err := canonicalize(unsecured, s.ldLoader)
	if err != nil {
		return nil, nil, err
	}

	canonConf, err := canonicalize(proofConfig(doc[ldCtxKey], proof), s.ldLoader)
	if err != nil {
		return nil, nil, err
	}

	return hashData(canonDoc, canonConf, h), verifier, nil
}

func canonicalize(data map[string]interface{}, loader ld.DocumentLoader) ([]byte, error) {
	out, err := processor.Default().GetCanonicalDocument(data, processor.WithDocumentLoader(loader))
	if err != nil {
		return nil, fmt.Errorf("canonicalizing signature base data: %w", err)
	}

	return out, nil
}

func hashData(docData, proofData []byte, h hash.Hash) []byte {
	h.Write(docData)
	docHash := h.Sum(nil)

	h.Reset()
	h.Write(proofData)
	proofHash := h.Sum(nil)

	return append(proofHash, docHash...)
}

// proofConfig is the proof without its value, in the context of the secured document.
func proofConfig(docCtx interface{}, proof *models.Proof) map[string]interface{} {
	conf := make(map[string]interface{}, len(proof.Options)+1)

	for k, v := range proof.Options {
		conf[k] = v
	}

	conf[ldCtxKey] = docCtx

	return conf
}
