/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package lddocument

import (
	"errors"
	"fmt"

	"github.com/trustbloc/did-go/doc/ld/processor"
	"github.com/trustbloc/did-go/doc/ld/proof"

	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

// ErrNoProof is returned for documents without proofs.
var ErrNoProof = errors.New("document has no proof")

// ProofChecker implements JSON LD document proof check.
type ProofChecker interface {
	// CheckLDProof check ld proof.
	CheckLDProof(proof *proof.Proof, expectedProofIssuer string, msg, signature []byte) error

	// GetLDPCanonicalDocument will return normalized/canonical version of the document.
	GetLDPCanonicalDocument(proof *proof.Proof, doc map[string]interface{}, opts ...processor.Opts) ([]byte, error)

	// GetLDPDigest returns document digest.
	GetLDPDigest(proof *proof.Proof, doc []byte) ([]byte, error)
}

// DocumentVerifier implements JSON LD document proof verification.
type DocumentVerifier struct {
	proofChecker ProofChecker
	compactProof bool
	purpose      string
}

// NewDocumentVerifier returns new instance of document wrapped. Proofs must be made for purpose.
func NewDocumentVerifier(proofChecker ProofChecker, purpose string) *DocumentVerifier {
	return &DocumentVerifier{proofChecker: proofChecker, purpose: purpose}
}

// VerifyObject verifies every proof of jsonLdObject. All proofs must be valid and made for the purpose.
func (dv *DocumentVerifier) VerifyObject(jsonLdObject map[string]interface{}, opts ...processor.Opts) error {
	proofs, err := proof.GetProofs(jsonLdObject)
	if err != nil {
		return err
	}

	if len(proofs) == 0 {
		return ErrNoProof
	}

	for _, p := range proofs {
		if err = dv.verifyProof(jsonLdObject, p, opts); err != nil {
			return err
		}
	}

	return nil
}

func (dv *DocumentVerifier) verifyProof(jsonLdObject map[string]interface{}, p *proof.Proof,
	opts []processor.Opts) error {
	if p.ProofPurpose != "" && p.ProofPurpose != dv.purpose {
		return fmt.Errorf("unsupported proof purpose %q", p.ProofPurpose)
	}

	pubKeyID, err := p.PublicKeyID()
	if err != nil {
		return errors.New("public key is missed in proof")
	}

	message, err := proof.CreateVerifyData(&signatureSuiteWrapper{
		wrapped:      dv.proofChecker,
		proof:        p,
		compactProof: dv.compactProof,
	}, jsonLdObject, p, opts...)
	if err != nil {
		return err
	}

	signature, err := getProofVerifyValue(p)
	if err != nil {
		return err
	}

	return dv.proofChecker.CheckLDProof(p, vermethod.StripFragment(pubKeyID), message, signature)
}

// VerificationMethods returns the verification method of every proof of jsonLdObject.
func VerificationMethods(jsonLdObject map[string]interface{}) ([]string, error) {
	proofs, err := proof.GetProofs(jsonLdObject)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(proofs))

	for _, p := range proofs {
		id, err := p.PublicKeyID()
		if err != nil {
			return nil, fmt.Errorf("%s proof: %w", p.Type, err)
		}

		ids = append(ids, id)
	}

	return ids, nil
}

func getProofVerifyValue(p *proof.Proof) ([]byte, error) {
	switch p.SignatureRepresentation {
	case proof.SignatureProofValue:
		return p.ProofValue, nil
	case proof.SignatureJWS:
		return proof.GetJWTSignature(p.JWS)
	}

	return nil, fmt.Errorf("unsupported signature representation: %v", p.SignatureRepresentation)
}

type signatureSuiteCompatible interface {
	GetLDPCanonicalDocument(proof *proof.Proof, doc map[string]interface{}, opts ...processor.Opts) ([]byte, error)
	GetLDPDigest(proof *proof.Proof, doc []byte) ([]byte, error)
}

type signatureSuiteWrapper struct {
	wrapped      signatureSuiteCompatible
	proof        *proof.Proof
	compactProof bool
}

// GetCanonicalDocument will return normalized/canonical version of the document.
func (w *signatureSuiteWrapper) GetCanonicalDocument(doc map[string]interface{},
	opts ...processor.Opts) ([]byte, error) {
	return w.wrapped.GetLDPCanonicalDocument(w.proof, doc, opts...)
}

// GetDigest returns document digest.
func (w *signatureSuiteWrapper) GetDigest(doc []byte) []byte {
	// suites only fail on unknown proof types, which CheckLDProof reports
	digest, _ := w.wrapped.GetLDPDigest(w.proof, doc) //nolint: errcheck
	return digest
}

// CompactProof indicates weather to compact the proof doc before canonization.
func (w *signatureSuiteWrapper) CompactProof() bool {
	return w.compactProof
}
