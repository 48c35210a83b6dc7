/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package checker

import (
	"errors"
	"fmt"

	"github.com/trustbloc/did-go/doc/ld/processor"
	"github.com/trustbloc/did-go/doc/ld/proof"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/jwt"
	proofdesc "github.com/trustbloc/vc-offline-verifier/proof"
)

// ErrSignatureMismatch is returned by CheckLDProof when the signature is well formed but does not match.
var ErrSignatureMismatch = errors.New("signature mismatch")

type verificationMethodResolver interface {
	ResolveVerificationMethod(verificationMethod string, expectedProofIssuer string) (*pubkey.PublicKey, error)
}

type ldCheckDescriptor struct {
	proofDescriptor proofdesc.LDProofDescriptor
}

// ProofCheckerBase basic implementation of proof checker.
type ProofCheckerBase struct {
	supportedLDProofs []ldCheckDescriptor
	dispatch          *Dispatch
}

// ProofChecker checks proofs of jd and jwt documents.
type ProofChecker struct {
	ProofCheckerBase

	verificationMethodResolver verificationMethodResolver
}

// Opt represent checker creation options.
type Opt func(c *ProofCheckerBase)

// WithLDProofTypes option to set supported ld proofs.
func WithLDProofTypes(proofDescs ...proofdesc.LDProofDescriptor) Opt {
	return func(c *ProofCheckerBase) {
		for _, proofDesc := range proofDescs {
			c.supportedLDProofs = append(c.supportedLDProofs, ldCheckDescriptor{
				proofDescriptor: proofDesc,
			})
		}
	}
}

// WithDispatch option to set the signature routine table.
func WithDispatch(dispatch *Dispatch) Opt {
	return func(c *ProofCheckerBase) {
		c.dispatch = dispatch
	}
}

// New creates new proof checker.
func New(verificationMethodResolver verificationMethodResolver, opts ...Opt) *ProofChecker {
	c := &ProofChecker{
		verificationMethodResolver: verificationMethodResolver,
	}

	for _, opt := range opts {
		opt(&c.ProofCheckerBase)
	}

	if c.dispatch == nil {
		c.dispatch = NewDispatch()
	}

	return c
}

// CheckLDProof check ld proof. A signature that does not match returns ErrSignatureMismatch.
func (c *ProofChecker) CheckLDProof(proof *proof.Proof, expectedProofIssuer string, msg, signature []byte) error {
	publicKeyID, err := proof.PublicKeyID()
	if err != nil {
		return fmt.Errorf("proof missing public key id: %w", err)
	}

	supportedProof, err := c.getSupportedProof(proof.Type)
	if err != nil {
		return err
	}

	pubKey, err := c.verificationMethodResolver.ResolveVerificationMethod(publicKeyID, expectedProofIssuer)
	if err != nil {
		return fmt.Errorf("proof invalid public key id: %w", err)
	}

	vm, err := matchVerificationMethod(supportedProof.proofDescriptor.SupportedVerificationMethods(), pubKey)
	if err != nil {
		return fmt.Errorf("%s proof check: %w", proof.Type, err)
	}

	alg, err := proofAlgorithm(proof, vm)
	if err != nil {
		return err
	}

	ok, err := c.dispatch.Verify(alg, msg, signature, pubKey)
	if err != nil {
		return err
	}

	if !ok {
		return ErrSignatureMismatch
	}

	return nil
}

// GetLDPCanonicalDocument will return normalized/canonical version of the document.
func (c *ProofCheckerBase) GetLDPCanonicalDocument(proof *proof.Proof,
	doc map[string]interface{}, opts ...processor.Opts) ([]byte, error) {
	supportedProof, err := c.getSupportedProof(proof.Type)
	if err != nil {
		return nil, err
	}

	return supportedProof.proofDescriptor.GetCanonicalDocument(doc, opts...)
}

// GetLDPDigest returns document digest.
func (c *ProofCheckerBase) GetLDPDigest(proof *proof.Proof, doc []byte) ([]byte, error) {
	supportedProof, err := c.getSupportedProof(proof.Type)
	if err != nil {
		return nil, err
	}

	return supportedProof.proofDescriptor.GetDigest(doc), nil
}

// proofAlgorithm returns the JWS header algorithm of detached JWS proofs, or the suite algorithm.
func proofAlgorithm(p *proof.Proof, vm proofdesc.SupportedVerificationMethod) (string, error) {
	if p.SignatureRepresentation != proof.SignatureJWS {
		return vm.JWTAlg, nil
	}

	envelope, err := jwt.ParseEnvelope(p.JWS)
	if err != nil {
		return "", fmt.Errorf("%s proof jws: %w", p.Type, err)
	}

	return envelope.Algorithm(), nil
}

func matchVerificationMethod(
	supportedMethods []proofdesc.SupportedVerificationMethod,
	key *pubkey.PublicKey,
) (proofdesc.SupportedVerificationMethod, error) {
	for _, supported := range supportedMethods {
		if supported.VerificationMethodType == key.VerificationMethodType && supported.KeyType == key.Type {
			return supported, nil
		}
	}

	return proofdesc.SupportedVerificationMethod{}, fmt.Errorf(
		"can't verifiy with %q verification method (key type %q)", key.VerificationMethodType, key.Type)
}

func (c *ProofCheckerBase) getSupportedProof(proofType string) (ldCheckDescriptor, error) {
	for _, supported := range c.supportedLDProofs {
		if supported.proofDescriptor.ProofType() == proofType {
			return supported, nil
		}
	}

	return ldCheckDescriptor{}, fmt.Errorf("unsupported proof type: %s", proofType)
}
