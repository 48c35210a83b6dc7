/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package ldsigner adds linked data proofs to JSON-LD documents for tests.
package ldsigner

import (
	"errors"
	"time"

	"github.com/trustbloc/did-go/doc/ld/processor"
	"github.com/trustbloc/did-go/doc/ld/proof"
	afgotime "github.com/trustbloc/did-go/doc/util/time"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/testutil"
	proofdesc "github.com/trustbloc/vc-offline-verifier/proof"
	"github.com/trustbloc/vc-offline-verifier/util/codec"
)

// SigningContext holds signing options and the signer.
type SigningContext struct {
	Suite                   proofdesc.LDProofDescriptor   // required
	Signer                  testutil.Signer               // required
	VerificationMethod      string                        // required
	SignatureRepresentation proof.SignatureRepresentation // optional
	Created                 *time.Time                    // optional
	Purpose                 string                        // optional
	Challenge               string                        // optional
}

// Sign adds a proof to jsonLdObject.
func Sign(context *SigningContext, jsonLdObject map[string]interface{}, opts ...processor.Opts) error {
	if context.Suite == nil || context.Signer == nil {
		return errors.New("suite and signer are required")
	}

	created := context.Created
	if created == nil {
		now := time.Now().UTC().Truncate(time.Second)
		created = &now
	}

	p := &proof.Proof{
		Type:                    context.Suite.ProofType(),
		SignatureRepresentation: context.SignatureRepresentation,
		Created:                 &afgotime.TimeWrapper{Time: *created},
		VerificationMethod:      context.VerificationMethod,
		ProofPurpose:            context.Purpose,
		Challenge:               context.Challenge,
	}

	if p.ProofPurpose == "" {
		p.ProofPurpose = proofdesc.ProofPurposeAssertion
	}

	if context.SignatureRepresentation == proof.SignatureJWS {
		alg, _ := context.Signer.Headers().Algorithm()

		p.JWS = proof.CreateDetachedJWTHeader(alg) + ".."
	}

	message, err := proof.CreateVerifyData(&suiteWrapper{suite: context.Suite}, jsonLdObject, p,
		append(opts, processor.WithValidateRDF())...)
	if err != nil {
		return err
	}

	s, err := context.Signer.Sign(message)
	if err != nil {
		return err
	}

	switch context.SignatureRepresentation {
	case proof.SignatureProofValue:
		p.ProofValue = s
	case proof.SignatureJWS:
		p.JWS += codec.EncodeBase64URL(s)
	}

	return proof.AddProof(jsonLdObject, p)
}

type suiteWrapper struct {
	suite proofdesc.LDProofDescriptor
}

func (w *suiteWrapper) GetCanonicalDocument(doc map[string]interface{}, opts ...processor.Opts) ([]byte, error) {
	return w.suite.GetCanonicalDocument(doc, opts...)
}

func (w *suiteWrapper) GetDigest(doc []byte) []byte {
	return w.suite.GetDigest(doc)
}

func (w *suiteWrapper) CompactProof() bool {
	return false
}
