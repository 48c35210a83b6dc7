/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package dataintegrity_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/testutil"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/models"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/suite"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/suite/ecdsa2019"
	"github.com/trustbloc/vc-offline-verifier/internal/testutil/ldsigner"
	"github.com/trustbloc/vc-offline-verifier/verifiable/lddocument"
)

const vmID = "did:example:issuer#key-1"

type staticResolver map[string]*pubkey.PublicKey

func (r staticResolver) ResolveVerificationMethod(vm, _ string) (*pubkey.PublicKey, error) {
	key, ok := r[vm]
	if !ok {
		return nil, errors.New("not found")
	}

	return key, nil
}

func TestVerifier_VerifyProof(t *testing.T) {
	loader, err := lddocument.NewDocumentLoader()
	require.NoError(t, err)

	signer, pub, err := testutil.CreateECDSAP256()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(`{
		"@context": ["https://www.w3.org/ns/credentials/v2"],
		"type": ["VerifiableCredential"],
		"issuer": "did:example:issuer",
		"credentialSubject": {"id": "did:example:subject"}
	}`), &doc))

	require.NoError(t, ldsigner.SignDataIntegrity(&ldsigner.DataIntegrityContext{
		Signer:             signer,
		VerificationMethod: vmID,
	}, doc, loader))

	rawProof := doc["proof"].(map[string]interface{})

	v := dataintegrity.NewVerifier(staticResolver{vmID: pub}, "assertionMethod",
		ecdsa2019.NewVerifier(&ecdsa2019.VerifierInitializerOptions{LDDocumentLoader: loader}))

	t.Run("success", func(t *testing.T) {
		require.NoError(t, v.VerifyProof(doc, rawProof))
	})

	t.Run("signature mismatch", func(t *testing.T) {
		tampered := map[string]interface{}{}
		for k, val := range doc {
			tampered[k] = val
		}

		tampered["issuer"] = "did:example:attacker"

		require.ErrorIs(t, v.VerifyProof(tampered, rawProof), suite.ErrSignatureMismatch)
	})

	t.Run("unsupported cryptosuite", func(t *testing.T) {
		other := v.VerifyProof(doc, withMember(rawProof, "cryptosuite", "bbs-2023"))
		require.ErrorIs(t, other, dataintegrity.ErrUnsupportedSuite)
	})

	t.Run("wrong proof purpose", func(t *testing.T) {
		err := v.VerifyProof(doc, withMember(rawProof, "proofPurpose", "authentication"))
		require.ErrorIs(t, err, dataintegrity.ErrWrongProofPurpose)
	})

	t.Run("unknown verification method", func(t *testing.T) {
		err := v.VerifyProof(doc, withMember(rawProof, "verificationMethod", "did:example:issuer#key-2"))
		require.ErrorIs(t, err, dataintegrity.ErrVMResolution)
	})

	t.Run("malformed proof", func(t *testing.T) {
		require.Error(t, v.VerifyProof(doc, withMember(rawProof, "proofValue", "")))
		require.Error(t, v.VerifyProof(doc, withMember(rawProof, "type", "Ed25519Signature2020")))
		require.Error(t, v.VerifyProof(doc, withMember(rawProof, "cryptosuite", 7)))
	})
}

func TestParseProof(t *testing.T) {
	p, err := models.ParseProof(map[string]interface{}{
		"type":               models.DataIntegrityProof,
		"cryptosuite":        "ecdsa-rdfc-2019",
		"verificationMethod": vmID,
		"proofPurpose":       "assertionMethod",
		"challenge":          "abc",
		"proofValue":         "z123",
	})
	require.NoError(t, err)
	require.Equal(t, "abc", p.Challenge)
	require.Equal(t, "z123", p.ProofValue)
	require.NotContains(t, p.Options, "proofValue")
	require.Equal(t, "abc", p.Options["challenge"])
}

func withMember(p map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = v
	}

	out[key] = value

	return out
}
