/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ecdsa2019_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/testutil"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/models"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/suite"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/suite/ecdsa2019"
	"github.com/trustbloc/vc-offline-verifier/internal/testutil/ldsigner"
	"github.com/trustbloc/vc-offline-verifier/verifiable/lddocument"
)

const (
	vmID = "did:example:issuer#key-1"

	credentialV2 = `{
  "@context": ["https://www.w3.org/ns/credentials/v2"],
  "id": "urn:uuid:58172aac-d8ba-11ed-83dd-0b3aef56cc33",
  "type": ["VerifiableCredential"],
  "issuer": "did:example:issuer",
  "validFrom": "2023-01-01T00:00:00Z",
  "credentialSubject": {"id": "did:example:subject"}
}`
)

func signedCredential(t *testing.T, signer testutil.Signer, cryptosuite string) (map[string]interface{}, *models.Proof) {
	t.Helper()

	loader, err := lddocument.NewDocumentLoader()
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(credentialV2), &doc))

	require.NoError(t, ldsigner.SignDataIntegrity(&ldsigner.DataIntegrityContext{
		Signer:             signer,
		VerificationMethod: vmID,
		CryptoSuite:        cryptosuite,
	}, doc, loader))

	p, err := models.ParseProof(doc["proof"].(map[string]interface{}))
	require.NoError(t, err)

	return doc, p
}

func TestSuite_VerifyProof(t *testing.T) {
	loader, err := lddocument.NewDocumentLoader()
	require.NoError(t, err)

	s := ecdsa2019.NewVerifier(&ecdsa2019.VerifierInitializerOptions{LDDocumentLoader: loader})
	require.Equal(t, []string{ecdsa2019.SuiteType, ecdsa2019.SuiteTypeNew}, s.Type())

	p256Signer, p256Pub, err := testutil.CreateECDSAP256()
	require.NoError(t, err)

	p384Signer, p384Pub, err := testutil.CreateECDSAP384()
	require.NoError(t, err)

	tests := []struct {
		name        string
		signer      testutil.Signer
		pub         *pubkey.PublicKey
		cryptosuite string
	}{
		{name: "P-256 ecdsa-rdfc-2019", signer: p256Signer, pub: p256Pub, cryptosuite: ecdsa2019.SuiteTypeNew},
		{name: "P-384 ecdsa-rdfc-2019", signer: p384Signer, pub: p384Pub, cryptosuite: ecdsa2019.SuiteTypeNew},
		{name: "P-256 ecdsa-2019", signer: p256Signer, pub: p256Pub, cryptosuite: ecdsa2019.SuiteType},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, p := signedCredential(t, tc.signer, tc.cryptosuite)

			require.NoError(t, s.VerifyProof(doc, p, tc.pub))

			doc["credentialSubject"] = map[string]interface{}{"id": "did:example:other"}
			require.ErrorIs(t, s.VerifyProof(doc, p, tc.pub), suite.ErrSignatureMismatch)
		})
	}

	t.Run("key of the other curve", func(t *testing.T) {
		doc, p := signedCredential(t, p256Signer, ecdsa2019.SuiteTypeNew)

		require.Error(t, s.VerifyProof(doc, p, p384Pub))
	})

	t.Run("unsupported curve", func(t *testing.T) {
		doc, p := signedCredential(t, p256Signer, ecdsa2019.SuiteTypeNew)

		_, edPub, err := testutil.CreateEd25519()
		require.NoError(t, err)

		require.ErrorContains(t, s.VerifyProof(doc, p, edPub), "unsupported ECDSA curve")
	})

	t.Run("other cryptosuite", func(t *testing.T) {
		doc, p := signedCredential(t, p256Signer, ecdsa2019.SuiteTypeNew)
		p.CryptoSuite = "eddsa-rdfc-2022"

		require.ErrorIs(t, s.VerifyProof(doc, p, p256Pub), suite.ErrProofTransformation)
	})

	t.Run("proof value is not multibase", func(t *testing.T) {
		doc, p := signedCredential(t, p256Signer, ecdsa2019.SuiteTypeNew)
		p.ProofValue = "!not multibase"

		require.ErrorContains(t, s.VerifyProof(doc, p, p256Pub), "decoding proofValue")
	})

	t.Run("proof options are signed", func(t *testing.T) {
		doc, p := signedCredential(t, p256Signer, ecdsa2019.SuiteTypeNew)
		p.Options["created"] = "2001-01-01T00:00:00Z"

		require.ErrorIs(t, s.VerifyProof(doc, p, p256Pub), suite.ErrSignatureMismatch)
	})
}
