/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/did-go/doc/ld/processor"
	"github.com/trustbloc/did-go/doc/ld/proof"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/testutil"
	"github.com/trustbloc/vc-offline-verifier/internal/testutil/ldsigner"
	"github.com/trustbloc/vc-offline-verifier/proof/ldproofs"
	"github.com/trustbloc/vc-offline-verifier/status"
	"github.com/trustbloc/vc-offline-verifier/util/codec"
	"github.com/trustbloc/vc-offline-verifier/verifiable"
	"github.com/trustbloc/vc-offline-verifier/verifiable/lddocument"
	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

const (
	statusListURL = "https://example.edu/status/1"
	statusListCtx = "https://w3id.org/vc/status-list/2021/v1"
)

// signWith adds an Ed25519Signature2020 proof of issuerVMID to doc.
func signWith(t *testing.T, signer testutil.Signer, doc map[string]interface{}) map[string]interface{} {
	t.Helper()

	loader, err := lddocument.NewDocumentLoader()
	require.NoError(t, err)

	require.NoError(t, ldsigner.Sign(&ldsigner.SigningContext{
		Suite:                   ldproofs.NewEd25519Signature2020(),
		Signer:                  signer,
		VerificationMethod:      issuerVMID,
		SignatureRepresentation: proof.SignatureProofValue,
	}, doc, processor.WithDocumentLoader(loader)))

	return doc
}

func encodedList(t *testing.T, setBits ...int) string {
	t.Helper()

	bits := make([]byte, 16384)
	for _, i := range setBits {
		bits[i/8] |= 0x80 >> (i % 8)
	}

	var buf bytes.Buffer

	w := gzip.NewWriter(&buf)
	_, err := w.Write(bits)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return codec.EncodeBase64URL(buf.Bytes())
}

func newStatusList(t *testing.T, purpose string, setBits ...int) map[string]interface{} {
	t.Helper()

	return map[string]interface{}{
		"@context":     []interface{}{"https://www.w3.org/2018/credentials/v1", statusListCtx, ed2020Ctx},
		"id":           statusListURL,
		"type":         []interface{}{"VerifiableCredential", "StatusList2021Credential"},
		"issuer":       "did:example:76e12ec712ebc6f1c221ebfeb1f",
		"issuanceDate": "2021-04-05T14:27:40Z",
		"credentialSubject": map[string]interface{}{
			"id":            statusListURL + "#list",
			"type":          "StatusList2021",
			"statusPurpose": purpose,
			"encodedList":   encodedList(t, setBits...),
		},
	}
}

func credentialWithStatus(t *testing.T, signer testutil.Signer, index string) string {
	t.Helper()

	var vc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(credentialV1), &vc))

	delete(vc, "proof")
	vc["@context"] = append(vc["@context"].([]interface{}), statusListCtx, ed2020Ctx)
	vc["credentialStatus"] = map[string]interface{}{
		"id":                   statusListURL + "#" + index,
		"type":                 "StatusList2021Entry",
		"statusPurpose":        status.StatusPurposeRevocation,
		"statusListIndex":      index,
		"statusListCredential": statusListURL,
	}

	raw, err := json.Marshal(signWith(t, signer, vc))
	require.NoError(t, err)

	return string(raw)
}

func TestStatusListVerifier_VerifyList(t *testing.T) {
	signer, pub, err := testutil.CreateEd25519()
	require.NoError(t, err)

	keys := lddocument.NewMapKeyStore(map[string]lddocument.CachedKey{
		issuerVMID: {PublicKeyMultibase: pubkey.Ed25519Multibase(pub.BytesKey.Bytes)},
	})

	lv, err := verifiable.NewStatusListVerifier(verifiable.WithKeyStore(keys), verifiable.WithClock(fixedClock))
	require.NoError(t, err)

	t.Run("signed list", func(t *testing.T) {
		require.NoError(t, lv.VerifyList(context.Background(),
			signWith(t, signer, newStatusList(t, status.StatusPurposeRevocation, 3))))
	})

	t.Run("tampered list", func(t *testing.T) {
		list := signWith(t, signer, newStatusList(t, status.StatusPurposeRevocation))
		list["credentialSubject"].(map[string]interface{})["encodedList"] = encodedList(t, 5)

		require.EqualError(t, lv.VerifyList(context.Background(), list), "status list proof verification failed")
	})

	t.Run("expired list", func(t *testing.T) {
		list := newStatusList(t, status.StatusPurposeRevocation)
		list["expirationDate"] = "2022-04-05T14:27:40Z"

		err := lv.VerifyList(context.Background(), signWith(t, signer, list))
		require.ErrorContains(t, err, "ERR_VC_EXPIRED")
	})

	t.Run("list key not available offline", func(t *testing.T) {
		offline, err := verifiable.NewStatusListVerifier(verifiable.WithResolver(vermethod.StaticResolver{}))
		require.NoError(t, err)

		err = offline.VerifyList(context.Background(),
			signWith(t, signer, newStatusList(t, status.StatusPurposeRevocation)))
		require.ErrorIs(t, err, lddocument.ErrOfflineDependenciesMissing)
	})
}

func TestCredentialsVerifier_StatusList(t *testing.T) {
	signer, pub, err := testutil.CreateEd25519()
	require.NoError(t, err)

	forger, _, err := testutil.CreateEd25519()
	require.NoError(t, err)

	keys := lddocument.NewMapKeyStore(map[string]lddocument.CachedKey{
		issuerVMID: {PublicKeyMultibase: pubkey.Ed25519Multibase(pub.BytesKey.Bytes)},
	})

	lv, err := verifiable.NewStatusListVerifier(verifiable.WithKeyStore(keys), verifiable.WithClock(fixedClock))
	require.NoError(t, err)

	verify := func(t *testing.T, credential string, list map[string]interface{}) verifiable.VerificationResult {
		t.Helper()

		client := status.NewClient(status.MapListStore{statusListURL: list}, status.WithListVerifier(lv))

		return newVerifier(t, verifiable.WithKeyStore(keys), verifiable.WithStatusChecker(client)).
			Verify(context.Background(), credential, verifiable.FormatLDP)
	}

	credential := credentialWithStatus(t, signer, "5")

	t.Run("active", func(t *testing.T) {
		result := verify(t, credential, signWith(t, signer, newStatusList(t, status.StatusPurposeRevocation, 7)))
		require.Equal(t, verifiable.VerificationResult{Verified: true}, result)
	})

	t.Run("revoked", func(t *testing.T) {
		result := verify(t, credential, signWith(t, signer, newStatusList(t, status.StatusPurposeRevocation, 5)))
		require.False(t, result.Verified)
		require.Equal(t, "ERR_VC_REVOKED", result.ErrorCode)
	})

	t.Run("list signed by another key", func(t *testing.T) {
		result := verify(t, credential, signWith(t, forger, newStatusList(t, status.StatusPurposeRevocation)))
		require.Equal(t, verifiable.VerificationResult{
			ErrorCode: "ERR_STATUS_VERIFICATION",
			Message:   "Failed to verify status list credential",
		}, result)
	})

	t.Run("list of another status purpose", func(t *testing.T) {
		result := verify(t, credential, signWith(t, signer, newStatusList(t, status.StatusPurposeSuspension, 5)))
		require.Equal(t, "ERR_STATUS_VERIFICATION", result.ErrorCode)
		require.False(t, result.Verified)
	})
}
