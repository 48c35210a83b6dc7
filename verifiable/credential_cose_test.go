/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable_test

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
	gocose "github.com/veraison/go-cose"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/util/codec"
	"github.com/trustbloc/vc-offline-verifier/verifiable"
)

func signCWT(t *testing.T, alg gocose.Algorithm, key crypto.Signer, kid string, claims map[int]interface{}) []byte {
	t.Helper()

	payload, err := cbor.Marshal(claims)
	require.NoError(t, err)

	msg := gocose.NewSign1Message()
	msg.Headers.Protected.SetAlgorithm(alg)

	if kid != "" {
		msg.Headers.Protected[gocose.HeaderLabelKeyID] = []byte(kid)
	}

	msg.Payload = payload

	signer, err := gocose.NewSigner(alg, key)
	require.NoError(t, err)

	require.NoError(t, msg.Sign(rand.Reader, nil, signer))

	raw, err := msg.MarshalCBOR()
	require.NoError(t, err)

	return raw
}

func TestCOSECredential(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	mb := pubkey.Ed25519Multibase(pub)
	issuer := "did:key:" + mb
	kid := issuer + "#" + mb

	claims := func() map[int]interface{} {
		return map[int]interface{}{
			1: issuer,
			6: testNow.Add(-time24h).Unix(),
			4: testNow.Add(time24h).Unix(),
		}
	}

	cwtVC := verifiable.NewCOSECredential(verifiable.WithClock(fixedClock))

	raw := signCWT(t, gocose.AlgorithmEd25519, priv, kid, claims())

	t.Run("hex and base64url", func(t *testing.T) {
		for _, credential := range []string{hex.EncodeToString(raw), codec.EncodeBase64URL(raw)} {
			require.Empty(t, cwtVC.Validate(credential).ErrorCode)

			ok, err := cwtVC.Verify(context.Background(), credential)
			require.NoError(t, err)
			require.True(t, ok)
		}
	})

	t.Run("signed by another key", func(t *testing.T) {
		_, otherPriv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		credential := hex.EncodeToString(signCWT(t, gocose.AlgorithmEd25519, otherPriv, kid, claims()))

		ok, err := cwtVC.Verify(context.Background(), credential)
		require.NoError(t, err)
		require.False(t, ok)

		result := newVerifier(t).Verify(context.Background(), credential, verifiable.FormatCOSE)
		require.Equal(t, "ERR_SIGNATURE_VERIFICATION_FAILED", result.ErrorCode)
	})

	t.Run("no kid", func(t *testing.T) {
		credential := hex.EncodeToString(signCWT(t, gocose.AlgorithmEd25519, priv, "", claims()))

		require.Equal(t, verifiable.ValidationStatus{
			ErrorCode: "ERR_MISSING_KID",
			Message:   "Validation Error: Missing required field: kid",
		}, cwtVC.Validate(credential))

		// The issuer is a did:key, so the key is still found.
		ok, err := cwtVC.Verify(context.Background(), credential)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		ecKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
		require.NoError(t, err)

		credential := hex.EncodeToString(signCWT(t, gocose.AlgorithmES384, ecKey, kid, claims()))

		require.Equal(t, "ERR_INVALID_ALGORITHM", cwtVC.Validate(credential).ErrorCode)
	})

	t.Run("not a COSE message", func(t *testing.T) {
		for _, credential := range []string{"not a cose message", "deadbeef", codec.EncodeBase64URL([]byte("{}"))} {
			require.Equal(t, "ERR_INVALID_CWT_FORMAT", cwtVC.Validate(credential).ErrorCode)
		}
	})

	t.Run("issuer is not a URI", func(t *testing.T) {
		c := claims()
		c[1] = "issuer"

		credential := hex.EncodeToString(signCWT(t, gocose.AlgorithmEd25519, priv, kid, c))

		require.Equal(t, "ERR_INVALID_ISSUER", cwtVC.Validate(credential).ErrorCode)
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := claims()
		c[5] = testNow.Add(time24h).Unix()

		credential := hex.EncodeToString(signCWT(t, gocose.AlgorithmEd25519, priv, kid, c))

		require.Equal(t, "ERR_PROCESSING_DATE_IS_FUTURE_DATE", cwtVC.Validate(credential).ErrorCode)
	})

	t.Run("expired credential with a valid signature", func(t *testing.T) {
		c := claims()
		c[4] = testNow.Add(-time24h / 2).Unix()

		credential := hex.EncodeToString(signCWT(t, gocose.AlgorithmEd25519, priv, kid, c))

		result := newVerifier(t).Verify(context.Background(), credential, verifiable.FormatCOSE)

		require.Equal(t, verifiable.VerificationResult{
			Verified:  true,
			ErrorCode: "ERR_VC_EXPIRED",
			Message:   "VC is expired",
		}, result)
	})
}
