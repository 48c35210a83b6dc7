/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ecdsa_test

import (
	"testing"

	gojose "github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/require"
	"github.com/trustbloc/kms-go/doc/jose/jwk"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/testutil"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/ecdsa"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

func TestECDSAVerifier(t *testing.T) {
	msg := []byte("test message")

	k1Signer, k1Pub, err := testutil.CreateECDSASecp256k1()
	require.NoError(t, err)

	p256Signer, p256Pub, err := testutil.CreateECDSAP256()
	require.NoError(t, err)

	p384Signer, p384Pub, err := testutil.CreateECDSAP384()
	require.NoError(t, err)

	tests := []struct {
		name      string
		sVerifier *ecdsa.Verifier
		signer    *testutil.ECDSASigner
		pub       *pubkey.PublicKey
		sigLen    int
	}{
		{name: "ES256K", sVerifier: ecdsa.NewSecp256k1(), signer: k1Signer, pub: k1Pub, sigLen: 64},
		{name: "ES256", sVerifier: ecdsa.NewES256(), signer: p256Signer, pub: p256Pub, sigLen: 64},
		{name: "ES384", sVerifier: ecdsa.NewES384(), signer: p384Signer, pub: p384Pub, sigLen: 96},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Run("P1363 signature", func(t *testing.T) {
				msgSig, err := tc.signer.Sign(msg)
				require.NoError(t, err)
				require.Len(t, msgSig, tc.sigLen)

				ok, err := tc.sVerifier.Verify(msgSig, msg, tc.pub)
				require.NoError(t, err)
				require.True(t, ok)

				ok, err = tc.sVerifier.Verify(msgSig, []byte("other message"), tc.pub)
				require.NoError(t, err)
				require.False(t, ok)
			})

			t.Run("DER signature", func(t *testing.T) {
				derSigner := *tc.signer

				msgSig, err := derSigner.WithDER().Sign(msg)
				require.NoError(t, err)

				ok, err := tc.sVerifier.Verify(msgSig, msg, tc.pub)
				require.NoError(t, err)
				require.True(t, ok)
			})

			t.Run("short signature", func(t *testing.T) {
				_, err := tc.sVerifier.Verify([]byte("signature"), msg, tc.pub)
				require.EqualError(t, err, "MalformedInput: ecdsa: invalid signature size 9")
			})

			t.Run("garbage longer than r||s", func(t *testing.T) {
				sig := make([]byte, 80)
				for i := range sig {
					sig[i] = 0xff
				}

				_, err := tc.sVerifier.Verify(sig, msg, tc.pub)
				require.Error(t, err)
				require.True(t, vcerror.IsKind(err, vcerror.MalformedInput))
			})

			t.Run("invalid public key bytes", func(t *testing.T) {
				msgSig, err := tc.signer.Sign(msg)
				require.NoError(t, err)

				_, err = tc.sVerifier.Verify(msgSig, msg, &pubkey.PublicKey{
					Type:     tc.pub.Type,
					BytesKey: &pubkey.BytesKey{Bytes: []byte("invalid public key")},
				})
				require.Error(t, err)
				require.True(t, vcerror.IsKind(err, vcerror.MalformedInput))
			})

			t.Run("invalid JWK value", func(t *testing.T) {
				msgSig, err := tc.signer.Sign(msg)
				require.NoError(t, err)

				_, err = tc.sVerifier.Verify(msgSig, msg, &pubkey.PublicKey{
					Type: tc.pub.Type,
					JWK: &jwk.JWK{
						JSONWebKey: gojose.JSONWebKey{
							Key: "foo",
						},
						Kty: "EC",
					},
				})
				require.EqualError(t, err, "MalformedInput: ecdsa: invalid public key type")
			})
		})
	}

	t.Run("unsupported key type", func(t *testing.T) {
		_, err := ecdsa.NewES256().Verify(make([]byte, 64), msg, k1Pub)
		require.EqualError(t, err, "MalformedInput: unsupported key type secp256k1")

		require.True(t, ecdsa.NewSecp256k1().SupportedKeyType(pubkey.Secp256k1))
		require.False(t, ecdsa.NewSecp256k1().SupportedKeyType(pubkey.P256))
	})
}
