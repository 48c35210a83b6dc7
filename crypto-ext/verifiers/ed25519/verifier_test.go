/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ed25519_test

import (
	"testing"

	gojose "github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/require"
	"github.com/trustbloc/kms-go/doc/jose/jwk"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/testutil"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/ed25519"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

func TestNewEd25519SignatureVerifier(t *testing.T) {
	v := ed25519.New()
	require.NotNil(t, v)

	signer, pubKey, err := testutil.CreateEd25519()
	require.NoError(t, err)

	msg := []byte("test message")
	msgSig, err := signer.Sign(msg)
	require.NoError(t, err)

	ok, err := v.Verify(msgSig, msg, pubKey)
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("flipped bit", func(t *testing.T) {
		tampered := append([]byte{}, msgSig...)
		tampered[10] ^= 0x01

		ok, err := v.Verify(tampered, msg, pubKey)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("other message", func(t *testing.T) {
		ok, err := v.Verify(msgSig, []byte("other message"), pubKey)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("invalid key bytes", func(t *testing.T) {
		_, err := v.Verify(msgSig, msg, &pubkey.PublicKey{
			Type:     pubkey.Ed25519,
			BytesKey: &pubkey.BytesKey{Bytes: []byte("invalid-key")},
		})
		require.EqualError(t, err, "MalformedInput: ed25519: invalid key length 11")
	})

	t.Run("no key material", func(t *testing.T) {
		_, err := v.Verify(msgSig, msg, &pubkey.PublicKey{Type: pubkey.Ed25519})
		require.EqualError(t, err, "MalformedInput: public key has no key material")
	})

	t.Run("unsupported key type", func(t *testing.T) {
		_, err := v.Verify(msgSig, msg, &pubkey.PublicKey{
			Type:     pubkey.RSA,
			BytesKey: &pubkey.BytesKey{Bytes: []byte("invalid-key")},
		})
		require.EqualError(t, err, "MalformedInput: unsupported key type RSA")
	})

	t.Run("invalid JWK value", func(t *testing.T) {
		_, err := v.Verify(msgSig, msg, &pubkey.PublicKey{
			Type: pubkey.Ed25519,
			JWK: &jwk.JWK{
				JSONWebKey: gojose.JSONWebKey{
					Key: "foo",
				},
				Kty: "OKP",
				Crv: "Ed25519",
			},
		})
		require.Error(t, err)
		require.True(t, vcerror.IsKind(err, vcerror.MalformedInput))
	})

	t.Run("signature size", func(t *testing.T) {
		_, err := v.Verify([]byte("invalid signature"), msg, pubKey)
		require.EqualError(t, err, "MalformedInput: ed25519: invalid signature size 17")
	})
}
