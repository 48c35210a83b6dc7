/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rsa_test

import (
	"testing"

	gojose "github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/require"
	"github.com/trustbloc/kms-go/doc/jose/jwk"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/testutil"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/rsa"
)

type verifier interface {
	Verify(signature, msg []byte, key *pubkey.PublicKey) (bool, error)
}

func TestRSAVerifiers(t *testing.T) {
	msg := []byte("test message")

	rsSigner, rsPub, err := testutil.CreateRSARS256()
	require.NoError(t, err)

	psSigner, psPub, err := testutil.CreateRSAPS256()
	require.NoError(t, err)

	tests := []struct {
		name   string
		v      verifier
		signer testutil.Signer
		pub    *pubkey.PublicKey
	}{
		{name: "RS256", v: rsa.NewRS256(), signer: rsSigner, pub: rsPub},
		{name: "PS256", v: rsa.NewPS256(), signer: psSigner, pub: psPub},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msgSig, err := tc.signer.Sign(msg)
			require.NoError(t, err)

			ok, err := tc.v.Verify(msgSig, msg, tc.pub)
			require.NoError(t, err)
			require.True(t, ok)

			tampered := append([]byte{}, msgSig...)
			tampered[0] ^= 0x80

			ok, err = tc.v.Verify(tampered, msg, tc.pub)
			require.NoError(t, err)
			require.False(t, ok)

			// invalid public key bytes
			_, err = tc.v.Verify(msgSig, msg, &pubkey.PublicKey{
				Type:     pubkey.RSA,
				BytesKey: &pubkey.BytesKey{Bytes: []byte("invalid-key")},
			})
			require.Error(t, err)
			require.Contains(t, err.Error(), "rsa: invalid public key")

			// unsupported key type
			_, err = tc.v.Verify(msgSig, msg, &pubkey.PublicKey{
				Type:     pubkey.Ed25519,
				BytesKey: &pubkey.BytesKey{Bytes: []byte("invalid-key")},
			})
			require.EqualError(t, err, "MalformedInput: unsupported key type Ed25519")

			// invalid JWK value
			_, err = tc.v.Verify(msgSig, msg, &pubkey.PublicKey{
				Type: pubkey.RSA,
				JWK: &jwk.JWK{
					JSONWebKey: gojose.JSONWebKey{
						Key: "foo",
					},
					Kty: "RSA",
				},
			})
			require.EqualError(t, err, "MalformedInput: public key not rsa.PublicKey")

			// truncated signature
			_, err = tc.v.Verify([]byte("invalid signature"), msg, tc.pub)
			require.EqualError(t, err, "MalformedInput: rsa: signature size 17 does not match key size 256")
		})
	}

	t.Run("PS256 signature does not verify as RS256", func(t *testing.T) {
		msgSig, err := psSigner.Sign(msg)
		require.NoError(t, err)

		ok, err := rsa.NewRS256().Verify(msgSig, msg, psPub)
		require.NoError(t, err)
		require.False(t, ok)
	})
}
