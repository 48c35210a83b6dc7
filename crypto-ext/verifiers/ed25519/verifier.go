/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ed25519

import (
	"crypto/ed25519"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

// Verifier verifies a Ed25519 signature taking Ed25519 public key bytes as input.
type Verifier struct {
}

// New creates a new ed25519 Verifier.
func New() *Verifier {
	return &Verifier{}
}

// SupportedKeyType checks if verifier supports given key.
func (sv *Verifier) SupportedKeyType(keyType pubkey.KeyType) bool {
	return keyType == pubkey.Ed25519
}

// Verify verifies the signature. A signature that does not match returns false without an error.
func (sv *Verifier) Verify(signature, msg []byte, pubKey *pubkey.PublicKey) (bool, error) {
	if !sv.SupportedKeyType(pubKey.Type) {
		return false, vcerror.New(vcerror.MalformedInput, "unsupported key type %s", pubKey.Type)
	}

	key, err := pubKey.CryptoPublicKey()
	if err != nil {
		return false, err
	}

	value, ok := key.(ed25519.PublicKey)
	if !ok {
		return false, vcerror.New(vcerror.MalformedInput, "public key not ed25519.PublicKey")
	}

	// ed25519 panics if key size is wrong
	if len(value) != ed25519.PublicKeySize {
		return false, vcerror.New(vcerror.MalformedInput, "ed25519: invalid key")
	}

	if len(signature) != ed25519.SignatureSize {
		return false, vcerror.New(vcerror.MalformedInput, "ed25519: invalid signature size %d", len(signature))
	}

	return ed25519.Verify(value, msg, signature), nil
}
