/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ecdsa

import (
	"crypto"
	"crypto/ecdsa"
	"encoding/asn1"
	"errors"
	"math/big"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

const (
	p256KeySize      = 32
	p384KeySize      = 48
	secp256k1KeySize = 32
)

type ellipticCurve struct {
	keySize int
	hash    crypto.Hash
}

// Verifier verifies elliptic curve signatures.
type Verifier struct {
	ec      ellipticCurve
	keyType pubkey.KeyType
}

// SupportedKeyType checks if verifier supports given key.
func (sv *Verifier) SupportedKeyType(keyType pubkey.KeyType) bool {
	return sv.keyType == keyType
}

func (sv *Verifier) parseKey(pubKey *pubkey.PublicKey) (*ecdsa.PublicKey, error) {
	if !sv.SupportedKeyType(pubKey.Type) {
		return nil, vcerror.New(vcerror.MalformedInput, "unsupported key type %s", pubKey.Type)
	}

	cryptoKey, err := pubKey.CryptoPublicKey()
	if err != nil {
		return nil, err
	}

	ecdsaPubKey, ok := cryptoKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, vcerror.New(vcerror.MalformedInput, "ecdsa: invalid public key type")
	}

	return ecdsaPubKey, nil
}

// Verify verifies the signature. Both IEEE P1363 (r||s) and ASN.1 DER encodings are accepted.
func (sv *Verifier) Verify(signature, msg []byte, pubKey *pubkey.PublicKey) (bool, error) {
	ecdsaPubKey, err := sv.parseKey(pubKey)
	if err != nil {
		return false, err
	}

	ec := sv.ec

	if len(signature) < 2*ec.keySize {
		return false, vcerror.New(vcerror.MalformedInput, "ecdsa: invalid signature size %d", len(signature))
	}

	hasher := ec.hash.New()

	_, err = hasher.Write(msg)
	if err != nil {
		return false, errors.New("ecdsa: hash error")
	}

	hash := hasher.Sum(nil)

	r := big.NewInt(0).SetBytes(signature[:ec.keySize])
	s := big.NewInt(0).SetBytes(signature[ec.keySize:])

	// A DER signature is always longer than r||s of the same curve.
	if len(signature) > 2*ec.keySize {
		var esig struct {
			R, S *big.Int
		}

		rest, err := asn1.Unmarshal(signature, &esig)
		if err != nil {
			return false, vcerror.Wrap(vcerror.MalformedInput, err, "ecdsa: invalid DER signature")
		}

		if len(rest) > 0 {
			return false, vcerror.New(vcerror.MalformedInput, "ecdsa: trailing data after DER signature")
		}

		r = esig.R
		s = esig.S
	}

	return ecdsa.Verify(ecdsaPubKey, hash, r, s), nil
}

// NewSecp256k1 creates a new signature verifier that verifies a ECDSA secp256k1 signature
// taking public key bytes and JSON Web Key as input.
func NewSecp256k1() *Verifier {
	return &Verifier{
		ec: ellipticCurve{
			keySize: secp256k1KeySize,
			hash:    crypto.SHA256,
		},
		keyType: pubkey.Secp256k1,
	}
}

// NewES256 creates a new signature verifier that verifies a ECDSA P-256 signature
// taking public key bytes and JSON Web Key as input.
func NewES256() *Verifier {
	return &Verifier{
		ec: ellipticCurve{
			keySize: p256KeySize,
			hash:    crypto.SHA256,
		},
		keyType: pubkey.P256,
	}
}

// NewES384 creates a new signature verifier that verifies a ECDSA P-384 signature
// taking public key bytes and JSON Web Key as input.
func NewES384() *Verifier {
	return &Verifier{
		ec: ellipticCurve{
			keySize: p384KeySize,
			hash:    crypto.SHA384,
		},
		keyType: pubkey.P384,
	}
}
