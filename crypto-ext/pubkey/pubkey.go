/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pubkey

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/trustbloc/kms-go/doc/jose/jwk"

	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

// KeyType is the algorithm family of a public key.
type KeyType string

const (
	// Ed25519 keys are stored as 32 raw bytes.
	Ed25519 KeyType = "Ed25519"
	// RSA keys are stored as DER (PKIX or PKCS#1).
	RSA KeyType = "RSA"
	// Secp256k1 keys are stored as the 65 byte uncompressed point.
	Secp256k1 KeyType = "secp256k1"
	// P256 keys are stored as the 65 byte uncompressed point.
	P256 KeyType = "P-256"
	// P384 keys are stored as the 97 byte uncompressed point.
	P384 KeyType = "P-384"
)

// Encoding names the field a key was read from.
type Encoding string

// Key encodings.
const (
	EncodingPEM       Encoding = "pem"
	EncodingDER       Encoding = "der"
	EncodingJWK       Encoding = "jwk"
	EncodingHex       Encoding = "hex"
	EncodingMultibase Encoding = "multibase"
	EncodingBase58    Encoding = "base58"
)

// Verification method types.
const (
	Ed25519VerificationKey2018        = "Ed25519VerificationKey2018"
	Ed25519VerificationKey2020        = "Ed25519VerificationKey2020"
	EcdsaSecp256k1VerificationKey2019 = "EcdsaSecp256k1VerificationKey2019"
	RsaVerificationKey2018            = "RsaVerificationKey2018"
	JSONWebKey2020                    = "JsonWebKey2020"
	Multikey                          = "Multikey"
)

// BytesKey contains bytes of public key.
type BytesKey struct {
	Bytes []byte
}

// PublicKey contains a result of public key resolution.
type PublicKey struct {
	Type KeyType

	BytesKey *BytesKey
	JWK      *jwk.JWK

	// VerificationMethod is the id the key was resolved from.
	VerificationMethod string
	// VerificationMethodType is the declared type, e.g. Ed25519VerificationKey2020.
	VerificationMethodType string
	Encoding               Encoding
}

// KeyTypeOf maps a verification method type (or a loose algorithm hint) to a key family.
func KeyTypeOf(vmType string) (KeyType, bool) {
	switch vmType {
	case Ed25519VerificationKey2018, Ed25519VerificationKey2020, "Ed25519", "EdDSA", "OKP":
		return Ed25519, true
	case EcdsaSecp256k1VerificationKey2019, "secp256k1", "ES256K":
		return Secp256k1, true
	case RsaVerificationKey2018, "RSA", "RS256", "PS256":
		return RSA, true
	case "P-256", "ES256":
		return P256, true
	case "P-384", "ES384":
		return P384, true
	}

	return "", false
}

// DefaultVerificationMethodType returns the verification method type used for bare keys of keyType.
func DefaultVerificationMethodType(keyType KeyType) string {
	switch keyType {
	case Ed25519:
		return Ed25519VerificationKey2020
	case Secp256k1:
		return EcdsaSecp256k1VerificationKey2019
	case RSA:
		return RsaVerificationKey2018
	}

	return Multikey
}

// CryptoPublicKey converts the key to the crypto package representation:
// ed25519.PublicKey, *rsa.PublicKey or *ecdsa.PublicKey.
func (pk *PublicKey) CryptoPublicKey() (crypto.PublicKey, error) {
	if pk.JWK != nil {
		if pk.JWK.Key == nil {
			return nil, vcerror.New(vcerror.MalformedInput, "jwk carries no key")
		}

		return pk.JWK.Public().Key, nil
	}

	if pk.BytesKey == nil || len(pk.BytesKey.Bytes) == 0 {
		return nil, vcerror.New(vcerror.MalformedInput, "public key has no key material")
	}

	b := pk.BytesKey.Bytes

	switch pk.Type {
	case Ed25519:
		if len(b) != ed25519.PublicKeySize {
			return nil, vcerror.New(vcerror.MalformedInput, "ed25519: invalid key length %d", len(b))
		}

		return ed25519.PublicKey(b), nil
	case RSA:
		return parseRSA(b)
	case Secp256k1:
		k, err := btcec.ParsePubKey(b)
		if err != nil {
			return nil, vcerror.Wrap(vcerror.MalformedInput, err, "secp256k1: invalid public key")
		}

		return k.ToECDSA(), nil
	case P256, P384:
		curve := elliptic.P256()
		if pk.Type == P384 {
			curve = elliptic.P384()
		}

		x, y := elliptic.Unmarshal(curve, b) //nolint:staticcheck
		if x == nil {
			return nil, vcerror.New(vcerror.MalformedInput, "%s: invalid public key", pk.Type)
		}

		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	}

	return nil, vcerror.New(vcerror.MalformedInput, "unsupported key type %q", pk.Type)
}

func parseRSA(der []byte) (*rsa.PublicKey, error) {
	if k, err := x509.ParsePKCS1PublicKey(der); err == nil {
		return k, nil
	}

	k, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, vcerror.Wrap(vcerror.MalformedInput, err, "rsa: invalid public key")
	}

	rsaKey, ok := k.(*rsa.PublicKey)
	if !ok {
		return nil, vcerror.New(vcerror.MalformedInput, "rsa: key is %T", k)
	}

	return rsaKey, nil
}
