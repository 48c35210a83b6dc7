/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"

	"github.com/trustbloc/kms-go/doc/jose"
)

// Signer signs data and reports the matching JWS header.
type Signer interface {
	Sign(data []byte) ([]byte, error)
	Headers() jose.Headers
}

// Ed25519Signer is a Jose compliant signer.
type Ed25519Signer struct {
	privKey ed25519.PrivateKey
}

// Sign data.
func (s Ed25519Signer) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(s.privKey, data), nil
}

// Headers returns the JWS header of EdDSA signatures.
func (s Ed25519Signer) Headers() jose.Headers {
	return jose.Headers{
		jose.HeaderAlgorithm: "EdDSA",
	}
}

// NewEd25519Signer creates Ed25519Signer.
func NewEd25519Signer(privKey ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{privKey: privKey}
}

// RS256Signer is a Jose compliant signer.
type RS256Signer struct {
	privKey *rsa.PrivateKey
}

// Sign data.
func (s RS256Signer) Sign(data []byte) ([]byte, error) {
	hashed := sha256Sum(data)

	return rsa.SignPKCS1v15(rand.Reader, s.privKey, crypto.SHA256, hashed)
}

// Headers returns the JWS header of RS256 signatures.
func (s RS256Signer) Headers() jose.Headers {
	return jose.Headers{
		jose.HeaderAlgorithm: "RS256",
	}
}

// NewRS256Signer creates RS256Signer.
func NewRS256Signer(privKey *rsa.PrivateKey) *RS256Signer {
	return &RS256Signer{
		privKey: privKey,
	}
}

// PS256Signer is a Jose compliant signer.
type PS256Signer struct {
	privKey *rsa.PrivateKey
}

// Sign data.
func (s PS256Signer) Sign(data []byte) ([]byte, error) {
	hashed := sha256Sum(data)

	return rsa.SignPSS(rand.Reader, s.privKey, crypto.SHA256, hashed, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
}

// Headers returns the JWS header of PS256 signatures.
func (s PS256Signer) Headers() jose.Headers {
	return jose.Headers{
		jose.HeaderAlgorithm: "PS256",
	}
}

// NewPS256Signer creates PS256Signer.
func NewPS256Signer(privKey *rsa.PrivateKey) *PS256Signer {
	return &PS256Signer{
		privKey: privKey,
	}
}

// ECDSASigner makes IEEE P1363 (r||s) ECDSA signatures.
type ECDSASigner struct {
	privateKey *ecdsa.PrivateKey
	alg        string
	hash       crypto.Hash
	der        bool
}

// NewECDSASecp256k1Signer creates an ES256K signer.
func NewECDSASecp256k1Signer(privateKey *ecdsa.PrivateKey) *ECDSASigner {
	return &ECDSASigner{privateKey: privateKey, alg: "ES256K", hash: crypto.SHA256}
}

// NewECDSAP256Signer creates an ES256 signer.
func NewECDSAP256Signer(privateKey *ecdsa.PrivateKey) *ECDSASigner {
	return &ECDSASigner{privateKey: privateKey, alg: "ES256", hash: crypto.SHA256}
}

// NewECDSAP384Signer creates an ES384 signer.
func NewECDSAP384Signer(privateKey *ecdsa.PrivateKey) *ECDSASigner {
	return &ECDSASigner{privateKey: privateKey, alg: "ES384", hash: crypto.SHA384}
}

// WithDER switches the signer to ASN.1 DER output.
func (es *ECDSASigner) WithDER() *ECDSASigner {
	es.der = true

	return es
}

// Sign signs a message.
func (es *ECDSASigner) Sign(msg []byte) ([]byte, error) {
	hasher := es.hash.New()
	_, _ = hasher.Write(msg)
	hashed := hasher.Sum(nil)

	if es.der {
		return ecdsa.SignASN1(rand.Reader, es.privateKey, hashed)
	}

	r, s, err := ecdsa.Sign(rand.Reader, es.privateKey, hashed)
	if err != nil {
		return nil, err
	}

	keyBytes := (es.privateKey.Curve.Params().BitSize + 7) / 8 //nolint:gomnd

	return append(r.FillBytes(make([]byte, keyBytes)), s.FillBytes(make([]byte, keyBytes))...), nil
}

// Headers returns the JWS header of the signer algorithm.
func (es *ECDSASigner) Headers() jose.Headers {
	return jose.Headers{
		jose.HeaderAlgorithm: es.alg,
	}
}

func sha256Sum(data []byte) []byte {
	hasher := crypto.SHA256.New()
	_, _ = hasher.Write(data)

	return hasher.Sum(nil)
}
