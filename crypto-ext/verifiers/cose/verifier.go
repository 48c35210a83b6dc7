/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cose verifies COSE_Sign1 messages against a normalized public key.
package cose

import (
	"crypto/x509"
	"errors"

	gocose "github.com/veraison/go-cose"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

// sign1Tag is the leading byte of a COSE_Sign1_Tagged message, CBOR tag 18.
const sign1Tag = 0xd2

// nolint: gochecknoglobals
var algKeyTypes = map[gocose.Algorithm]pubkey.KeyType{
	gocose.AlgorithmEd25519: pubkey.Ed25519,
	gocose.AlgorithmPS256:   pubkey.RSA,
	gocose.AlgorithmES256:   pubkey.P256,
	gocose.AlgorithmES384:   pubkey.P384,
}

// Verifier verifies COSE_Sign1 signatures.
type Verifier struct{}

// New creates a new COSE Verifier.
func New() *Verifier {
	return &Verifier{}
}

// SupportedAlgorithm reports whether alg can be verified.
func (v *Verifier) SupportedAlgorithm(alg gocose.Algorithm) bool {
	_, ok := algKeyTypes[alg]

	return ok
}

// Verify checks the signature of msg with key. The algorithm is taken from the protected header.
func (v *Verifier) Verify(msg *gocose.Sign1Message, key *pubkey.PublicKey) (bool, error) {
	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil {
		return false, vcerror.Wrap(vcerror.MalformedInput, err, "cose: missing algorithm")
	}

	keyType, ok := algKeyTypes[alg]
	if !ok {
		return false, vcerror.New(vcerror.UnsupportedAlgorithm, "cose: algorithm %s", alg)
	}

	if key.Type != keyType {
		return false, vcerror.New(vcerror.MalformedInput, "cose: algorithm %s requires %s key, got %s",
			alg, keyType, key.Type)
	}

	cryptoKey, err := key.CryptoPublicKey()
	if err != nil {
		return false, err
	}

	verifier, err := gocose.NewVerifier(alg, cryptoKey)
	if err != nil {
		return false, vcerror.Wrap(vcerror.MalformedInput, err, "cose: create verifier")
	}

	err = msg.Verify(nil, verifier)
	if errors.Is(err, gocose.ErrVerification) {
		return false, nil
	}

	if err != nil {
		return false, vcerror.Wrap(vcerror.MalformedInput, err, "cose")
	}

	return true, nil
}

// Parse decodes a COSE_Sign1 message, tagged or not.
func Parse(raw []byte) (*gocose.Sign1Message, error) {
	if len(raw) > 0 && raw[0] == sign1Tag {
		var message gocose.Sign1Message

		if err := message.UnmarshalCBOR(raw); err != nil {
			return nil, vcerror.Wrap(vcerror.MalformedEnvelope, err, "cose: decode Sign1 message")
		}

		return &message, nil
	}

	var message gocose.UntaggedSign1Message

	if err := message.UnmarshalCBOR(raw); err != nil {
		return nil, vcerror.Wrap(vcerror.MalformedEnvelope, err, "cose: decode Sign1 message")
	}

	return (*gocose.Sign1Message)(&message), nil
}

// KeyID returns the kid header, looking at the protected header first.
func KeyID(msg *gocose.Sign1Message) (string, bool) {
	for _, h := range []map[interface{}]interface{}{msg.Headers.Protected, msg.Headers.Unprotected} {
		switch kid := h[gocose.HeaderLabelKeyID].(type) {
		case []byte:
			return string(kid), true
		case string:
			return kid, true
		}
	}

	return "", false
}

// CertificateChain returns the x5chain header, leaf first. The unprotected header is read first.
func CertificateChain(msg *gocose.Sign1Message) ([]*x509.Certificate, error) {
	var entries []interface{}

	for _, h := range []map[interface{}]interface{}{msg.Headers.Unprotected, msg.Headers.Protected} {
		switch v := h[gocose.HeaderLabelX5Chain].(type) {
		case []byte:
			entries = []interface{}{v}
		case []interface{}:
			entries = v
		}

		if len(entries) > 0 {
			break
		}
	}

	if len(entries) == 0 {
		return nil, vcerror.New(vcerror.InvalidCertificate, "cose: no x5chain header")
	}

	chain := make([]*x509.Certificate, 0, len(entries))

	for i, entry := range entries {
		der, ok := entry.([]byte)
		if !ok {
			return nil, vcerror.New(vcerror.InvalidCertificate, "cose: x5chain entry %d is not a byte string", i)
		}

		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, vcerror.Wrap(vcerror.InvalidCertificate, err, "cose: x5chain entry %d", i)
		}

		chain = append(chain, cert)
	}

	return chain, nil
}
