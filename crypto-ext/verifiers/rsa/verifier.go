/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package rsa

import (
	"crypto"
	"crypto/rsa"
	"errors"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

// PS256Verifier verifies RSASSA-PSS SHA-256 signatures.
type PS256Verifier struct{}

// NewPS256 creates a new PS256Verifier.
func NewPS256() *PS256Verifier {
	return &PS256Verifier{}
}

// SupportedKeyType checks if verifier supports given key.
func (sv *PS256Verifier) SupportedKeyType(keyType pubkey.KeyType) bool {
	return keyType == pubkey.RSA
}

// Verify verifies the signature.
func (sv *PS256Verifier) Verify(signature, msg []byte, key *pubkey.PublicKey) (bool, error) {
	pubKey, hashed, err := prepare(signature, msg, key)
	if err != nil {
		return false, err
	}

	err = rsa.VerifyPSS(pubKey, crypto.SHA256, hashed, signature, nil)

	return verificationResult(err)
}

// RS256Verifier verifies RSASSA-PKCS1-v1_5 SHA-256 signatures.
type RS256Verifier struct {
}

// NewRS256 creates a new RS256Verifier.
func NewRS256() *RS256Verifier {
	return &RS256Verifier{}
}

// SupportedKeyType checks if verifier supports given key.
func (sv *RS256Verifier) SupportedKeyType(keyType pubkey.KeyType) bool {
	return keyType == pubkey.RSA
}

// Verify verifies the signature.
func (sv *RS256Verifier) Verify(signature, msg []byte, key *pubkey.PublicKey) (bool, error) {
	pubKey, hashed, err := prepare(signature, msg, key)
	if err != nil {
		return false, err
	}

	err = rsa.VerifyPKCS1v15(pubKey, crypto.SHA256, hashed, signature)

	return verificationResult(err)
}

func prepare(signature, msg []byte, key *pubkey.PublicKey) (*rsa.PublicKey, []byte, error) {
	if key.Type != pubkey.RSA {
		return nil, nil, vcerror.New(vcerror.MalformedInput, "unsupported key type %s", key.Type)
	}

	cryptoKey, err := key.CryptoPublicKey()
	if err != nil {
		return nil, nil, err
	}

	pubKey, ok := cryptoKey.(*rsa.PublicKey)
	if !ok {
		return nil, nil, vcerror.New(vcerror.MalformedInput, "public key not rsa.PublicKey")
	}

	if len(signature) != pubKey.Size() {
		return nil, nil, vcerror.New(vcerror.MalformedInput, "rsa: signature size %d does not match key size %d",
			len(signature), pubKey.Size())
	}

	hasher := crypto.SHA256.New()

	_, err = hasher.Write(msg)
	if err != nil {
		return nil, nil, errors.New("rsa: hash error")
	}

	return pubKey, hasher.Sum(nil), nil
}

func verificationResult(err error) (bool, error) {
	if errors.Is(err, rsa.ErrVerification) {
		return false, nil
	}

	if err != nil {
		return false, vcerror.Wrap(vcerror.MalformedInput, err, "rsa")
	}

	return true, nil
}
