/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package testutil

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/trustbloc/kms-go/doc/jose"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/util/codec"
)

// CreateEd25519 creates a signer and the corresponding raw public key.
func CreateEd25519() (*Ed25519Signer, *pubkey.PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	return NewEd25519Signer(priv), &pubkey.PublicKey{
		Type:                   pubkey.Ed25519,
		BytesKey:               &pubkey.BytesKey{Bytes: pub},
		VerificationMethodType: pubkey.Ed25519VerificationKey2020,
		Encoding:               pubkey.EncodingMultibase,
	}, nil
}

// CreateRSARS256 creates signer and corresponding public key.
func CreateRSARS256() (*RS256Signer, *pubkey.PublicKey, error) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048) //nolint:gomnd
	if err != nil {
		return nil, nil, err
	}

	return NewRS256Signer(privKey), rsaPublicKey(&privKey.PublicKey), nil
}

// CreateRSAPS256 creates signer and corresponding public key.
func CreateRSAPS256() (*PS256Signer, *pubkey.PublicKey, error) {
	privKey, err := rsa.GenerateKey(rand.Reader, 2048) //nolint:gomnd
	if err != nil {
		return nil, nil, err
	}

	return NewPS256Signer(privKey), rsaPublicKey(&privKey.PublicKey), nil
}

// CreateECDSASecp256k1 creates signer and corresponding uncompressed public key.
func CreateECDSASecp256k1() (*ECDSASigner, *pubkey.PublicKey, error) {
	privKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, nil, err
	}

	return NewECDSASecp256k1Signer(privKey.ToECDSA()), &pubkey.PublicKey{
		Type:                   pubkey.Secp256k1,
		BytesKey:               &pubkey.BytesKey{Bytes: privKey.PubKey().SerializeUncompressed()},
		VerificationMethodType: pubkey.EcdsaSecp256k1VerificationKey2019,
		Encoding:               pubkey.EncodingHex,
	}, nil
}

// CreateECDSAP256 creates signer and corresponding uncompressed public key.
func CreateECDSAP256() (*ECDSASigner, *pubkey.PublicKey, error) {
	privKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	pub := privKey.PublicKey

	return NewECDSAP256Signer(privKey), &pubkey.PublicKey{
		Type:                   pubkey.P256,
		BytesKey:               &pubkey.BytesKey{Bytes: elliptic.Marshal(pub.Curve, pub.X, pub.Y)}, //nolint:staticcheck
		VerificationMethodType: pubkey.JSONWebKey2020,
		Encoding:               pubkey.EncodingJWK,
	}, nil
}

// CreateECDSAP384 creates signer and corresponding uncompressed public key.
func CreateECDSAP384() (*ECDSASigner, *pubkey.PublicKey, error) {
	privKey, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	pub := privKey.PublicKey

	return NewECDSAP384Signer(privKey), &pubkey.PublicKey{
		Type:                   pubkey.P384,
		BytesKey:               &pubkey.BytesKey{Bytes: elliptic.Marshal(pub.Curve, pub.X, pub.Y)}, //nolint:staticcheck
		VerificationMethodType: pubkey.Multikey,
		Encoding:               pubkey.EncodingMultibase,
	}, nil
}

// SignJWS builds a compact JWS over payload. Extra headers are merged over the signer headers.
func SignJWS(signer Signer, extra jose.Headers, payload []byte) (string, error) {
	headers := signer.Headers()
	for k, v := range extra {
		headers[k] = v
	}

	headerJSON, err := json.Marshal(headers)
	if err != nil {
		return "", err
	}

	signingInput := codec.EncodeBase64URL(headerJSON) + "." + codec.EncodeBase64URL(payload)

	sig, err := signer.Sign([]byte(signingInput))
	if err != nil {
		return "", err
	}

	return signingInput + "." + codec.EncodeBase64URL(sig), nil
}

func rsaPublicKey(pub *rsa.PublicKey) *pubkey.PublicKey {
	return &pubkey.PublicKey{
		Type:                   pubkey.RSA,
		BytesKey:               &pubkey.BytesKey{Bytes: x509.MarshalPKCS1PublicKey(pub)},
		VerificationMethodType: pubkey.RsaVerificationKey2018,
		Encoding:               pubkey.EncodingPEM,
	}
}
