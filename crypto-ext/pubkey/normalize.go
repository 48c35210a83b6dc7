/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package pubkey

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/trustbloc/kms-go/doc/jose/jwk"

	"github.com/trustbloc/vc-offline-verifier/util/codec"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

const (
	ed25519SPKIPrefix = "302a300506032b6570032100"

	compressedPointSize     = 33
	uncompressedPointSize   = 65
	p384CompressedPointSize = 49
)

// Multicodec prefixes of public keys (unsigned varint encoded).
var (
	ed25519MulticodecPrefix   = []byte{0xed, 0x01} //nolint:gochecknoglobals
	secp256k1MulticodecPrefix = []byte{0xe7, 0x01} //nolint:gochecknoglobals
	p256MulticodecPrefix      = []byte{0x80, 0x24} //nolint:gochecknoglobals
	p384MulticodecPrefix      = []byte{0x81, 0x24} //nolint:gochecknoglobals
)

// FromPEM reads a PEM armored SubjectPublicKeyInfo (or PKCS#1 RSA key).
// The key family comes from vmType, or from the SPKI algorithm when vmType is not recognized.
func FromPEM(pemText, vmType, vmID string) (*PublicKey, error) {
	block, _ := pem.Decode([]byte(pemText))
	if block == nil {
		return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "invalid PEM public key of %s", vmID)
	}

	key, err := FromSPKI(block.Bytes, vmType, vmID)
	if err != nil {
		return nil, err
	}

	key.Encoding = EncodingPEM

	return key, nil
}

// FromSPKI reads a DER SubjectPublicKeyInfo (or PKCS#1 RSA key), such as the key of an X.509
// certificate. The key family comes from vmType, or from the SPKI algorithm when vmType is not recognized.
func FromSPKI(der []byte, vmType, vmID string) (*PublicKey, error) {
	keyType, ok := KeyTypeOf(vmType)
	if !ok {
		keyType, ok = keyTypeOfSPKI(der)
		if !ok {
			return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "unsupported SPKI key type %q of %s", vmType, vmID)
		}
	}

	var (
		raw []byte
		err error
	)

	switch keyType {
	case Ed25519:
		raw, err = ed25519FromDER(der)
	case RSA:
		raw, err = der, nil
	case Secp256k1:
		raw, err = secp256k1FromDER(der)
	case P256, P384:
		raw, err = nistFromDER(der, keyType)
	}

	if err != nil {
		return nil, err
	}

	return newBytesKey(keyType, raw, vmType, vmID, EncodingDER), nil
}

// FromJWK reads a JSON Web Key given as a decoded JSON object or a JSON string. OKP Ed25519,
// EC secp256k1, P-256 and P-384, and RSA public keys are supported.
func FromJWK(jwkValue interface{}, vmType, vmID string) (*PublicKey, error) {
	raw, err := jwkJSON(jwkValue)
	if err != nil {
		return nil, err
	}

	j := &jwk.JWK{}
	if err = j.UnmarshalJSON(raw); err != nil {
		return nil, vcerror.Wrap(vcerror.UnsupportedKeyFormat, err, "invalid jwk of %s", vmID)
	}

	var (
		keyType KeyType
		keyRaw  []byte
	)

	switch key := j.Key.(type) {
	case ed25519.PublicKey:
		if len(key) != ed25519.PublicKeySize {
			return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "ed25519 jwk x must be %d bytes",
				ed25519.PublicKeySize)
		}

		keyType, keyRaw = Ed25519, key
	case *ecdsa.PublicKey:
		keyType, keyRaw, err = ecPoint(key)
		if err != nil {
			return nil, vcerror.Wrap(vcerror.UnsupportedKeyFormat, err, "jwk of %s", vmID)
		}
	case *rsa.PublicKey:
		keyType, keyRaw = RSA, x509.MarshalPKCS1PublicKey(key)
	default:
		return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "unsupported jwk kty %q crv %q of %s",
			j.Kty, j.Crv, vmID)
	}

	pk := newBytesKey(keyType, keyRaw, vmType, vmID, EncodingJWK)
	pk.JWK = j

	return pk, nil
}

func jwkJSON(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case map[string]interface{}:
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, vcerror.Wrap(vcerror.UnsupportedKeyFormat, err, "invalid jwk json")
		}

		return raw, nil
	}

	return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "unsupported jwk value %T", v)
}

// ecPoint returns the key family and uncompressed point of an EC public key.
func ecPoint(key *ecdsa.PublicKey) (KeyType, []byte, error) {
	switch key.Curve {
	case btcec.S256():
		var x, y btcec.FieldVal

		x.SetByteSlice(key.X.Bytes())
		y.SetByteSlice(key.Y.Bytes())

		return Secp256k1, btcec.NewPublicKey(&x, &y).SerializeUncompressed(), nil
	case elliptic.P256():
		return P256, elliptic.Marshal(key.Curve, key.X, key.Y), nil //nolint:staticcheck
	case elliptic.P384():
		return P384, elliptic.Marshal(key.Curve, key.X, key.Y), nil //nolint:staticcheck
	}

	return "", nil, fmt.Errorf("unsupported curve %s", key.Curve.Params().Name)
}

// FromHex reads a hex encoded key. Compressed secp256k1 points are expanded.
func FromHex(hexKey, vmType, vmID string) (*PublicKey, error) {
	keyType, ok := KeyTypeOf(vmType)
	if !ok {
		return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "unsupported hex key type %q of %s", vmType, vmID)
	}

	raw, err := codec.DecodeHex(hexKey)
	if err != nil {
		return nil, err
	}

	raw, err = normalizeRaw(keyType, raw)
	if err != nil {
		return nil, err
	}

	return newBytesKey(keyType, raw, vmType, vmID, EncodingHex), nil
}

// FromMultibase reads a multibase key, stripping an Ed25519, secp256k1, P-256 or P-384 multicodec prefix.
func FromMultibase(mb, vmType, vmID string) (*PublicKey, error) {
	raw, err := codec.DecodeMultibase(mb)
	if err != nil {
		return nil, err
	}

	var keyType KeyType

	switch {
	case len(raw) == len(ed25519MulticodecPrefix)+ed25519.PublicKeySize &&
		bytes.HasPrefix(raw, ed25519MulticodecPrefix):
		keyType, raw = Ed25519, raw[len(ed25519MulticodecPrefix):]
	case len(raw) == len(secp256k1MulticodecPrefix)+compressedPointSize &&
		bytes.HasPrefix(raw, secp256k1MulticodecPrefix):
		keyType, raw = Secp256k1, raw[len(secp256k1MulticodecPrefix):]
	case len(raw) == len(p256MulticodecPrefix)+compressedPointSize &&
		bytes.HasPrefix(raw, p256MulticodecPrefix):
		keyType, raw = P256, raw[len(p256MulticodecPrefix):]
	case len(raw) == len(p384MulticodecPrefix)+p384CompressedPointSize &&
		bytes.HasPrefix(raw, p384MulticodecPrefix):
		keyType, raw = P384, raw[len(p384MulticodecPrefix):]
	default:
		hinted, ok := KeyTypeOf(vmType)
		if !ok {
			return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "unrecognized multibase key of %s", vmID)
		}

		keyType = hinted
	}

	raw, err = normalizeRaw(keyType, raw)
	if err != nil {
		return nil, err
	}

	// the multicodec prefix decides the key family, a conflicting type hint is replaced
	if hinted, ok := KeyTypeOf(vmType); (ok && hinted != keyType) || vmType == "" {
		vmType = DefaultVerificationMethodType(keyType)
	}

	return newBytesKey(keyType, raw, vmType, vmID, EncodingMultibase), nil
}

// FromBase58 reads a raw base58btc key as used by publicKeyBase58.
func FromBase58(b58, vmType, vmID string) (*PublicKey, error) {
	keyType, ok := KeyTypeOf(vmType)
	if !ok {
		return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "unsupported base58 key type %q of %s", vmType, vmID)
	}

	raw, err := codec.DecodeBase58(b58)
	if err != nil {
		return nil, err
	}

	raw, err = normalizeRaw(keyType, raw)
	if err != nil {
		return nil, err
	}

	return newBytesKey(keyType, raw, vmType, vmID, EncodingBase58), nil
}

// Ed25519Multibase encodes raw Ed25519 key bytes as a multicodec prefixed base58btc multibase string.
func Ed25519Multibase(raw []byte) string {
	return codec.EncodeMultibase(append(append([]byte{}, ed25519MulticodecPrefix...), raw...))
}

// ECMultibase encodes an uncompressed P-256 or P-384 point as a multicodec prefixed, compressed
// base58btc multibase string as used by Multikey verification methods.
func ECMultibase(keyType KeyType, point []byte) (string, error) {
	curve, prefix := elliptic.P256(), p256MulticodecPrefix
	if keyType == P384 {
		curve, prefix = elliptic.P384(), p384MulticodecPrefix
	} else if keyType != P256 {
		return "", vcerror.New(vcerror.UnsupportedKeyFormat, "no multikey encoding for %s", keyType)
	}

	x, y := elliptic.Unmarshal(curve, point) //nolint:staticcheck
	if x == nil {
		return "", vcerror.New(vcerror.UnsupportedKeyFormat, "invalid %s point", keyType)
	}

	return codec.EncodeMultibase(append(append([]byte{}, prefix...), elliptic.MarshalCompressed(curve, x, y)...)), nil
}

func newBytesKey(keyType KeyType, raw []byte, vmType, vmID string, enc Encoding) *PublicKey {
	return &PublicKey{
		Type:                   keyType,
		BytesKey:               &BytesKey{Bytes: raw},
		VerificationMethod:     vmID,
		VerificationMethodType: vmType,
		Encoding:               enc,
	}
}

func normalizeRaw(keyType KeyType, raw []byte) ([]byte, error) {
	switch keyType {
	case Ed25519:
		if len(raw) != ed25519.PublicKeySize {
			return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "ed25519 key must be %d bytes, got %d",
				ed25519.PublicKeySize, len(raw))
		}
	case Secp256k1:
		k, err := btcec.ParsePubKey(raw)
		if err != nil {
			return nil, vcerror.Wrap(vcerror.UnsupportedKeyFormat, err, "invalid secp256k1 key")
		}

		return k.SerializeUncompressed(), nil
	case P384:
		if len(raw) == p384CompressedPointSize {
			x, y := elliptic.UnmarshalCompressed(elliptic.P384(), raw)
			if x == nil {
				return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "invalid compressed p-384 key")
			}

			return elliptic.Marshal(elliptic.P384(), x, y), nil //nolint:staticcheck
		}
	case P256:
		if len(raw) == compressedPointSize {
			x, y := elliptic.UnmarshalCompressed(elliptic.P256(), raw)
			if x == nil {
				return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "invalid compressed p-256 key")
			}

			return elliptic.Marshal(elliptic.P256(), x, y), nil //nolint:staticcheck
		}
	case RSA:
	}

	return raw, nil
}

func keyTypeOfSPKI(der []byte) (KeyType, bool) {
	if bytes.HasPrefix(der, mustHex(ed25519SPKIPrefix)) {
		return Ed25519, true
	}

	k, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		if _, err = x509.ParsePKCS1PublicKey(der); err == nil {
			return RSA, true
		}

		return "", false
	}

	switch key := k.(type) {
	case ed25519.PublicKey:
		return Ed25519, true
	case *rsa.PublicKey:
		return RSA, true
	case *ecdsa.PublicKey:
		switch key.Curve {
		case elliptic.P256():
			return P256, true
		case elliptic.P384():
			return P384, true
		}
	}

	return "", false
}

func ed25519FromDER(der []byte) ([]byte, error) {
	prefix := mustHex(ed25519SPKIPrefix)
	if len(der) == len(prefix)+ed25519.PublicKeySize && bytes.HasPrefix(der, prefix) {
		return der[len(prefix):], nil
	}

	if len(der) == ed25519.PublicKeySize {
		return der, nil
	}

	return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "invalid ed25519 PEM key")
}

// secp256k1FromDER takes the point from the end of the SPKI BIT STRING; crypto/x509 does not know the curve.
func secp256k1FromDER(der []byte) ([]byte, error) {
	for _, size := range []int{uncompressedPointSize, compressedPointSize} {
		if len(der) < size {
			continue
		}

		if k, err := btcec.ParsePubKey(der[len(der)-size:]); err == nil {
			return k.SerializeUncompressed(), nil
		}
	}

	return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "invalid secp256k1 PEM key")
}

func nistFromDER(der []byte, keyType KeyType) ([]byte, error) {
	k, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, vcerror.Wrap(vcerror.UnsupportedKeyFormat, err, "invalid %s PEM key", keyType)
	}

	ecKey, ok := k.(*ecdsa.PublicKey)
	if !ok {
		return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "PEM key is not %s", keyType)
	}

	actual, point, err := ecPoint(ecKey)
	if err != nil || actual != keyType {
		return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "PEM key is not %s", keyType)
	}

	return point, nil
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}

	return b
}
