/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package codec implements the binary encodings used by key material and signature envelopes:
// base64url, base64, hex, base58 (bitcoin alphabet) and multibase.
package codec

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/multiformats/go-multibase"

	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// DecodeBase64URL decodes base64url input with or without padding. Standard base64 is accepted too.
func DecodeBase64URL(s string) ([]byte, error) {
	if s == "" {
		return nil, vcerror.New(vcerror.DecodeError, "empty base64url input")
	}

	s = strings.TrimRight(s, "=")
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}

	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, vcerror.Wrap(vcerror.DecodeError, err, "invalid base64url input")
	}

	return b, nil
}

// EncodeBase64URL encodes bytes as unpadded base64url.
func EncodeBase64URL(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeHex decodes a hex string, accepting an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return nil, vcerror.New(vcerror.DecodeError, "empty hex input")
	}

	if len(s)%2 == 1 {
		s = "0" + s
	}

	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, vcerror.Wrap(vcerror.DecodeError, err, "invalid hex input")
	}

	return b, nil
}

// DecodeBase58 decodes a base58btc string. Leading '1' characters decode to zero bytes.
func DecodeBase58(s string) ([]byte, error) {
	if s == "" {
		return nil, vcerror.New(vcerror.DecodeError, "empty base58 input")
	}

	if i := strings.IndexFunc(s, func(r rune) bool { return !strings.ContainsRune(base58Alphabet, r) }); i >= 0 {
		return nil, vcerror.New(vcerror.DecodeError, "invalid base58 character %q at %d", s[i], i)
	}

	return base58.Decode(s), nil
}

// EncodeBase58 encodes bytes with the bitcoin base58 alphabet.
func EncodeBase58(b []byte) string {
	return base58.Encode(b)
}

// DecodeMultibase decodes a multibase string. The first character selects the base.
func DecodeMultibase(s string) ([]byte, error) {
	if len(s) < 2 {
		return nil, vcerror.New(vcerror.DecodeError, "multibase input too short")
	}

	// base58btc goes through DecodeBase58 so that alphabet errors are reported uniformly.
	if s[0] == multibase.Base58BTC {
		return DecodeBase58(s[1:])
	}

	if _, ok := multibase.EncodingToStr[multibase.Encoding(s[0])]; !ok {
		return nil, vcerror.New(vcerror.DecodeError, "unknown multibase prefix %q", s[0])
	}

	_, b, err := multibase.Decode(s)
	if err != nil {
		return nil, vcerror.Wrap(vcerror.DecodeError, err, "invalid multibase input")
	}

	return b, nil
}

// EncodeMultibase encodes bytes as base58btc multibase ('z' prefix).
func EncodeMultibase(b []byte) string {
	return string(rune(multibase.Base58BTC)) + EncodeBase58(b)
}
