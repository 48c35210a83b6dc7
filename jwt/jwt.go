/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwt parses the compact JWS envelopes of JWT credentials and detached LD proof signatures.
package jwt

import (
	"bytes"
	"strings"

	"github.com/go-jose/go-jose/v3/json"
	josejwt "github.com/go-jose/go-jose/v3/jwt"
	"github.com/trustbloc/kms-go/doc/jose"

	"github.com/trustbloc/vc-offline-verifier/util/codec"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

const (
	// TypeJWT is the typ (and explicit typing suffix) of a JWT.
	TypeJWT = "JWT"
	// TypeSDJWT is the explicit typing suffix of an SD-JWT.
	TypeSDJWT = "SD-JWT"
)

// Claims are the registered JWT claims (RFC 7519 section 4.1).
type Claims = josejwt.Claims

// IsJWS reports whether s looks like a compact JWS with JSON header and payload segments.
func IsJWS(s string) bool {
	parts := strings.Split(s, ".")

	return len(parts) == compactSegments &&
		isJSONObject(parts[0]) &&
		isJSONObject(parts[1]) &&
		parts[2] != ""
}

func isJSONObject(segment string) bool {
	b, err := codec.DecodeBase64URL(segment)
	if err != nil {
		return false
	}

	_, err = decodeObject(b)

	return err == nil
}

// CheckHeaders rejects envelope headers that can't belong to a credential: a missing alg, a typ
// other than JWT (optionally explicitly typed, e.g. vc+jwt) and nested JWTs.
func CheckHeaders(headers jose.Headers) error {
	if _, ok := headers[jose.HeaderAlgorithm]; !ok {
		return vcerror.New(vcerror.MalformedHeader, "alg header is not defined")
	}

	if typ, ok := headers[jose.HeaderType]; ok {
		if err := checkType(typ); err != nil {
			return err
		}
	}

	// RFC 7519 section 5.2
	if cty, ok := headers[jose.HeaderContentType].(string); ok && strings.EqualFold(cty, TypeJWT) {
		return vcerror.New(vcerror.MalformedHeader, "nested JWT is not supported")
	}

	return nil
}

func checkType(typ interface{}) error {
	s, ok := typ.(string)
	if !ok {
		return vcerror.New(vcerror.MalformedHeader, "typ header is not a string")
	}

	// RFC 8725 section 3.11
	if i := strings.LastIndex(s, "+"); i >= 0 {
		suffix := strings.ToUpper(s[i+1:])
		if suffix != TypeJWT && suffix != TypeSDJWT {
			return vcerror.New(vcerror.MalformedHeader, "typ %q is not a JWT type", s)
		}

		return nil
	}

	if !strings.EqualFold(s, TypeJWT) {
		return vcerror.New(vcerror.MalformedHeader, "typ %q is not a JWT type", s)
	}

	return nil
}

// decodeObject decodes a JSON object keeping numbers as json.Number.
func decodeObject(b []byte) (map[string]interface{}, error) {
	var m map[string]interface{}

	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()

	if err := d.Decode(&m); err != nil {
		return nil, err
	}

	if m == nil {
		return nil, vcerror.New(vcerror.MalformedInput, "payload is not a JSON object")
	}

	return m, nil
}
