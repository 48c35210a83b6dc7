/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwt

import (
	"strings"

	"github.com/go-jose/go-jose/v3/json"
	"github.com/trustbloc/kms-go/doc/jose"

	"github.com/trustbloc/vc-offline-verifier/util/codec"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

const (
	compactSegments = 3
	headerB64       = "b64"
)

// nolint: gochecknoglobals
var allowedAlgorithms = []string{"PS256", "RS256", "EdDSA", "ES256K"}

// AllowedAlgorithms returns the JWS algorithms an envelope may declare.
func AllowedAlgorithms() []string {
	return append([]string(nil), allowedAlgorithms...)
}

// IsAllowedAlgorithm reports whether alg is in the allow-list.
func IsAllowedAlgorithm(alg string) bool {
	for _, a := range allowedAlgorithms {
		if a == alg {
			return true
		}
	}

	return false
}

// SigningEnvelope is a parsed compact JWS.
type SigningEnvelope struct {
	Headers jose.Headers
	// Payload is the second compact segment as received. It is empty for detached payloads.
	Payload string
	// SigningInput is the literal text the signature was computed over.
	SigningInput string
	Signature    []byte
}

// ParseEnvelope splits a compact JWS and checks its algorithm against the allow-list before any
// key is resolved. Credential header policy (typ, cty) is left to CheckHeaders.
func ParseEnvelope(envelope string) (*SigningEnvelope, error) {
	parts := strings.Split(envelope, ".")
	if len(parts) != compactSegments {
		return nil, vcerror.New(vcerror.MalformedEnvelope, "expected %d segments, got %d",
			compactSegments, len(parts))
	}

	headerBytes, err := codec.DecodeBase64URL(parts[0])
	if err != nil {
		return nil, vcerror.Wrap(vcerror.MalformedHeader, err, "decode header")
	}

	var headers jose.Headers
	if err = json.Unmarshal(headerBytes, &headers); err != nil || headers == nil {
		return nil, vcerror.Wrap(vcerror.MalformedHeader, err, "header is not a JSON object")
	}

	alg, ok := headers.Algorithm()
	if !ok || !IsAllowedAlgorithm(alg) {
		return nil, vcerror.New(vcerror.UnsupportedAlgorithm, "algorithm %v is not supported",
			headers[jose.HeaderAlgorithm])
	}

	signature, err := codec.DecodeBase64URL(parts[2])
	if err != nil {
		return nil, vcerror.Wrap(vcerror.MalformedEnvelope, err, "decode signature")
	}

	if len(signature) == 0 {
		return nil, vcerror.New(vcerror.MalformedEnvelope, "missing signature")
	}

	return &SigningEnvelope{
		Headers:      headers,
		Payload:      parts[1],
		SigningInput: parts[0] + "." + parts[1],
		Signature:    signature,
	}, nil
}

// KeyID returns the kid header.
func (e *SigningEnvelope) KeyID() (string, bool) {
	return e.Headers.KeyID()
}

// Algorithm returns the alg header.
func (e *SigningEnvelope) Algorithm() string {
	alg, _ := e.Headers.Algorithm()

	return alg
}

// IsDetached reports whether the payload segment is empty.
func (e *SigningEnvelope) IsDetached() bool {
	return e.Payload == ""
}

// DecodePayload returns the payload bytes. Unencoded payloads (b64=false) are returned as is.
func (e *SigningEnvelope) DecodePayload() ([]byte, error) {
	if b64, ok := e.Headers[headerB64].(bool); ok && !b64 {
		return []byte(e.Payload), nil
	}

	return codec.DecodeBase64URL(e.Payload)
}

// DecodeClaims fills c with the payload claims.
func (e *SigningEnvelope) DecodeClaims(c interface{}) error {
	payload, err := e.DecodePayload()
	if err != nil {
		return err
	}

	return json.Unmarshal(payload, c)
}

// ClaimsMap returns the payload as a map.
func (e *SigningEnvelope) ClaimsMap() (map[string]interface{}, error) {
	payload, err := e.DecodePayload()
	if err != nil {
		return nil, err
	}

	return decodeObject(payload)
}
