/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	gocose "github.com/veraison/go-cose"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/cose"
	"github.com/trustbloc/vc-offline-verifier/util/codec"
)

// cwtClaims are the registered CWT claims (RFC 8392) read from a COSE_Sign1 payload.
type cwtClaims struct {
	Issuer    string `cbor:"1,keyasint,omitempty"`
	Subject   string `cbor:"2,keyasint,omitempty"`
	Expiry    *int64 `cbor:"4,keyasint,omitempty"`
	NotBefore *int64 `cbor:"5,keyasint,omitempty"`
	IssuedAt  *int64 `cbor:"6,keyasint,omitempty"`
}

// COSECredential validates and verifies credentials secured as a COSE_Sign1 message carrying CWT
// claims (cwt_vc). The message is accepted hex or base64url encoded.
type COSECredential struct {
	opts *options
}

// NewCOSECredential creates COSECredential.
func NewCOSECredential(opts ...Opt) *COSECredential {
	return &COSECredential{opts: newOptions(opts)}
}

// Validate checks the message structure, the protected algorithm, the kid and the CWT time claims.
func (c *COSECredential) Validate(credential string) ValidationStatus {
	if strings.TrimSpace(credential) == "" {
		return ValidationStatus{Message: msgEmptyVC, ErrorCode: CodeEmptyVC}
	}

	return statusOf(c.validate(credential))
}

func (c *COSECredential) validate(credential string) error {
	msg, claims, err := parseCOSECredential(credential)
	if err != nil {
		return err
	}

	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil || !cose.New().SupportedAlgorithm(alg) {
		return newValidationError(CodeInvalidAlgorithm, msgAlgorithmNotSupported)
	}

	if _, ok := cose.KeyID(msg); !ok {
		return missingField(fieldKID)
	}

	if claims.Issuer != "" && !isValidURI(claims.Issuer) {
		return invalidURI(invalidCode(fieldIssuer), fieldIssuer)
	}

	return checkCWTTimes(claims, c.opts.now())
}

func checkCWTTimes(claims *cwtClaims, now time.Time) error {
	upper := now.Add(dateTolerance)

	if claims.NotBefore != nil && time.Unix(*claims.NotBefore, 0).After(upper) {
		return newValidationError(CodeProcessingDateIsFutureDate, msgProcessingDateIsFuture)
	}

	if claims.IssuedAt != nil && time.Unix(*claims.IssuedAt, 0).After(upper) {
		return newValidationError(CodeIssuanceDateIsFutureDate, msgIssuanceDateIsFuture)
	}

	if claims.Expiry != nil && !time.Unix(*claims.Expiry, 0).After(upper) {
		return newValidationError(CodeVCExpired, msgVCExpired)
	}

	return nil
}

// Verify resolves the key named by the kid header and checks the COSE_Sign1 signature.
func (c *COSECredential) Verify(ctx context.Context, credential string) (bool, error) {
	msg, claims, err := parseCOSECredential(credential)
	if err != nil {
		return false, err
	}

	kid, _ := cose.KeyID(msg)

	vmID, err := verificationMethodID(kid, claims.Issuer)
	if err != nil {
		return false, err
	}

	key, err := c.opts.resolver.Resolve(ctx, vmID)
	if err != nil {
		return false, err
	}

	ok, err := c.opts.dispatch.VerifyCOSEMessage(msg, key)
	if err != nil {
		return false, err
	}

	if !ok {
		c.opts.logger.WithField("vm", vmID).Debug("cose signature mismatch")
	}

	return ok, nil
}

func parseCOSECredential(credential string) (*gocose.Sign1Message, *cwtClaims, error) {
	raw, err := decodeCOSE(strings.TrimSpace(credential))
	if err != nil {
		return nil, nil, newValidationError(CodeInvalidCWTFormat, msgInvalidCWTFormat)
	}

	msg, err := cose.Parse(raw)
	if err != nil {
		return nil, nil, newValidationError(CodeInvalidCWTFormat, msgInvalidCWTFormat)
	}

	claims := &cwtClaims{}

	if err = cbor.Unmarshal(msg.Payload, claims); err != nil {
		return nil, nil, newValidationError(CodeInvalidCWTFormat, msgInvalidCWTFormat)
	}

	return msg, claims, nil
}

// decodeCOSE accepts hex first, since every hex string is also valid base64url.
func decodeCOSE(s string) ([]byte, error) {
	if raw, err := codec.DecodeHex(s); err == nil {
		return raw, nil
	}

	return codec.DecodeBase64URL(s)
}
