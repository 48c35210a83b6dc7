/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"errors"
	"strings"
	"time"

	josejwt "github.com/go-jose/go-jose/v3/jwt"

	"github.com/trustbloc/vc-offline-verifier/jwt"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

const (
	fieldVC   = "vc"
	fieldKID  = "kid"
	didPrefix = "did:"
)

// jwtVCClaims are the claims of a JWT secured credential. The credential itself sits under "vc",
// or at the top level for payloads without that claim.
type jwtVCClaims struct {
	josejwt.Claims

	VC map[string]interface{} `json:"vc,omitempty"`
}

// JWTCredential validates and verifies credentials secured as a compact JWS (jwt_vc).
type JWTCredential struct {
	opts *options
}

// NewJWTCredential creates JWTCredential.
func NewJWTCredential(opts ...Opt) *JWTCredential {
	return &JWTCredential{opts: newOptions(opts)}
}

// Validate checks the envelope, the credential claims and the JWT time claims.
func (c *JWTCredential) Validate(credential string) ValidationStatus {
	if strings.TrimSpace(credential) == "" {
		return ValidationStatus{Message: msgEmptyVC, ErrorCode: CodeEmptyVC}
	}

	return statusOf(c.validate(strings.TrimSpace(credential)))
}

func (c *JWTCredential) validate(credential string) error {
	envelope, claims, vc, err := parseJWTCredential(credential)
	if err != nil {
		return err
	}

	issuer := claims.Issuer
	if issuer == "" {
		issuer = issuerID(vc[fieldIssuer])
	}

	if issuer == "" {
		return missingField(fieldIssuer)
	}

	if !isValidURI(issuer) {
		return invalidURI(invalidCode(fieldIssuer), fieldIssuer)
	}

	kid, _ := envelope.KeyID()

	if _, err = bindIssuer(kid, claims, vc); err != nil {
		return newValidationError(CodeIssuerMismatch, validationErrorPrefix+err.Error())
	}

	if _, ok := vc[fieldType]; !ok {
		return missingField(fieldType)
	}

	if err = checkType(vc); err != nil {
		return err
	}

	if _, ok := vc[fieldCredentialSubject]; !ok && claims.Subject == "" {
		return missingField(fieldCredentialSubject)
	}

	if _, ok := vc[fieldCredentialSubject]; ok {
		if err = checkCredentialSubject(vc); err != nil {
			return err
		}
	}

	return checkJWTTimes(claims.Claims, c.opts.now())
}

// checkJWTTimes reports nbf and iat in the future as blocking failures and an exp in the past as
// expiry.
func checkJWTTimes(claims josejwt.Claims, now time.Time) error {
	expected := josejwt.Expected{Time: now}

	err := claims.ValidateWithLeeway(expected, dateTolerance)

	expired := errors.Is(err, josejwt.ErrExpired)
	if expired {
		claims.Expiry = nil
		err = claims.ValidateWithLeeway(expected, dateTolerance)
	}

	switch {
	case errors.Is(err, josejwt.ErrNotValidYet):
		return newValidationError(CodeProcessingDateIsFutureDate, msgProcessingDateIsFuture)
	case errors.Is(err, josejwt.ErrIssuedInTheFuture):
		return newValidationError(CodeIssuanceDateIsFutureDate, msgIssuanceDateIsFuture)
	case err != nil:
		return err
	case expired:
		return newValidationError(CodeVCExpired, msgVCExpired)
	}

	return nil
}

// Verify resolves the key named by the kid header and checks the JWS signature.
func (c *JWTCredential) Verify(ctx context.Context, credential string) (bool, error) {
	envelope, claims, vc, err := parseJWTCredential(strings.TrimSpace(credential))
	if err != nil {
		return false, err
	}

	kid, _ := envelope.KeyID()

	issuer, err := bindIssuer(kid, claims, vc)
	if err != nil {
		return false, err
	}

	vmID, err := verificationMethodID(kid, issuer)
	if err != nil {
		return false, err
	}

	key, err := c.opts.resolver.Resolve(ctx, vmID)
	if err != nil {
		return false, err
	}

	ok, err := c.opts.dispatch.Verify(envelope.Algorithm(), []byte(envelope.SigningInput), envelope.Signature, key)
	if err != nil {
		return false, err
	}

	if !ok {
		c.opts.logger.WithField("vm", vmID).Debug("jwt signature mismatch")
	}

	return ok, nil
}

func parseJWTCredential(credential string) (*jwt.SigningEnvelope, *jwtVCClaims, map[string]interface{}, error) {
	envelope, err := jwt.ParseEnvelope(credential)
	if err != nil {
		if vcerror.IsKind(err, vcerror.UnsupportedAlgorithm) {
			return nil, nil, nil, newValidationError(CodeInvalidAlgorithm, msgAlgorithmNotSupported)
		}

		return nil, nil, nil, newValidationError(CodeInvalidJWTFormat, msgInvalidJWTFormat)
	}

	if err = jwt.CheckHeaders(envelope.Headers); err != nil {
		return nil, nil, nil, newValidationError(CodeInvalidJWTFormat, msgInvalidJWTFormat)
	}

	if envelope.IsDetached() {
		return nil, nil, nil, newValidationError(CodeInvalidJWTFormat, msgInvalidJWTFormat)
	}

	claims := &jwtVCClaims{}

	if err = envelope.DecodeClaims(claims); err != nil {
		return nil, nil, nil, newValidationError(CodeInvalidJWTFormat, msgInvalidJWTFormat)
	}

	vc := claims.VC
	if vc == nil {
		payload, err := envelope.ClaimsMap()
		if err != nil {
			return nil, nil, nil, newValidationError(CodeInvalidJWTFormat, msgInvalidJWTFormat)
		}

		if _, ok := payload[fieldContext]; !ok {
			return nil, nil, nil, missingField(fieldVC)
		}

		vc = payload
	}

	return envelope, claims, vc, nil
}

// bindIssuer returns the credential issuer. The iss claim and vc.issuer must name the same
// issuer, and a DID kid must be a verification method of that issuer.
func bindIssuer(kid string, claims *jwtVCClaims, vc map[string]interface{}) (string, error) {
	issuer := claims.Issuer
	vcIssuer := issuerID(vc[fieldIssuer])

	switch {
	case issuer == "":
		issuer = vcIssuer
	case vcIssuer != "" && vcIssuer != issuer:
		return "", vcerror.New(vcerror.IssuerMismatch, "iss(%s) claim and vc.issuer(%s) mismatch", issuer, vcIssuer)
	}

	if strings.HasPrefix(kid, didPrefix) && vermethod.StripFragment(kid) != issuer {
		return "", vcerror.New(vcerror.IssuerMismatch, "%s %s is not a verification method of issuer %s",
			fieldKID, kid, issuer)
	}

	return issuer, nil
}

// verificationMethodID joins a relative kid to the issuer. Without a kid the issuer itself is
// used, which resolves for did:key issuers.
func verificationMethodID(kid, issuer string) (string, error) {
	switch {
	case kid == "" && issuer == "":
		return "", vcerror.New(vcerror.VerificationMethodNotFound, "no %s header and no issuer", fieldKID)
	case kid == "":
		return issuer, nil
	case strings.HasPrefix(kid, "#"):
		if issuer == "" {
			return "", vcerror.New(vcerror.VerificationMethodNotFound, "relative %s %q without issuer", fieldKID, kid)
		}

		return issuer + kid, nil
	}

	return kid, nil
}
