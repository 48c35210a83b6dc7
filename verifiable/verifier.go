/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/trustbloc/vc-offline-verifier/internal/logging"
	"github.com/trustbloc/vc-offline-verifier/status"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
	"github.com/trustbloc/vc-offline-verifier/verifiable/lddocument"
)

const (
	msgVerificationFailed         = "Verification Failed"
	msgOfflineDependenciesMissing = "Required verification data not available offline. " +
		"Connect to the internet to seed the cache and try again."
	verificationExceptionText = "Exception during Verification: "
	msgRevoked                = "VC is revoked"
	msgSuspended              = "VC is suspended"
	msgStatusVerification     = "Failed to verify status list credential"
)

// CredentialsVerifier runs validation, signature verification and the optional status check of a
// credential and folds the outcome into a VerificationResult.
type CredentialsVerifier struct {
	opts      *options
	verifiers map[Format]CredentialVerifier
}

// NewCredentialsVerifier creates CredentialsVerifier. The verifiers of every format share one
// document loader, resolver and dispatch table.
func NewCredentialsVerifier(opts ...Opt) (*CredentialsVerifier, error) {
	o := newOptions(opts)

	if o.loader == nil {
		loader, err := lddocument.NewDocumentLoader(lddocument.WithLoaderLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("create document loader: %w", err)
		}

		o.loader = loader
	}

	shared := append(append([]Opt(nil), opts...),
		WithDocumentLoader(o.loader),
		WithResolver(o.resolver),
		WithDispatch(o.dispatch),
		WithLogger(o.logger),
	)

	v := &CredentialsVerifier{
		opts:      o,
		verifiers: make(map[Format]CredentialVerifier),
	}

	for _, f := range Formats() {
		cv, err := NewCredentialVerifier(f, shared...)
		if err != nil {
			return nil, err
		}

		v.verifiers[f] = cv
	}

	return v, nil
}

// Verify validates and verifies credential. An expired credential with a valid signature is
// verified and carries ERR_VC_EXPIRED.
func (v *CredentialsVerifier) Verify(ctx context.Context, credential string, format Format) VerificationResult {
	logger := v.opts.logger.WithFields(logging.Fields{
		"attempt": uuid.NewString(),
		"format":  format,
	})

	result := v.verify(ctx, credential, format, logger)

	logger.WithFields(logging.Fields{
		"verified": result.Verified,
		"code":     result.ErrorCode,
		"status":   status.DeriveVerificationLogStatus(result),
	}).Info("credential verification")

	return result
}

func (v *CredentialsVerifier) verify(ctx context.Context, credential string, format Format,
	logger logrus.FieldLogger) VerificationResult {
	cv, ok := v.verifiers[format]
	if !ok {
		return VerificationResult{
			ErrorCode: CodeGeneric,
			Message:   verificationExceptionText + fmt.Sprintf("unsupported credential format: %s", format),
		}
	}

	validation := cv.Validate(credential)
	if validation.Blocking() {
		return VerificationResult{ErrorCode: validation.ErrorCode, Message: validation.Message}
	}

	ok, err := cv.Verify(ctx, credential)
	if err != nil {
		logger.WithError(err).Debug("verification error")

		return errorResult(err)
	}

	if !ok {
		return VerificationResult{ErrorCode: CodeSignatureVerificationFailed, Message: msgVerificationFailed}
	}

	if revoked := v.checkStatus(ctx, credential, format, logger); revoked != nil {
		return *revoked
	}

	return VerificationResult{Verified: true, ErrorCode: validation.ErrorCode, Message: validation.Message}
}

// checkStatus returns a failed result for revoked or suspended credentials and for status lists that
// fail verification. Other status check failures are logged and do not change the outcome.
func (v *CredentialsVerifier) checkStatus(ctx context.Context, credential string, format Format,
	logger logrus.FieldLogger) *VerificationResult {
	if v.opts.statusChecker == nil {
		return nil
	}

	vc, err := credentialDocument(credential, format)
	if err != nil || vc == nil {
		return nil
	}

	err = v.opts.statusChecker.CheckStatus(ctx, vc)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, status.ErrRevoked):
		return &VerificationResult{ErrorCode: status.CodeRevoked, Message: msgRevoked}
	case errors.Is(err, status.ErrSuspended):
		return &VerificationResult{ErrorCode: status.CodeSuspended, Message: msgSuspended}
	case errors.Is(err, status.ErrStatusVerification):
		logger.WithError(err).Debug("status list verification failed")

		return &VerificationResult{ErrorCode: status.CodeStatusVerification, Message: msgStatusVerification}
	}

	logger.WithError(err).Warn("credential status check failed")

	return nil
}

// credentialDocument returns the JSON credential of ldp_vc and jwt_vc credentials.
func credentialDocument(credential string, format Format) (map[string]interface{}, error) {
	switch format {
	case FormatLDP:
		return unmarshalCredential(credential)
	case FormatJWT:
		_, _, vc, err := parseJWTCredential(strings.TrimSpace(credential))

		return vc, err
	}

	return nil, nil
}

func errorResult(err error) VerificationResult {
	if errors.Is(err, lddocument.ErrOfflineDependenciesMissing) {
		return VerificationResult{ErrorCode: CodeOfflineDependenciesMissing, Message: msgOfflineDependenciesMissing}
	}

	code := vcerror.CodeOf(err)
	if code == "" {
		code = CodeGeneric
	}

	return VerificationResult{ErrorCode: code, Message: verificationExceptionText + err.Error()}
}
