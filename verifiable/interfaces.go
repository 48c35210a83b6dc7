/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"

	"github.com/trustbloc/vc-offline-verifier/status"
)

// CredentialVerifier validates and verifies credentials of one format.
type CredentialVerifier interface {
	// Validate checks the structure of credential. An empty error code means the credential is valid;
	// ERR_VC_EXPIRED is reported but does not block verification.
	Validate(credential string) ValidationStatus

	// Verify checks the proofs of credential. A signature that does not match returns false and no error.
	Verify(ctx context.Context, credential string) (bool, error)
}

// StatusChecker checks the revocation status of a credential. It returns status.ErrRevoked or
// status.ErrSuspended for credentials that must be rejected.
type StatusChecker interface {
	CheckStatus(ctx context.Context, credential map[string]interface{}) error
}

// VerificationResult is the outcome of one verification attempt.
type VerificationResult = status.VerificationResult
