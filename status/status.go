/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package status derives the verification log status of an attempt and checks
// credential status entries against cached status lists.
package status

import (
	"errors"
	"strings"
)

// VerificationLogStatus is the status recorded for a verification attempt.
type VerificationLogStatus string

// Verification log statuses.
const (
	Success   VerificationLogStatus = "SUCCESS"
	Failed    VerificationLogStatus = "FAILED"
	Expired   VerificationLogStatus = "EXPIRED"
	Revoked   VerificationLogStatus = "REVOKED"
	Suspended VerificationLogStatus = "SUSPENDED"
)

// Error codes of credential status outcomes.
const (
	CodeExpired   = "ERR_VC_EXPIRED"
	CodeRevoked   = "ERR_VC_REVOKED"
	CodeSuspended = "ERR_VC_SUSPENDED"

	CodeStatusVerification = "ERR_STATUS_VERIFICATION"
)

var (
	// ErrRevoked is returned by status checkers when the credential is revoked.
	ErrRevoked = errors.New("revoked")
	// ErrSuspended is returned by status checkers when the credential is suspended.
	ErrSuspended = errors.New("suspended")
)

// VerificationResult is the outcome of one verification attempt.
type VerificationResult struct {
	Verified  bool   `json:"verified"`
	ErrorCode string `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

// nolint: gochecknoglobals
var codeStatuses = map[string]VerificationLogStatus{
	"VC_EXPIRED":   Expired,
	CodeExpired:    Expired,
	"EXPIRED":      Expired,
	"VC_REVOKED":   Revoked,
	CodeRevoked:    Revoked,
	"REVOKED":      Revoked,
	"VC_SUSPENDED": Suspended,
	CodeSuspended:  Suspended,
	"SUSPENDED":    Suspended,
}

// DeriveVerificationLogStatus maps a result to its log status. A verified result is always SUCCESS.
func DeriveVerificationLogStatus(result VerificationResult) VerificationLogStatus {
	if result.Verified {
		return Success
	}

	if s, ok := codeStatuses[strings.ToUpper(strings.TrimSpace(result.ErrorCode))]; ok {
		return s
	}

	return Failed
}

// DeriveVerificationErrorMessage returns the trimmed message of a result that is not SUCCESS.
func DeriveVerificationErrorMessage(result VerificationResult) (string, bool) {
	if DeriveVerificationLogStatus(result) == Success {
		return "", false
	}

	msg := strings.TrimSpace(result.Message)
	if msg == "" {
		return "", false
	}

	return msg, true
}
