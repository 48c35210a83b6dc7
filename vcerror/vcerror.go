/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package vcerror defines the typed error returned by every stage of credential verification.
package vcerror

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Kind identifies a class of verification failure.
type Kind string

const (
	// MalformedEnvelope is returned when a compact envelope does not have three segments.
	MalformedEnvelope Kind = "MalformedEnvelope"
	// MalformedHeader is returned when an envelope header is not a base64url JSON object.
	MalformedHeader Kind = "MalformedHeader"
	// UnsupportedAlgorithm is returned for algorithms outside the allow-list.
	UnsupportedAlgorithm Kind = "UnsupportedAlgorithm"
	// InvalidDid is returned when a DID does not match its method syntax.
	InvalidDid Kind = "InvalidDid"
	// VerificationMethodNotFound is returned when a key can't be located, including fetch failures.
	VerificationMethodNotFound Kind = "VerificationMethodNotFound"
	// UnsupportedKeyFormat is returned when no recognized key encoding is present.
	UnsupportedKeyFormat Kind = "UnsupportedKeyFormat"
	// MissingKeyType is returned when a key document carries no key type hint.
	MissingKeyType Kind = "MissingKeyType"
	// DecodeError is returned by the binary codecs.
	DecodeError Kind = "DecodeError"
	// MalformedInput is returned by signature routines for bad key or signature encodings.
	MalformedInput Kind = "MalformedInput"
	// IssuerMismatch is returned when the signing key is not controlled by the credential issuer.
	IssuerMismatch Kind = "IssuerMismatch"
	// InvalidCertificate is returned when an X.509 certificate chain is missing or does not chain.
	InvalidCertificate Kind = "InvalidCertificate"
	// InvalidProperty is returned when a signed property is missing or contradicts the signed data.
	InvalidProperty Kind = "InvalidProperty"
)

// Error is a verification error with a stable machine readable code.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind that wraps err.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Code returns the machine readable code, e.g. ERR_MALFORMED_ENVELOPE.
func (e *Error) Code() string {
	return "ERR_" + upperSnake(string(e.Kind))
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.Kind == e.Kind && t.Message == ""
}

// KindOf returns the kind of the first *Error in the chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CodeOf returns the code of the first *Error in the chain, or "" when there is none.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code()
	}

	return ""
}

func upperSnake(s string) string {
	var b strings.Builder

	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('_')
		}

		b.WriteRune(unicode.ToUpper(r))
	}

	return b.String()
}
