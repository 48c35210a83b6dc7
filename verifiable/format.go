/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/trustbloc/vc-offline-verifier/jwt"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

// Format names how a credential is secured.
type Format string

const (
	// FormatLDP is a JSON-LD credential with embedded linked data proofs.
	FormatLDP Format = "ldp_vc"
	// FormatJWT is a credential secured as a compact JWS.
	FormatJWT Format = "jwt_vc"
	// FormatCOSE is a credential secured as a COSE_Sign1 message with CWT claims.
	FormatCOSE Format = "cwt_vc"
	// FormatMsoMdoc is an ISO/IEC 18013-5 mobile document signed by a document signer certificate.
	FormatMsoMdoc Format = "mso_mdoc"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatLDP, FormatJWT, FormatCOSE, FormatMsoMdoc}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))

	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}

	return "", vcerror.New(vcerror.MalformedInput, "unsupported credential format %q", s)
}

// DetectFormat guesses the format of a credential from its serialization. Any JSON object is
// taken as ldp_vc.
func DetectFormat(credential string) (Format, error) {
	s := strings.TrimSpace(credential)

	if gjson.Valid(s) && gjson.Parse(s).IsObject() {
		return FormatLDP, nil
	}

	if strings.Count(s, ".") == 2 && jwt.IsJWS(s) {
		return FormatJWT, nil
	}

	if _, _, err := parseCOSECredential(s); err == nil {
		return FormatCOSE, nil
	}

	if _, err := parseMdoc(s); err == nil {
		return FormatMsoMdoc, nil
	}

	return "", vcerror.New(vcerror.MalformedInput, "unrecognized credential format")
}

// NewCredentialVerifier creates the CredentialVerifier of format.
func NewCredentialVerifier(format Format, opts ...Opt) (CredentialVerifier, error) {
	switch format {
	case FormatLDP:
		ldp, err := NewLDPCredential(opts...)
		if err != nil {
			return nil, err
		}

		return ldp, nil
	case FormatJWT:
		return NewJWTCredential(opts...), nil
	case FormatCOSE:
		return NewCOSECredential(opts...), nil
	case FormatMsoMdoc:
		return NewMsoMdocCredential(opts...), nil
	}

	return nil, fmt.Errorf("unsupported credential format: %s", format)
}
