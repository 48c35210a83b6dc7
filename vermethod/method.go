/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vermethod

import (
	"regexp"
	"strings"

	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

const (
	didKeyPrefix = "did:key:"
	didWebPrefix = "did:web:"
	httpsPrefix  = "https://"
)

var didWebRegex = regexp.MustCompile(`^did:web:([a-zA-Z0-9.-]+)(?::(.+))?$`) //nolint:gochecknoglobals

// Method is a classified verification method id. It is one of DIDKey, DIDWeb or HTTPS.
type Method interface {
	// ID returns the verification method id including its fragment.
	ID() string

	sealed()
}

// DIDKey is a did:key verification method.
type DIDKey struct {
	VerificationMethod string
	Multibase          string
}

// ID returns the verification method id.
func (m DIDKey) ID() string { return m.VerificationMethod }

func (DIDKey) sealed() {}

// DIDWeb is a did:web verification method.
type DIDWeb struct {
	VerificationMethod string
	Domain             string
	// Path holds the colon separated path segments, empty for a bare domain.
	Path string
}

// ID returns the verification method id.
func (m DIDWeb) ID() string { return m.VerificationMethod }

func (DIDWeb) sealed() {}

// DocumentURL returns the location of the DID document.
func (m DIDWeb) DocumentURL() string {
	if m.Path == "" {
		return "https://" + m.Domain + "/.well-known/did.json"
	}

	return "https://" + m.Domain + "/" + strings.ReplaceAll(m.Path, ":", "/") + "/did.json"
}

// HTTPS is a verification method published as a plain key document.
type HTTPS struct {
	VerificationMethod string
	URL                string
}

// ID returns the verification method id.
func (m HTTPS) ID() string { return m.VerificationMethod }

func (HTTPS) sealed() {}

// Classify selects the resolution strategy of vmID. The fragment is ignored for classification.
func Classify(vmID string) (Method, error) {
	base := StripFragment(vmID)

	switch {
	case strings.HasPrefix(base, didKeyPrefix):
		mb := strings.TrimPrefix(base, didKeyPrefix)
		if mb == "" {
			return nil, vcerror.New(vcerror.UnsupportedAlgorithm, "did:key without key material: %s", vmID)
		}

		return DIDKey{VerificationMethod: vmID, Multibase: mb}, nil
	case strings.HasPrefix(base, didWebPrefix):
		m := didWebRegex.FindStringSubmatch(base)
		if m == nil {
			return nil, vcerror.New(vcerror.InvalidDid, "invalid did:web %s", base)
		}

		return DIDWeb{VerificationMethod: vmID, Domain: m[1], Path: m[2]}, nil
	case strings.HasPrefix(base, httpsPrefix):
		return HTTPS{VerificationMethod: vmID, URL: base}, nil
	}

	return nil, vcerror.New(vcerror.InvalidDid, "unsupported verification method scheme: %s", vmID)
}

// StripFragment removes the #fragment of id.
func StripFragment(id string) string {
	if i := strings.Index(id, "#"); i >= 0 {
		return id[:i]
	}

	return id
}
