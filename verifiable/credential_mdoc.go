/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"errors"
	"fmt"
	"hash"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	gocose "github.com/veraison/go-cose"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/cose"
	"github.com/trustbloc/vc-offline-verifier/util/codec"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

const (
	mdocDocuments      = "documents"
	mdocNameSpaces     = "nameSpaces"
	mdocIssuingCountry = "issuing_country"

	// encodedCBORTag marks a byte string holding embedded CBOR (RFC 8949 section 3.4.5.1).
	encodedCBORTag = 24

	msgInvalidDateMSO       = "invalid validUntil / validFrom in the MSO of the credential"
	msgInvalidValidFromMSO  = "invalid validFrom in the MSO of the credential"
	msgInvalidValidUntilMSO = "invalid validUntil in the MSO of the credential"
)

type mdocDocument struct {
	DocType      string           `cbor:"docType"`
	IssuerSigned mdocIssuerSigned `cbor:"issuerSigned"`
}

type mdocIssuerSigned struct {
	NameSpaces map[string][]cbor.RawMessage `cbor:"nameSpaces"`
	IssuerAuth cbor.RawMessage              `cbor:"issuerAuth"`
}

type mdocIssuerSignedItem struct {
	DigestID          uint64      `cbor:"digestID"`
	ElementIdentifier string      `cbor:"elementIdentifier"`
	ElementValue      interface{} `cbor:"elementValue"`
}

// mobileSecurityObject is the payload of issuerAuth (ISO/IEC 18013-5 section 9.1.2.4).
type mobileSecurityObject struct {
	DigestAlgorithm string          `cbor:"digestAlgorithm"`
	ValueDigests    cbor.RawMessage `cbor:"valueDigests"`
	DocType         string          `cbor:"docType"`
	ValidityInfo    cbor.RawMessage `cbor:"validityInfo"`
}

type mdocValidityInfo struct {
	ValidFrom  time.Time `cbor:"validFrom"`
	ValidUntil time.Time `cbor:"validUntil"`
}

type signedItem struct {
	raw  []byte
	item mdocIssuerSignedItem
}

type mdoc struct {
	doc  *mdocDocument
	auth *gocose.Sign1Message
	mso  *mobileSecurityObject
}

// MsoMdocCredential validates and verifies ISO mobile documents (mso_mdoc). The credential is
// the base64url CBOR of a document or of a device response holding documents. The issuer is the
// document signer certificate carried in the x5chain header of issuerAuth.
type MsoMdocCredential struct {
	opts *options
}

// NewMsoMdocCredential creates MsoMdocCredential.
func NewMsoMdocCredential(opts ...Opt) *MsoMdocCredential {
	return &MsoMdocCredential{opts: newOptions(opts)}
}

// Validate checks the validity window of the mobile security object.
func (c *MsoMdocCredential) Validate(credential string) ValidationStatus {
	if strings.TrimSpace(credential) == "" {
		return ValidationStatus{Message: msgEmptyVC, ErrorCode: CodeEmptyVC}
	}

	return statusOf(c.validate(credential))
}

func (c *MsoMdocCredential) validate(credential string) error {
	m, err := parseMdoc(credential)
	if err != nil {
		return err
	}

	vi := &mdocValidityInfo{}

	if len(m.mso.ValidityInfo) == 0 || cbor.Unmarshal(m.mso.ValidityInfo, vi) != nil ||
		vi.ValidFrom.IsZero() || vi.ValidUntil.IsZero() {
		return newValidationError(CodeInvalidDateMSO, msgInvalidDateMSO)
	}

	upper := c.opts.now().Add(dateTolerance)

	if vi.ValidFrom.After(upper) {
		return newValidationError(CodeInvalidValidFromMSO, msgInvalidValidFromMSO)
	}

	if !vi.ValidUntil.After(upper) {
		return newValidationError(CodeInvalidValidUntilMSO, msgInvalidValidUntilMSO)
	}

	if !vi.ValidUntil.After(vi.ValidFrom) {
		return newValidationError(CodeInvalidDateMSO, msgInvalidDateMSO)
	}

	return nil
}

// Verify checks the document signer certificate, the issuing country, the issuerAuth signature,
// the digests of the disclosed elements and the docType. Tampered elements return false.
func (c *MsoMdocCredential) Verify(_ context.Context, credential string) (bool, error) {
	m, err := parseMdoc(credential)
	if err != nil {
		return false, err
	}

	chain, err := cose.CertificateChain(m.auth)
	if err != nil {
		return false, err
	}

	if err = checkChain(chain, c.opts.now()); err != nil {
		return false, err
	}

	items, err := issuerSignedItems(m.doc.IssuerSigned.NameSpaces)
	if err != nil {
		return false, err
	}

	if err = checkIssuingCountry(chain[0], items); err != nil {
		return false, err
	}

	key, err := pubkey.FromSPKI(chain[0].RawSubjectPublicKeyInfo, "", "")
	if err != nil {
		return false, err
	}

	ok, err := c.opts.dispatch.VerifyCOSEMessage(m.auth, key)
	if err != nil {
		return false, err
	}

	if !ok {
		c.opts.logger.WithField("subject", chain[0].Subject.String()).Debug("mdoc issuerAuth signature mismatch")

		return false, nil
	}

	ok, err = checkValueDigests(m.mso, items)
	if err != nil || !ok {
		c.opts.logger.WithError(err).Debug("mdoc value digest mismatch")

		return false, err
	}

	if m.doc.DocType == "" {
		return false, vcerror.New(vcerror.InvalidProperty, "property docType not found in the credential")
	}

	if m.doc.DocType != m.mso.DocType {
		return false, vcerror.New(vcerror.InvalidProperty, "docType %q does not match the MSO docType %q",
			m.doc.DocType, m.mso.DocType)
	}

	return true, nil
}

func parseMdoc(credential string) (*mdoc, error) {
	raw, err := codec.DecodeBase64URL(strings.TrimSpace(credential))
	if err != nil {
		return nil, fmt.Errorf("decode mdoc: %w", err)
	}

	doc, err := mdocDocumentOf(raw)
	if err != nil {
		return nil, err
	}

	if len(doc.IssuerSigned.IssuerAuth) == 0 {
		return nil, errors.New("mdoc: issuerSigned.issuerAuth is missing")
	}

	auth, err := cose.Parse(doc.IssuerSigned.IssuerAuth)
	if err != nil {
		return nil, err
	}

	mso := &mobileSecurityObject{}

	if err = cbor.Unmarshal(embeddedCBOR(auth.Payload), mso); err != nil {
		return nil, fmt.Errorf("mdoc: decode mobile security object: %w", err)
	}

	return &mdoc{doc: doc, auth: auth, mso: mso}, nil
}

// mdocDocumentOf reads a document, or the first document of a device response.
func mdocDocumentOf(raw []byte) (*mdocDocument, error) {
	var root map[string]cbor.RawMessage

	if err := cbor.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("mdoc: decode CBOR: %w", err)
	}

	if docs, ok := root[mdocDocuments]; ok {
		var documents []mdocDocument

		if err := cbor.Unmarshal(docs, &documents); err != nil {
			return nil, fmt.Errorf("mdoc: decode documents: %w", err)
		}

		if len(documents) == 0 {
			return nil, errors.New("mdoc: no documents")
		}

		return &documents[0], nil
	}

	doc := &mdocDocument{}

	if err := cbor.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("mdoc: decode document: %w", err)
	}

	return doc, nil
}

// embeddedCBOR unwraps #6.24(bstr) and plain byte strings. Anything else is returned as is.
func embeddedCBOR(data []byte) []byte {
	var tag cbor.RawTag

	if cbor.Unmarshal(data, &tag) == nil && tag.Number == encodedCBORTag {
		var content []byte
		if cbor.Unmarshal(tag.Content, &content) == nil {
			return content
		}
	}

	var content []byte
	if cbor.Unmarshal(data, &content) == nil {
		return content
	}

	return data
}

func issuerSignedItems(nameSpaces map[string][]cbor.RawMessage) (map[string][]signedItem, error) {
	out := make(map[string][]signedItem, len(nameSpaces))

	for ns, raws := range nameSpaces {
		for _, raw := range raws {
			si := signedItem{raw: raw}

			if err := cbor.Unmarshal(embeddedCBOR(raw), &si.item); err != nil {
				return nil, fmt.Errorf("mdoc: decode item of %s: %w", ns, err)
			}

			out[ns] = append(out[ns], si)
		}
	}

	return out, nil
}

// checkChain requires each certificate to be signed by the next one and the leaf to be valid at now.
func checkChain(chain []*x509.Certificate, now time.Time) error {
	leaf := chain[0]

	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return vcerror.New(vcerror.InvalidCertificate, "document signer certificate is not valid at %s",
			now.UTC().Format(time.RFC3339))
	}

	for i := 0; i+1 < len(chain); i++ {
		if err := chain[i].CheckSignatureFrom(chain[i+1]); err != nil {
			return vcerror.Wrap(vcerror.InvalidCertificate, err, "x5chain certificate %d is not signed by %d", i, i+1)
		}
	}

	return nil
}

func checkIssuingCountry(cert *x509.Certificate, items map[string][]signedItem) error {
	if len(cert.Subject.Country) == 0 {
		return vcerror.New(vcerror.InvalidCertificate, "document signer certificate has no country name")
	}

	country := cert.Subject.Country[0]

	var issuing string

	for _, nsItems := range items {
		for _, si := range nsItems {
			if si.item.ElementIdentifier == mdocIssuingCountry {
				issuing, _ = si.item.ElementValue.(string) //nolint:errcheck
			}
		}
	}

	if issuing != country {
		return vcerror.New(vcerror.IssuerMismatch, "issuing_country %q does not match document signer country %q",
			issuing, country)
	}

	return nil
}

// checkValueDigests reports whether every disclosed element has its digest in the MSO.
func checkValueDigests(mso *mobileSecurityObject, items map[string][]signedItem) (bool, error) {
	newHash, err := digestAlgorithm(mso.DigestAlgorithm)
	if err != nil {
		return false, err
	}

	digests, err := valueDigests(mso.ValueDigests)
	if err != nil {
		return false, err
	}

	for ns, nsItems := range items {
		for _, si := range nsItems {
			expected, ok := digests[ns][si.item.DigestID]
			if !ok {
				return false, nil
			}

			h := newHash()
			h.Write(si.raw)

			if !bytes.Equal(expected, h.Sum(nil)) {
				return false, nil
			}
		}
	}

	return true, nil
}

func digestAlgorithm(name string) (func() hash.Hash, error) {
	switch strings.ToUpper(name) {
	case "SHA-256":
		return sha256.New, nil
	case "SHA-384":
		return sha512.New384, nil
	case "SHA-512":
		return sha512.New, nil
	}

	return nil, vcerror.New(vcerror.UnsupportedAlgorithm, "mdoc digest algorithm %q", name)
}

// valueDigests reads the digests by namespace and digest id, with or without the nameSpaces wrapper.
func valueDigests(raw cbor.RawMessage) (map[string]map[uint64][]byte, error) {
	var wrapper map[string]cbor.RawMessage

	if err := cbor.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("mdoc: decode valueDigests: %w", err)
	}

	if inner, ok := wrapper[mdocNameSpaces]; ok {
		raw = inner
	}

	var digests map[string]map[uint64][]byte

	if err := cbor.Unmarshal(raw, &digests); err != nil {
		return nil, fmt.Errorf("mdoc: decode valueDigests: %w", err)
	}

	return digests, nil
}
