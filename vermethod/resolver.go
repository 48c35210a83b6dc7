/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package vermethod

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/internal/logging"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

const (
	defaultTimeout  = time.Minute
	maxDocumentSize = 1 << 20
	acceptHeader    = "application/did+json, application/json"
)

// keyDocument is a verification method entry of a DID document or a https key document.
type keyDocument struct {
	ID   string `mapstructure:"id"`
	Type string `mapstructure:"type"`

	KeyType      string `mapstructure:"keyType"`
	KeyTypeSnake string `mapstructure:"key_type"`

	PublicKeyPem       string      `mapstructure:"publicKeyPem"`
	PublicKeyPemSnake  string      `mapstructure:"public_key_pem"`
	PublicKeyJwk       interface{} `mapstructure:"publicKeyJwk"`
	PublicKeyJwkSnake  interface{} `mapstructure:"public_key_jwk"`
	PublicKeyMultibase string      `mapstructure:"publicKeyMultibase"`
	PublicKeyMbSnake   string      `mapstructure:"public_key_multibase"`
	PublicKeyHex       string      `mapstructure:"publicKeyHex"`
	PublicKeyHexSnake  string      `mapstructure:"public_key_hex"`
	PublicKeyBase58    string      `mapstructure:"publicKeyBase58"`
}

type didDocument struct {
	ID                 string                   `mapstructure:"id"`
	VerificationMethod []map[string]interface{} `mapstructure:"verificationMethod"`
}

// Resolver resolves did:key, did:web and https verification methods.
type Resolver struct {
	httpClient HTTPClient
	logger     logrus.FieldLogger
}

// Opt configures Resolver.
type Opt func(r *Resolver)

// WithHTTPClient sets the client used for document fetches.
func WithHTTPClient(client HTTPClient) Opt {
	return func(r *Resolver) {
		r.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Opt {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates Resolver.
func NewResolver(opts ...Opt) *Resolver {
	r := &Resolver{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logging.Entry(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve resolves vmID to a normalized public key. Successful resolution does not imply the key is trusted.
func (r *Resolver) Resolve(ctx context.Context, vmID string) (*pubkey.PublicKey, error) {
	method, err := Classify(vmID)
	if err != nil {
		return nil, err
	}

	switch m := method.(type) {
	case DIDKey:
		return pubkey.FromMultibase(m.Multibase, pubkey.Ed25519VerificationKey2020, vmID)
	case DIDWeb:
		return r.resolveDIDWeb(ctx, m)
	case HTTPS:
		return r.resolveHTTPS(ctx, m)
	}

	return nil, vcerror.New(vcerror.InvalidDid, "unsupported verification method %s", vmID)
}

func (r *Resolver) resolveDIDWeb(ctx context.Context, m DIDWeb) (*pubkey.PublicKey, error) {
	raw, err := r.fetch(ctx, m.DocumentURL(), m.VerificationMethod)
	if err != nil {
		return nil, err
	}

	var doc didDocument
	if err = mapstructure.Decode(raw, &doc); err != nil {
		return nil, vcerror.Wrap(vcerror.VerificationMethodNotFound, err, "decode DID document %s", m.DocumentURL())
	}

	for _, entry := range doc.VerificationMethod {
		entryID, _ := entry["id"].(string)
		if !matchesVM(entryID, doc.ID, m.VerificationMethod) {
			continue
		}

		var vm keyDocument
		if err = mapstructure.Decode(entry, &vm); err != nil {
			return nil, vcerror.Wrap(vcerror.UnsupportedKeyFormat, err,
				"decode verification method %s", m.VerificationMethod)
		}

		return keyFromDocument(&vm, vm.Type, m.VerificationMethod)
	}

	return nil, vcerror.New(vcerror.VerificationMethodNotFound,
		"verification method %s not found in DID document", m.VerificationMethod)
}

func (r *Resolver) resolveHTTPS(ctx context.Context, m HTTPS) (*pubkey.PublicKey, error) {
	raw, err := r.fetch(ctx, m.URL, m.VerificationMethod)
	if err != nil {
		return nil, err
	}

	var doc keyDocument
	if err = mapstructure.Decode(raw, &doc); err != nil {
		return nil, vcerror.Wrap(vcerror.VerificationMethodNotFound, err, "decode key document %s", m.URL)
	}

	keyType := firstNonEmpty(doc.KeyTypeSnake, doc.Type, doc.KeyType)
	if keyType == "" {
		return nil, vcerror.New(vcerror.MissingKeyType, "key document %s has no key type", m.URL)
	}

	return keyFromDocument(&doc, keyType, m.VerificationMethod)
}

func (r *Resolver) fetch(ctx context.Context, url, vmID string) (map[string]interface{}, error) {
	r.logger.WithFields(logrus.Fields{"url": url, "vm": vmID}).Debug("fetch key document")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, vcerror.Wrap(vcerror.VerificationMethodNotFound, err, "create request %s", url)
	}

	req.Header.Set("Accept", acceptHeader)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, vcerror.Wrap(vcerror.VerificationMethodNotFound, err, "fetch %s", url)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			r.logger.WithError(closeErr).Warn("close response body")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, vcerror.New(vcerror.VerificationMethodNotFound, "fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, vcerror.Wrap(vcerror.VerificationMethodNotFound, err, "read %s", url)
	}

	var doc map[string]interface{}
	if err = json.Unmarshal(body, &doc); err != nil {
		return nil, vcerror.Wrap(vcerror.VerificationMethodNotFound, err, "parse %s", url)
	}

	return doc, nil
}

// KeyFromDocument decodes a verification method object and normalizes its key. An empty keyType
// falls back to the type the object declares.
func KeyFromDocument(vm map[string]interface{}, keyType, vmID string) (*pubkey.PublicKey, error) {
	var doc keyDocument
	if err := mapstructure.Decode(vm, &doc); err != nil {
		return nil, vcerror.Wrap(vcerror.UnsupportedKeyFormat, err, "decode verification method %s", vmID)
	}

	if keyType == "" {
		keyType = firstNonEmpty(doc.Type, doc.KeyTypeSnake, doc.KeyType)
	}

	if keyType == "" {
		return nil, vcerror.New(vcerror.MissingKeyType, "verification method %s has no type", vmID)
	}

	return keyFromDocument(&doc, keyType, vmID)
}

// keyFromDocument tries the key encodings in the order PEM, JWK, multibase, hex, base58.
func keyFromDocument(doc *keyDocument, keyType, vmID string) (*pubkey.PublicKey, error) {
	if v := firstNonEmpty(doc.PublicKeyPem, doc.PublicKeyPemSnake); v != "" {
		return pubkey.FromPEM(v, keyType, vmID)
	}

	if v := firstNonNil(doc.PublicKeyJwk, doc.PublicKeyJwkSnake); v != nil {
		return pubkey.FromJWK(v, keyType, vmID)
	}

	if v := firstNonEmpty(doc.PublicKeyMultibase, doc.PublicKeyMbSnake); v != "" {
		return pubkey.FromMultibase(v, keyType, vmID)
	}

	if v := firstNonEmpty(doc.PublicKeyHex, doc.PublicKeyHexSnake); v != "" {
		return pubkey.FromHex(v, keyType, vmID)
	}

	if doc.PublicKeyBase58 != "" {
		return pubkey.FromBase58(doc.PublicKeyBase58, keyType, vmID)
	}

	return nil, vcerror.New(vcerror.UnsupportedKeyFormat, "no supported public key field for %s", vmID)
}

// matchesVM reports whether a document entry id names vmID, directly or as a #fragment relative to docID.
func matchesVM(entryID, docID, vmID string) bool {
	if entryID == vmID {
		return true
	}

	if strings.HasPrefix(entryID, "#") {
		base := docID
		if base == "" {
			base = StripFragment(vmID)
		}

		return fmt.Sprintf("%s%s", base, entryID) == vmID
	}

	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func firstNonNil(values ...interface{}) interface{} {
	for _, v := range values {
		if v != nil {
			return v
		}
	}

	return nil
}
