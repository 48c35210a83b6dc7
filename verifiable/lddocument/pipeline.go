/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lddocument

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/trustbloc/did-go/doc/ld/processor"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/models"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/suite"
	"github.com/trustbloc/vc-offline-verifier/dataintegrity/suite/ecdsa2019"
	"github.com/trustbloc/vc-offline-verifier/internal/logging"
	proofdesc "github.com/trustbloc/vc-offline-verifier/proof"
	"github.com/trustbloc/vc-offline-verifier/proof/checker"
	"github.com/trustbloc/vc-offline-verifier/proof/defaults"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

// nolint: gochecknoglobals
var supportedVerificationMethodTypes = []string{
	pubkey.Ed25519VerificationKey2018,
	pubkey.Ed25519VerificationKey2020,
	pubkey.EcdsaSecp256k1VerificationKey2019,
	pubkey.RsaVerificationKey2018,
	pubkey.JSONWebKey2020,
	pubkey.Multikey,
}

type keyResolver interface {
	Resolve(ctx context.Context, vmID string) (*pubkey.PublicKey, error)
}

// Pipeline verifies the linked data proofs of a document with cached key material.
type Pipeline struct {
	loader   *DocumentLoader
	keys     KeyStore
	resolver keyResolver
	purpose  string
	logger   logrus.FieldLogger
}

// PipelineOpt configures Pipeline.
type PipelineOpt func(p *Pipeline)

// WithKeyStore sets the store of cached verification method keys.
func WithKeyStore(keys KeyStore) PipelineOpt {
	return func(p *Pipeline) {
		p.keys = keys
	}
}

// WithResolver sets the resolver used for keys missing from the key store.
func WithResolver(resolver keyResolver) PipelineOpt {
	return func(p *Pipeline) {
		p.resolver = resolver
	}
}

// WithProofPurpose sets the proof purpose every proof must be made for. It defaults to assertionMethod.
func WithProofPurpose(purpose string) PipelineOpt {
	return func(p *Pipeline) {
		p.purpose = purpose
	}
}

// WithPipelineLogger sets the logger.
func WithPipelineLogger(logger logrus.FieldLogger) PipelineOpt {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates Pipeline.
func NewPipeline(loader *DocumentLoader, opts ...PipelineOpt) *Pipeline {
	p := &Pipeline{
		loader:  loader,
		purpose: proofdesc.ProofPurposeAssertion,
		logger:  logging.Entry(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Verify checks every proof of doc. A signature mismatch returns false and no error. Missing key
// material or contexts return an error wrapping ErrOfflineDependenciesMissing.
func (p *Pipeline) Verify(ctx context.Context, doc map[string]interface{}) (bool, error) {
	if doc["proof"] == nil {
		return false, ErrNoProof
	}

	vmIDs, err := VerificationMethods(doc)
	if err != nil {
		return false, err
	}

	if len(vmIDs) == 0 {
		return false, ErrNoProof
	}

	docs := make([]*VerificationDocuments, 0, len(vmIDs))

	for _, vmID := range lo.Uniq(vmIDs) {
		key, err := p.cachedKey(ctx, vmID)
		if err != nil {
			return false, err
		}

		d := BuildVerificationDocuments(key, vmID)
		if d == nil {
			return false, fmt.Errorf("%w: no usable key material for %s", ErrOfflineDependenciesMissing, vmID)
		}

		docs = append(docs, d)
	}

	attempt := p.loader.ForAttempt(docs...)

	err = p.verifyProofs(doc, attempt,
		NewKeyResolver(attempt, supportedVerificationMethodTypes...).ForPurpose(p.purpose))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, checker.ErrSignatureMismatch), errors.Is(err, suite.ErrSignatureMismatch):
		p.logger.WithField("vm", strings.Join(vmIDs, ",")).Debug("linked data proof signature mismatch")

		return false, nil
	}

	if misses := attempt.Misses(); len(misses) > 0 {
		p.logger.WithField("missing", misses).Debug("documents not available offline")

		return false, fmt.Errorf("%w: %s", ErrOfflineDependenciesMissing, strings.Join(misses, ", "))
	}

	return false, err
}

// verifyProofs checks data integrity proofs with their cryptosuite and every other proof with
// the linked data signature suites.
func (p *Pipeline) verifyProofs(doc map[string]interface{}, attempt *AttemptLoader, resolver *KeyResolver) error {
	diProofs, ldDoc := splitDataIntegrityProofs(doc)

	if len(diProofs) > 0 {
		diVerifier := dataintegrity.NewVerifier(resolver, p.purpose,
			ecdsa2019.NewVerifier(&ecdsa2019.VerifierInitializerOptions{LDDocumentLoader: attempt}))

		for _, raw := range diProofs {
			if err := diVerifier.VerifyProof(doc, raw); err != nil {
				return err
			}
		}
	}

	if ldDoc == nil {
		return nil
	}

	return NewDocumentVerifier(defaults.NewDefaultProofChecker(resolver), p.purpose).
		VerifyObject(ldDoc, processor.WithDocumentLoader(attempt))
}

// splitDataIntegrityProofs returns the data integrity proofs of doc and a copy of doc holding
// only the other proofs, or nil when there are none.
func splitDataIntegrityProofs(doc map[string]interface{}) ([]map[string]interface{}, map[string]interface{}) {
	var items []interface{}

	switch v := doc["proof"].(type) {
	case []interface{}:
		items = v
	default:
		items = []interface{}{v}
	}

	var (
		diProofs []map[string]interface{}
		others   []interface{}
	)

	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok && obj["type"] == models.DataIntegrityProof {
			diProofs = append(diProofs, obj)

			continue
		}

		others = append(others, item)
	}

	if len(others) == 0 {
		return diProofs, nil
	}

	if len(diProofs) == 0 {
		return nil, doc
	}

	ldDoc := make(map[string]interface{}, len(doc))

	for k, v := range doc {
		ldDoc[k] = v
	}

	ldDoc["proof"] = others

	return diProofs, ldDoc
}

func (p *Pipeline) cachedKey(ctx context.Context, vmID string) (CachedKey, error) {
	if p.keys != nil {
		if key, ok := p.keys.Get(vmID); ok {
			return key, nil
		}
	}

	if p.resolver == nil {
		return CachedKey{}, fmt.Errorf("%w: no key for %s", ErrOfflineDependenciesMissing, vmID)
	}

	key, err := p.resolver.Resolve(ctx, vmID)
	if err != nil {
		if vcerror.IsKind(err, vcerror.VerificationMethodNotFound) {
			return CachedKey{}, fmt.Errorf("%w: %s: %w", ErrOfflineDependenciesMissing, vmID, err)
		}

		return CachedKey{}, err
	}

	return cachedKeyOf(key), nil
}

func cachedKeyOf(key *pubkey.PublicKey) CachedKey {
	cached := CachedKey{Type: key.VerificationMethodType, PublicKey: key}

	if key.JWK != nil && key.VerificationMethodType == pubkey.JSONWebKey2020 {
		raw, err := json.Marshal(key.JWK)
		if err == nil {
			_ = json.Unmarshal(raw, &cached.PublicKeyJwk) //nolint:errcheck
		}
	}

	return cached
}
