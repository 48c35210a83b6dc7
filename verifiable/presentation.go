/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/trustbloc/vc-offline-verifier/internal/logging"
	proofdesc "github.com/trustbloc/vc-offline-verifier/proof"
	"github.com/trustbloc/vc-offline-verifier/proof/ldproofs"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
	"github.com/trustbloc/vc-offline-verifier/verifiable/lddocument"
)

const fieldVerifiableCredential = "verifiableCredential"

// VPVerificationStatus is the outcome of the presentation proof check.
type VPVerificationStatus string

// Presentation proof outcomes.
const (
	VPValid   VPVerificationStatus = "VALID"
	VPInvalid VPVerificationStatus = "INVALID"
)

// VerificationStatus is the outcome of one credential of a presentation.
type VerificationStatus string

// Credential outcomes.
const (
	StatusSuccess VerificationStatus = "SUCCESS"
	StatusExpired VerificationStatus = "EXPIRED"
	StatusInvalid VerificationStatus = "INVALID"
)

// VCResult is the outcome of one embedded credential.
type VCResult struct {
	VC     string             `json:"vc"`
	Status VerificationStatus `json:"status"`
}

// PresentationVerificationResult holds the presentation proof outcome and the outcome of every
// embedded credential.
type PresentationVerificationResult struct {
	ProofVerificationStatus VPVerificationStatus `json:"proofVerificationStatus"`
	VCResults               []VCResult           `json:"vcResults"`
}

// PresentationVerifier verifies presentations secured with Ed25519Signature2020 proofs and the
// ldp_vc credentials they embed.
type PresentationVerifier struct {
	opts        *options
	pipeline    *lddocument.Pipeline
	credentials *CredentialsVerifier
}

// NewPresentationVerifier creates PresentationVerifier. The presentation proof and the embedded
// credentials share one document loader and resolver.
func NewPresentationVerifier(opts ...Opt) (*PresentationVerifier, error) {
	o := newOptions(opts)

	if o.loader == nil {
		loader, err := lddocument.NewDocumentLoader(lddocument.WithLoaderLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("create document loader: %w", err)
		}

		o.loader = loader
	}

	credentials, err := NewCredentialsVerifier(append(append([]Opt(nil), opts...),
		WithDocumentLoader(o.loader),
		WithResolver(o.resolver),
		WithDispatch(o.dispatch),
		WithLogger(o.logger),
	)...)
	if err != nil {
		return nil, err
	}

	return &PresentationVerifier{
		opts: o,
		pipeline: lddocument.NewPipeline(o.loader,
			lddocument.WithKeyStore(o.keys),
			lddocument.WithResolver(o.resolver),
			lddocument.WithProofPurpose(proofdesc.ProofPurposeAuthentication),
			lddocument.WithPipelineLogger(o.logger),
		),
		credentials: credentials,
	}, nil
}

// Verify checks the presentation proof and every embedded credential. One valid
// Ed25519Signature2020 proof makes the presentation VALID. Missing keys or contexts of the
// presentation proof return an error wrapping lddocument.ErrOfflineDependenciesMissing.
func (v *PresentationVerifier) Verify(ctx context.Context,
	presentation string) (PresentationVerificationResult, error) {
	logger := v.opts.logger.WithField("attempt", uuid.NewString())

	var vp map[string]interface{}

	if err := json.Unmarshal([]byte(presentation), &vp); err != nil || vp == nil {
		return PresentationVerificationResult{}, vcerror.New(vcerror.MalformedInput, "unsupported VP token type")
	}

	proofStatus, err := v.verifyProof(ctx, vp, logger)
	if err != nil {
		return PresentationVerificationResult{}, err
	}

	vcs := embeddedCredentials(vp)
	logger.WithField("count", len(vcs)).Debug("embedded credentials")

	results := make([]VCResult, 0, len(vcs))

	for _, vc := range vcs {
		result := v.credentials.Verify(ctx, vc, FormatLDP)
		results = append(results, VCResult{VC: vc, Status: statusOfResult(result)})
	}

	logger.WithFields(logging.Fields{
		"proof":       proofStatus,
		"credentials": len(results),
	}).Info("presentation verification")

	return PresentationVerificationResult{ProofVerificationStatus: proofStatus, VCResults: results}, nil
}

func (v *PresentationVerifier) verifyProof(ctx context.Context, vp map[string]interface{},
	logger logrus.FieldLogger) (VPVerificationStatus, error) {
	if vp[fieldProof] == nil {
		logger.Debug("presentation has no proof")

		return VPInvalid, nil
	}

	items, ok := vp[fieldProof].([]interface{})
	if !ok {
		items = []interface{}{vp[fieldProof]}
	}

	proofs := lo.Filter(items, func(item interface{}, _ int) bool {
		p, ok := item.(map[string]interface{})

		return ok && p["type"] == ldproofs.Ed25519Signature2020
	})

	if len(proofs) == 0 {
		logger.Debug("presentation has no Ed25519Signature2020 proof")

		return VPInvalid, nil
	}

	for _, p := range proofs {
		single := make(map[string]interface{}, len(vp))

		for k, val := range vp {
			single[k] = val
		}

		single[fieldProof] = p

		verified, err := v.pipeline.Verify(ctx, single)
		if errors.Is(err, lddocument.ErrOfflineDependenciesMissing) {
			return VPInvalid, err
		}

		if err != nil {
			logger.WithError(err).Debug("presentation proof check failed")

			continue
		}

		if verified {
			return VPValid, nil
		}
	}

	return VPInvalid, nil
}

// embeddedCredentials returns the verifiableCredential entries of vp as JSON strings.
func embeddedCredentials(vp map[string]interface{}) []string {
	raw := vp[fieldVerifiableCredential]
	if raw == nil {
		return nil
	}

	items, ok := raw.([]interface{})
	if !ok {
		items = []interface{}{raw}
	}

	vcs := make([]string, 0, len(items))

	for _, item := range items {
		if s, ok := item.(string); ok {
			vcs = append(vcs, s)

			continue
		}

		b, err := json.Marshal(item)
		if err != nil {
			continue
		}

		vcs = append(vcs, string(b))
	}

	return vcs
}

func statusOfResult(result VerificationResult) VerificationStatus {
	switch {
	case result.ErrorCode == CodeVCExpired:
		return StatusExpired
	case result.Verified:
		return StatusSuccess
	}

	return StatusInvalid
}
