/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trustbloc/vc-offline-verifier/vcerror"
	"github.com/trustbloc/vc-offline-verifier/verifiable/lddocument"
	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

type dataModel int

const (
	dataModelUnknown dataModel = iota
	dataModelV1
	dataModelV2
)

// nolint: gochecknoglobals
var (
	commonMandatoryFields = []string{fieldContext, fieldType, fieldCredentialSubject, fieldIssuer, fieldProof}
	v1MandatoryFields     = append(append([]string(nil), commonMandatoryFields...), fieldIssuanceDate)

	v1IDMandatoryFields = []string{fieldCredentialStatus, fieldRefreshService, fieldCredentialSchema}
	v2IDMandatoryFields = []string{fieldCredentialSchema}
)

// LDPCredential validates and verifies credentials secured with linked data proofs (ldp_vc).
type LDPCredential struct {
	opts     *options
	pipeline *lddocument.Pipeline
}

// NewLDPCredential creates LDPCredential. Without WithDocumentLoader the embedded core contexts are
// served and everything else is an offline miss.
func NewLDPCredential(opts ...Opt) (*LDPCredential, error) {
	o := newOptions(opts)

	if o.loader == nil {
		loader, err := lddocument.NewDocumentLoader(lddocument.WithLoaderLogger(o.logger))
		if err != nil {
			return nil, fmt.Errorf("create document loader: %w", err)
		}

		o.loader = loader
	}

	return &LDPCredential{
		opts: o,
		pipeline: lddocument.NewPipeline(o.loader,
			lddocument.WithKeyStore(o.keys),
			lddocument.WithResolver(o.resolver),
			lddocument.WithPipelineLogger(o.logger),
		),
	}, nil
}

// Validate checks the credential against the data model named by its first context.
func (c *LDPCredential) Validate(credential string) ValidationStatus {
	if strings.TrimSpace(credential) == "" {
		return ValidationStatus{Message: msgEmptyVC, ErrorCode: CodeEmptyVC}
	}

	vc, err := unmarshalCredential(credential)
	if err != nil {
		return statusOf(err)
	}

	return statusOf(c.validate(vc))
}

func (c *LDPCredential) validate(vc map[string]interface{}) error {
	if _, ok := vc[fieldContext]; !ok {
		return missingField(fieldContext)
	}

	now := c.opts.now()

	switch modelOf(vc) {
	case dataModelV1:
		if err := checkMandatoryFields(vc, v1MandatoryFields); err != nil {
			return err
		}

		if err := checkDateFormats(vc, fieldIssuanceDate, fieldExpirationDate); err != nil {
			return err
		}

		if isFutureDate(vc[fieldIssuanceDate], now) {
			return newValidationError(CodeIssuanceDateIsFutureDate, msgIssuanceDateIsFuture)
		}

		if err := checkFieldsByIDAndType(vc, v1IDMandatoryFields); err != nil {
			return err
		}

		if err := checkCommonFields(vc); err != nil {
			return err
		}

		return checkExpiry(vc, fieldExpirationDate, now)
	case dataModelV2:
		if err := checkMandatoryFields(vc, commonMandatoryFields); err != nil {
			return err
		}

		if err := checkDateFormats(vc, fieldValidFrom, fieldValidUntil); err != nil {
			return err
		}

		if validFrom, ok := vc[fieldValidFrom]; ok && isFutureDate(validFrom, now) {
			return newValidationError(CodeValidFromIsFutureDate, msgValidFromIsFuture)
		}

		if err := checkFieldsByIDAndType(vc, v2IDMandatoryFields); err != nil {
			return err
		}

		if err := checkLanguageFields(vc); err != nil {
			return err
		}

		if err := checkCommonFields(vc); err != nil {
			return err
		}

		return checkExpiry(vc, fieldValidUntil, now)
	default:
		return newValidationError(CodeInvalidContext, msgContextFirst)
	}
}

// Verify checks every linked data proof of the credential. Missing keys or contexts return an error
// wrapping lddocument.ErrOfflineDependenciesMissing.
func (c *LDPCredential) Verify(ctx context.Context, credential string) (bool, error) {
	vc, err := unmarshalCredential(credential)
	if err != nil {
		return false, err
	}

	if err = bindProofIssuer(vc); err != nil {
		return false, err
	}

	return c.pipeline.Verify(ctx, vc)
}

// bindProofIssuer requires DID verification methods of the proofs to belong to the issuer DID.
func bindProofIssuer(vc map[string]interface{}) error {
	issuer := issuerID(vc[fieldIssuer])
	if issuer == "" {
		return nil
	}

	vmIDs, err := lddocument.VerificationMethods(vc)
	if err != nil {
		return nil //nolint:nilerr // the pipeline reports malformed proofs
	}

	for _, vmID := range vmIDs {
		if strings.HasPrefix(vmID, didPrefix) && vermethod.StripFragment(vmID) != issuer {
			return vcerror.New(vcerror.IssuerMismatch, "proof verification method %s is not controlled by issuer %s",
				vmID, issuer)
		}
	}

	return nil
}

func unmarshalCredential(credential string) (map[string]interface{}, error) {
	var vc map[string]interface{}

	if err := json.Unmarshal([]byte(credential), &vc); err != nil {
		return nil, fmt.Errorf("unmarshal credential: %w", err)
	}

	if vc == nil {
		return nil, errors.New("credential is not a JSON object")
	}

	return vc, nil
}

func modelOf(vc map[string]interface{}) dataModel {
	var first interface{}

	switch ctx := vc[fieldContext].(type) {
	case []interface{}:
		if len(ctx) > 0 {
			first = ctx[0]
		}
	default:
		first = ctx
	}

	switch first {
	case credentialsV1Context:
		return dataModelV1
	case credentialsV2Context:
		return dataModelV2
	}

	return dataModelUnknown
}

func checkExpiry(vc map[string]interface{}, field string, now time.Time) error {
	if isExpired(vc[field], now) {
		return newValidationError(CodeVCExpired, msgVCExpired)
	}

	return nil
}
