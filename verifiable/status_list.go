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
)

var errStatusListProof = errors.New("status list proof verification failed")

// StatusListVerifier checks status list credentials with the ldp_vc validator and proof pipeline.
// It implements status.ListVerifier.
type StatusListVerifier struct {
	ldp *LDPCredential
}

// NewStatusListVerifier creates StatusListVerifier.
func NewStatusListVerifier(opts ...Opt) (*StatusListVerifier, error) {
	ldp, err := NewLDPCredential(opts...)
	if err != nil {
		return nil, err
	}

	return &StatusListVerifier{ldp: ldp}, nil
}

// VerifyList fails for status list credentials that do not validate, are expired or carry a proof
// that does not verify.
func (v *StatusListVerifier) VerifyList(ctx context.Context, listVC map[string]interface{}) error {
	raw, err := json.Marshal(listVC)
	if err != nil {
		return fmt.Errorf("marshal status list credential: %w", err)
	}

	if s := v.ldp.Validate(string(raw)); s.ErrorCode != "" {
		return fmt.Errorf("%s: %s", s.ErrorCode, s.Message)
	}

	ok, err := v.ldp.Verify(ctx, string(raw))
	if err != nil {
		return err
	}

	if !ok {
		return errStatusListProof
	}

	return nil
}
