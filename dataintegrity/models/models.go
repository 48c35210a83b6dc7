/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package models holds the data integrity proof model shared by the verifier and its suites.
package models

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

const (
	// DataIntegrityProof is the proof type of data integrity proofs.
	DataIntegrityProof = "DataIntegrityProof"
	// DateTimeFormat is the layout of the created proof member.
	DateTimeFormat = "2006-01-02T15:04:05Z07:00"

	fieldProofValue = "proofValue"
)

// Proof is a data integrity proof as embedded in a secured document.
type Proof struct {
	ID                 string `mapstructure:"id"`
	Type               string `mapstructure:"type"`
	CryptoSuite        string `mapstructure:"cryptosuite"`
	ProofPurpose       string `mapstructure:"proofPurpose"`
	VerificationMethod string `mapstructure:"verificationMethod"`
	Created            string `mapstructure:"created"`
	Expires            string `mapstructure:"expires"`
	Domain             string `mapstructure:"domain"`
	Challenge          string `mapstructure:"challenge"`
	ProofValue         string `mapstructure:"proofValue"`

	// Options holds every member of the proof except proofValue.
	Options map[string]interface{} `mapstructure:"-"`
}

// ParseProof reads a data integrity proof object.
func ParseProof(raw map[string]interface{}) (*Proof, error) {
	p := &Proof{}

	if err := mapstructure.Decode(raw, p); err != nil {
		return nil, fmt.Errorf("decode data integrity proof: %w", err)
	}

	if p.Type != DataIntegrityProof {
		return nil, fmt.Errorf("proof type %q is not %s", p.Type, DataIntegrityProof)
	}

	if p.CryptoSuite == "" || p.VerificationMethod == "" || p.ProofValue == "" {
		return nil, fmt.Errorf("data integrity proof needs cryptosuite, verificationMethod and proofValue")
	}

	p.Options = make(map[string]interface{}, len(raw))

	for k, v := range raw {
		if k != fieldProofValue {
			p.Options[k] = v
		}
	}

	return p, nil
}
