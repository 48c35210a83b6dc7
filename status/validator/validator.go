/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package validator holds validation handlers for credentialStatus entries
// of the supported status list formats.
package validator

import (
	"fmt"

	"github.com/trustbloc/vc-offline-verifier/status/validator/bitstringstatus"
	"github.com/trustbloc/vc-offline-verifier/status/validator/statuslist2021"
)

// Entry is a credentialStatus object of a credential.
type Entry = map[string]interface{}

// Validator validates a credentialStatus entry and returns the fields needed for the status lookup.
type Validator interface {
	ValidateStatus(entry Entry) error
	GetStatusVCURI(entry Entry) (string, error)
	GetStatusListIndex(entry Entry) (int, error)
	GetStatusPurpose(entry Entry) (string, error)
	MultiBaseEncoding() bool
}

// GetValidator returns the status entry validator for the given status type.
func GetValidator(statusType string) (Validator, error) { //nolint:ireturn
	switch statusType {
	case statuslist2021.StatusList2021Type:
		return &statuslist2021.Validator{}, nil
	case bitstringstatus.BitstringStatusListType:
		return &bitstringstatus.Validator{}, nil
	default:
		return nil, fmt.Errorf("unsupported VCStatusListType %s", statusType)
	}
}
