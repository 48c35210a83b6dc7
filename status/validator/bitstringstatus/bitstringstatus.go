/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package bitstringstatus handles validation and parsing of credentialStatus entries
// of type BitstringStatusListEntry, defined by https://www.w3.org/TR/vc-bitstring-status-list/
package bitstringstatus

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// BitstringStatusListType is the credentialStatus type of Bitstring Status List entries.
	BitstringStatusListType = "BitstringStatusListEntry"

	// StatusListCredential stores the link to the status list VC.
	StatusListCredential = "statusListCredential"
	// StatusListIndex identifies the bit position of the status value of the VC.
	StatusListIndex = "statusListIndex"
	// StatusPurpose is the purpose of the entry, e.g. revocation or suspension.
	StatusPurpose = "statusPurpose"
	// StatusSize indicates the size of the status entry in bits.
	StatusSize = "statusSize"
	// StatusMessage represents custom descriptive messages about the status of the verifiable credential.
	StatusMessage = "statusMessage"
)

// Validator validates BitstringStatusListEntry objects.
type Validator struct{}

// ValidateStatus checks the entry type and its mandatory fields.
func (v *Validator) ValidateStatus(entry map[string]interface{}) error {
	if entry == nil {
		return errors.New("vc status does not exist")
	}

	if entry["type"] != BitstringStatusListType {
		return fmt.Errorf("vc status %v not supported", entry["type"])
	}

	for _, field := range []string{StatusListCredential, StatusListIndex, StatusPurpose} {
		if entry[field] == nil {
			return fmt.Errorf("%s field does not exist in vc status", field)
		}
	}

	return checkStatusSize(entry)
}

func checkStatusSize(entry map[string]interface{}) error {
	statusSizeRaw := entry[StatusSize]
	if statusSizeRaw == nil {
		return nil
	}

	statusSizeF, ok := statusSizeRaw.(float64)
	if !ok {
		return errors.New("statusSize must be an integer")
	}

	statusSize := int(statusSizeF)

	if statusSize <= 0 {
		return fmt.Errorf("statusSize must be greater than 0, but got %d", statusSize)
	}

	if statusSize == 1 {
		return nil
	}

	possibleStatusSizes := 1<<statusSize - 1

	statusMessages, ok := entry[StatusMessage].([]interface{})
	if !ok {
		return fmt.Errorf("%s must be an array", StatusMessage)
	}

	if len(statusMessages) != possibleStatusSizes {
		return fmt.Errorf("the length of %s must be equal to %d", StatusMessage, possibleStatusSizes)
	}

	return nil
}

// GetStatusVCURI returns the ID (URL) of status VC.
func (v *Validator) GetStatusVCURI(entry map[string]interface{}) (string, error) {
	statusListVC, ok := entry[StatusListCredential].(string)
	if !ok {
		return "", errors.New("failed to cast URI of statusListCredential")
	}

	return statusListVC, nil
}

// GetStatusListIndex returns the bit position of the status value of the VC.
func (v *Validator) GetStatusListIndex(entry map[string]interface{}) (int, error) {
	statusListIndex, ok := entry[StatusListIndex].(string)
	if !ok {
		return -1, fmt.Errorf("%s must be a string", StatusListIndex)
	}

	idx, err := strconv.Atoi(statusListIndex)
	if err != nil {
		return -1, fmt.Errorf("unable to get statusListIndex: %w", err)
	}

	return idx, nil
}

// GetStatusPurpose returns the purpose of the status list. For example, "revocation", "suspension".
func (v *Validator) GetStatusPurpose(entry map[string]interface{}) (string, error) {
	statusPurpose, ok := entry[StatusPurpose].(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", StatusPurpose)
	}

	return statusPurpose, nil
}

// MultiBaseEncoding reports that bitstring lists are multibase encoded.
func (v *Validator) MultiBaseEncoding() bool {
	return true
}
