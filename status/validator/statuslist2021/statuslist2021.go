/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package statuslist2021 handles credentialStatus entries of type StatusList2021Entry.
package statuslist2021

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// StatusList2021Type is the credentialStatus type of Status List 2021 entries.
	StatusList2021Type = "StatusList2021Entry"

	// StatusListCredential stores the link to the status list VC.
	StatusListCredential = "statusListCredential"
	// StatusListIndex identifies the bit position of the status value of the VC.
	StatusListIndex = "statusListIndex"
	// StatusPurpose is revocation or suspension.
	StatusPurpose = "statusPurpose"
)

// Validator validates StatusList2021Entry objects.
type Validator struct{}

// ValidateStatus checks the entry type and its mandatory fields.
func (v *Validator) ValidateStatus(entry map[string]interface{}) error {
	if entry == nil {
		return errors.New("vc status does not exist")
	}

	if entry["type"] != StatusList2021Type {
		return fmt.Errorf("vc status %v not supported", entry["type"])
	}

	for _, field := range []string{StatusListCredential, StatusListIndex, StatusPurpose} {
		if entry[field] == nil {
			return fmt.Errorf("%s field does not exist in vc status", field)
		}
	}

	return nil
}

// GetStatusVCURI returns the ID (URL) of status VC.
func (v *Validator) GetStatusVCURI(entry map[string]interface{}) (string, error) {
	uri, ok := entry[StatusListCredential].(string)
	if !ok {
		return "", errors.New("failed to cast URI of statusListCredential")
	}

	return uri, nil
}

// GetStatusListIndex returns the bit position of the status value of the VC.
func (v *Validator) GetStatusListIndex(entry map[string]interface{}) (int, error) {
	switch idx := entry[StatusListIndex].(type) {
	case string:
		n, err := strconv.Atoi(idx)
		if err != nil {
			return -1, fmt.Errorf("unable to get statusListIndex: %w", err)
		}

		return n, nil
	case float64:
		return int(idx), nil
	}

	return -1, fmt.Errorf("%s must be a string", StatusListIndex)
}

// GetStatusPurpose returns the purpose of the status list.
func (v *Validator) GetStatusPurpose(entry map[string]interface{}) (string, error) {
	purpose, ok := entry[StatusPurpose].(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", StatusPurpose)
	}

	return purpose, nil
}

// MultiBaseEncoding reports that 2021 lists are plain base64url.
func (v *Validator) MultiBaseEncoding() bool {
	return false
}
