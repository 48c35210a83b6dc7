/*
Copyright Avast Software. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/trustbloc/vc-offline-verifier/status/internal/bitstring"
	"github.com/trustbloc/vc-offline-verifier/status/validator"
)

const (
	// StatusPurposeRevocation is the purpose of the status list entry for revocation.
	StatusPurposeRevocation = "revocation"
	// StatusPurposeSuspension is the purpose of the status list entry for suspension.
	StatusPurposeSuspension = "suspension"
)

var (
	// ErrStatusListUnavailable is returned when the status list credential of an entry is not cached.
	ErrStatusListUnavailable = errors.New("status list credential not available offline")
	// ErrStatusVerification is returned when the status list credential can not be trusted for an entry.
	ErrStatusVerification = errors.New("failed to verify status list credential")
)

// ListVerifier checks the proof and validity of a status list credential before its bits are read.
type ListVerifier interface {
	VerifyList(ctx context.Context, listVC map[string]interface{}) error
}

// ListStore returns cached status list credentials by URL.
type ListStore interface {
	StatusList(uri string) (map[string]interface{}, bool)
}

// MapListStore is a ListStore over a map.
type MapListStore map[string]map[string]interface{}

// StatusList returns the status list credential stored for uri.
func (s MapListStore) StatusList(uri string) (map[string]interface{}, bool) {
	vc, ok := s[uri]

	return vc, ok
}

// Client checks the credentialStatus entries of credentials against cached status lists.
// Without a ListVerifier status list credentials are trusted as stored.
type Client struct {
	ValidatorGetter func(statusType string) (validator.Validator, error)
	Lists           ListStore
	ListVerifier    ListVerifier
}

// ClientOpt configures Client.
type ClientOpt func(c *Client)

// WithListVerifier sets the verifier of status list credentials.
func WithListVerifier(v ListVerifier) ClientOpt {
	return func(c *Client) {
		c.ListVerifier = v
	}
}

// NewClient creates Client with the built-in entry validators.
func NewClient(lists ListStore, opts ...ClientOpt) *Client {
	c := &Client{ValidatorGetter: validator.GetValidator, Lists: lists}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CheckStatus returns ErrRevoked or ErrSuspended when a status bit of credential is set.
// A credential without credentialStatus passes.
func (c *Client) CheckStatus(ctx context.Context, credential map[string]interface{}) error {
	for _, entry := range statusEntries(credential["credentialStatus"]) {
		if err := c.verifyStatus(ctx, credential, entry); err != nil {
			return err
		}
	}

	return nil
}

func (c *Client) verifyStatus(ctx context.Context, credential, entry map[string]interface{}) error { //nolint:gocyclo
	statusType, _ := entry["type"].(string)

	v, err := c.ValidatorGetter(statusType)
	if err != nil {
		return err
	}

	if err = v.ValidateStatus(entry); err != nil {
		return err
	}

	statusListIndex, err := v.GetStatusListIndex(entry)
	if err != nil {
		return err
	}

	statusVCURL, err := v.GetStatusVCURI(entry)
	if err != nil {
		return err
	}

	statusListVC, ok := c.Lists.StatusList(statusVCURL)
	if !ok {
		return fmt.Errorf("%w: %s", ErrStatusListUnavailable, statusVCURL)
	}

	listIssuer, credIssuer := issuerID(statusListVC["issuer"]), issuerID(credential["issuer"])
	if listIssuer == "" || listIssuer != credIssuer {
		return errors.New("issuer of the credential does not match status list vc issuer")
	}

	if c.ListVerifier != nil {
		if err = c.ListVerifier.VerifyList(ctx, statusListVC); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrStatusVerification, statusVCURL, err)
		}
	}

	subject := firstSubject(statusListVC["credentialSubject"])

	if err = checkPurposeOverlap(entry["statusPurpose"], subject["statusPurpose"]); err != nil {
		return err
	}

	encodedList, ok := subject["encodedList"].(string)
	if !ok {
		return errors.New("encodedList must be a string")
	}

	bitString, err := bitstring.Decode(encodedList, bitstring.WithMultiBaseEncoding(v.MultiBaseEncoding()))
	if err != nil {
		return fmt.Errorf("failed to decode bits: %w", err)
	}

	bitSet, err := bitstring.BitAt(bitString, statusListIndex)
	if err != nil {
		return err
	}

	if !bitSet {
		return nil
	}

	purpose, err := v.GetStatusPurpose(entry)
	if err != nil {
		return err
	}

	switch purpose {
	case StatusPurposeRevocation:
		return ErrRevoked
	case StatusPurposeSuspension:
		return ErrSuspended
	default:
		return fmt.Errorf("unsupported status purpose: %s", purpose)
	}
}

// checkPurposeOverlap requires the entry and the list to share a status purpose when both declare one.
func checkPurposeOverlap(entryPurpose, listPurpose interface{}) error {
	entryPurposes, listPurposes := purposes(entryPurpose), purposes(listPurpose)

	if len(entryPurposes) == 0 || len(listPurposes) == 0 || len(lo.Intersect(entryPurposes, listPurposes)) > 0 {
		return nil
	}

	return fmt.Errorf("%w: status purpose mismatch: entry=%s list=%s", ErrStatusVerification,
		strings.Join(entryPurposes, ","), strings.Join(listPurposes, ","))
}

// purposes normalizes a statusPurpose value of one or more strings.
func purposes(v interface{}) []string {
	switch p := v.(type) {
	case string:
		return []string{p}
	case []interface{}:
		return lo.FilterMap(p, func(item interface{}, _ int) (string, bool) {
			s, ok := item.(string)

			return s, ok
		})
	}

	return nil
}

func statusEntries(v interface{}) []map[string]interface{} {
	switch s := v.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{s}
	case []interface{}:
		entries := make([]map[string]interface{}, 0, len(s))

		for _, item := range s {
			if m, ok := item.(map[string]interface{}); ok {
				entries = append(entries, m)
			}
		}

		return entries
	}

	return nil
}

func issuerID(v interface{}) string {
	switch issuer := v.(type) {
	case string:
		return issuer
	case map[string]interface{}:
		id, _ := issuer["id"].(string)

		return id
	}

	return ""
}

func firstSubject(v interface{}) map[string]interface{} {
	if subjects := statusEntries(v); len(subjects) > 0 {
		return subjects[0]
	}

	return nil
}
