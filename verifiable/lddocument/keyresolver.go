/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lddocument

import (
	"fmt"

	"github.com/piprate/json-gold/ld"
	"github.com/samber/lo"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	proofdesc "github.com/trustbloc/vc-offline-verifier/proof"
	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

// KeyResolver resolves proof verification methods through a document loader. The controller
// document must authorize the method for the proof purpose, assertionMethod by default.
type KeyResolver struct {
	loader         ld.DocumentLoader
	supportedTypes []string
	purpose        string
}

// NewKeyResolver creates KeyResolver. An empty supportedTypes accepts every verification method type.
func NewKeyResolver(loader ld.DocumentLoader, supportedTypes ...string) *KeyResolver {
	return &KeyResolver{loader: loader, supportedTypes: supportedTypes, purpose: proofdesc.ProofPurposeAssertion}
}

// ForPurpose returns a copy of r that requires the controller to authorize purpose.
func (r *KeyResolver) ForPurpose(purpose string) *KeyResolver {
	c := *r
	c.purpose = purpose

	return &c
}

// ResolveVerificationMethod returns the normalized key of verificationMethod.
func (r *KeyResolver) ResolveVerificationMethod(verificationMethod string, _ string) (*pubkey.PublicKey, error) {
	vmDoc, err := r.loadObject(verificationMethod)
	if err != nil {
		return nil, fmt.Errorf("load verification method: %w", err)
	}

	vmType, _ := vmDoc["type"].(string)
	if len(r.supportedTypes) > 0 && !lo.Contains(r.supportedTypes, vmType) {
		return nil, fmt.Errorf("verification method type %q is not supported", vmType)
	}

	controllerID, _ := vmDoc["controller"].(string)
	if controllerID == "" {
		controllerID = vermethod.StripFragment(verificationMethod)
	}

	controllerDoc, err := r.loadObject(controllerID)
	if err != nil {
		return nil, fmt.Errorf("load controller: %w", err)
	}

	if !authorizes(controllerDoc[r.purpose], verificationMethod) {
		return nil, fmt.Errorf("verification method %s is not authorized for %s by %s",
			verificationMethod, r.purpose, controllerID)
	}

	return vermethod.KeyFromDocument(vmDoc, vmType, verificationMethod)
}

func (r *KeyResolver) loadObject(id string) (map[string]interface{}, error) {
	rd, err := r.loader.LoadDocument(id)
	if err != nil {
		return nil, err
	}

	obj, ok := rd.Document.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("document %s is not an object", id)
	}

	return obj, nil
}

// authorizes reports whether a proof purpose entry lists vmID, either by reference or embedded.
func authorizes(entry interface{}, vmID string) bool {
	items, ok := entry.([]interface{})
	if !ok {
		items = []interface{}{entry}
	}

	return lo.ContainsBy(items, func(item interface{}) bool {
		switch v := item.(type) {
		case string:
			return v == vmID
		case map[string]interface{}:
			return v["id"] == vmID
		}

		return false
	})
}
