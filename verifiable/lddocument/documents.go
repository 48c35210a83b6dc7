/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lddocument

import (
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"strings"
	"sync"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/util/codec"
	"github.com/trustbloc/vc-offline-verifier/vermethod"
)

// Context URLs of the synthetic verification documents.
const (
	DIDContextV1      = "https://www.w3.org/ns/did/v1"
	SecurityContextV2 = "https://w3id.org/security/v2"
	Ed25519Context    = "https://w3id.org/security/suites/ed25519-2020/v1"
	JWS2020Context    = "https://w3id.org/security/suites/jws-2020/v1"
	DataIntegrityV2   = "https://w3id.org/security/data-integrity/v2"
	MultikeyContextV1 = "https://w3id.org/security/multikey/v1"
)

const (
	p256PointSize = 65
	p384PointSize = 97
)

// CachedKey is the key material of a verification method as stored by the caller.
type CachedKey struct {
	Type               string                 `json:"type,omitempty"`
	Controller         string                 `json:"controller,omitempty"`
	PublicKeyMultibase string                 `json:"publicKeyMultibase,omitempty"`
	PublicKeyJwk       map[string]interface{} `json:"publicKeyJwk,omitempty"`
	PublicKeyHex       string                 `json:"publicKeyHex,omitempty"`
	PublicKeyPem       string                 `json:"publicKeyPem,omitempty"`

	// PublicKey is set when the key came from a resolver rather than the store.
	PublicKey *pubkey.PublicKey `json:"-"`
}

// VerificationDocuments are the verification method and controller documents served to a
// single verification attempt.
type VerificationDocuments struct {
	VerificationMethodID string
	ControllerID         string
	VerificationMethod   map[string]interface{}
	Controller           map[string]interface{}
}

// BuildVerificationDocuments derives the verification method document and its controller document
// from cached key material. It returns nil when no usable key encoding can be derived.
func BuildVerificationDocuments(key CachedKey, vmID string) *VerificationDocuments {
	controller := key.Controller
	if controller == "" {
		controller = vermethod.StripFragment(vmID)
	}

	vm := verificationMethodDocument(key)
	if vm == nil {
		return nil
	}

	vm["id"] = vmID
	vm["controller"] = controller

	return &VerificationDocuments{
		VerificationMethodID: vmID,
		ControllerID:         controller,
		VerificationMethod:   vm,
		Controller: map[string]interface{}{
			"@context":        []interface{}{DIDContextV1, SecurityContextV2},
			"id":              controller,
			"authentication":  []interface{}{vmID},
			"assertionMethod": []interface{}{vmID},
		},
	}
}

func verificationMethodDocument(key CachedKey) map[string]interface{} {
	if key.Type == pubkey.JSONWebKey2020 && key.PublicKeyJwk != nil {
		return map[string]interface{}{
			"@context":     []interface{}{DIDContextV1, JWS2020Context},
			"type":         pubkey.JSONWebKey2020,
			"publicKeyJwk": key.PublicKeyJwk,
		}
	}

	if key.Type == pubkey.Multikey {
		if mb := multikeyMultibase(key); mb != "" {
			return multikeyDocument(mb)
		}

		return nil
	}

	if mb := ed25519Multibase(key); mb != "" {
		return map[string]interface{}{
			"@context":           []interface{}{DIDContextV1, SecurityContextV2, Ed25519Context},
			"type":               pubkey.Ed25519VerificationKey2020,
			"publicKeyMultibase": mb,
		}
	}

	switch {
	case key.PublicKeyHex != "":
		return typedDocument(key.Type, pubkey.EcdsaSecp256k1VerificationKey2019, "publicKeyHex", key.PublicKeyHex)
	case key.PublicKeyPem != "":
		return typedDocument(key.Type, pubkey.RsaVerificationKey2018, "publicKeyPem", key.PublicKeyPem)
	case key.PublicKeyJwk != nil && key.Type != "":
		return typedDocument(key.Type, key.Type, "publicKeyJwk", key.PublicKeyJwk)
	}

	if key.PublicKey == nil || key.PublicKey.BytesKey == nil {
		return nil
	}

	switch key.PublicKey.Type {
	case pubkey.Secp256k1:
		return typedDocument(key.PublicKey.VerificationMethodType, pubkey.EcdsaSecp256k1VerificationKey2019,
			"publicKeyHex", hex.EncodeToString(key.PublicKey.BytesKey.Bytes))
	case pubkey.RSA:
		if pemText := rsaPEM(key.PublicKey); pemText != "" {
			return typedDocument(key.PublicKey.VerificationMethodType, pubkey.RsaVerificationKey2018,
				"publicKeyPem", pemText)
		}
	case pubkey.P256, pubkey.P384:
		if mb, err := pubkey.ECMultibase(key.PublicKey.Type, key.PublicKey.BytesKey.Bytes); err == nil {
			return multikeyDocument(mb)
		}
	}

	return nil
}

func multikeyDocument(mb string) map[string]interface{} {
	return map[string]interface{}{
		"@context":           []interface{}{DIDContextV1, DataIntegrityV2, MultikeyContextV1},
		"type":               pubkey.Multikey,
		"publicKeyMultibase": mb,
	}
}

// multikeyMultibase returns the multibase key of Multikey material. Hex keys are uncompressed
// P-256 (65 bytes) or P-384 (97 bytes) points.
func multikeyMultibase(key CachedKey) string {
	switch {
	case key.PublicKeyMultibase != "":
		return base58Multibase(key.PublicKeyMultibase)
	case key.PublicKeyHex != "":
		raw, err := codec.DecodeHex(key.PublicKeyHex)
		if err != nil {
			return ""
		}

		keyType := pubkey.P256
		switch len(raw) {
		case p256PointSize:
		case p384PointSize:
			keyType = pubkey.P384
		default:
			return ""
		}

		mb, err := pubkey.ECMultibase(keyType, raw)
		if err != nil {
			return ""
		}

		return mb
	case key.PublicKey != nil && key.PublicKey.BytesKey != nil:
		if key.PublicKey.Type == pubkey.Ed25519 {
			return pubkey.Ed25519Multibase(key.PublicKey.BytesKey.Bytes)
		}

		mb, err := pubkey.ECMultibase(key.PublicKey.Type, key.PublicKey.BytesKey.Bytes)
		if err != nil {
			return ""
		}

		return mb
	}

	return ""
}

func typedDocument(vmType, fallback, field string, value interface{}) map[string]interface{} {
	if vmType == "" {
		vmType = fallback
	}

	return map[string]interface{}{
		"@context": []interface{}{DIDContextV1, SecurityContextV2},
		"type":     vmType,
		field:      value,
	}
}

// ed25519Multibase returns the z-prefixed multibase key of Ed25519 material, or "".
func ed25519Multibase(key CachedKey) string {
	if key.PublicKeyMultibase != "" {
		return base58Multibase(key.PublicKeyMultibase)
	}

	if key.PublicKeyJwk != nil {
		kty, _ := key.PublicKeyJwk["kty"].(string)
		crv, _ := key.PublicKeyJwk["crv"].(string)
		x, _ := key.PublicKeyJwk["x"].(string)

		if kty == "OKP" && crv == "Ed25519" && x != "" {
			raw, err := codec.DecodeBase64URL(x)
			if err == nil {
				return pubkey.Ed25519Multibase(raw)
			}
		}

		return ""
	}

	if key.PublicKey != nil && key.PublicKey.Type == pubkey.Ed25519 && key.PublicKey.BytesKey != nil {
		return pubkey.Ed25519Multibase(key.PublicKey.BytesKey.Bytes)
	}

	return ""
}

// base58Multibase adds the base58btc prefix to keys stored without it.
func base58Multibase(mb string) string {
	if strings.HasPrefix(mb, "z") {
		return mb
	}

	return "z" + mb
}

func rsaPEM(key *pubkey.PublicKey) string {
	cryptoKey, err := key.CryptoPublicKey()
	if err != nil {
		return ""
	}

	der, err := x509.MarshalPKIXPublicKey(cryptoKey)
	if err != nil {
		return ""
	}

	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// KeyStore returns cached key material of verification methods.
type KeyStore interface {
	Get(vmID string) (CachedKey, bool)
}

// MapKeyStore is a KeyStore backed by a map. It is safe for concurrent use.
type MapKeyStore struct {
	mu   sync.RWMutex
	keys map[string]CachedKey
}

// NewMapKeyStore creates MapKeyStore holding keys.
func NewMapKeyStore(keys map[string]CachedKey) *MapKeyStore {
	s := &MapKeyStore{keys: make(map[string]CachedKey, len(keys))}

	for id, k := range keys {
		s.keys[id] = k
	}

	return s
}

// Get returns the key of vmID.
func (s *MapKeyStore) Get(vmID string) (CachedKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keys[vmID]

	return k, ok
}

// Put stores the key of vmID.
func (s *MapKeyStore) Put(vmID string, key CachedKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[vmID] = key
}
