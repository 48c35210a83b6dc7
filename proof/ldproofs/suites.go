/*
Copyright SecureKey Technologies Inc. All Rights Reserved.
SPDX-License-Identifier: Apache-2.0
*/

// Package ldproofs describes the Linked Data signature suites an embedded credential proof may use.
// Every suite canonicalizes with URDNA2015 and digests with SHA-256. They differ in the proof type
// name and in the verification methods (and so key families) they accept.
package ldproofs

import (
	"crypto/sha256"

	"github.com/trustbloc/did-go/doc/ld/processor"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/proof"
)

// Proof types.
const (
	Ed25519Signature2018        = "Ed25519Signature2018"
	Ed25519Signature2020        = "Ed25519Signature2020"
	EcdsaSecp256k1Signature2019 = "EcdsaSecp256k1Signature2019"
	RsaSignature2018            = "RsaSignature2018"
	JSONWebSignature2020        = "JsonWebSignature2020"
)

const rdfDataSetAlg = "URDNA2015"

// Suite is a signature suite descriptor.
type Suite struct {
	proofType    string
	processor    *processor.Processor
	supportedVMs []proof.SupportedVerificationMethod
}

func newSuite(proofType string, vms ...proof.SupportedVerificationMethod) *Suite {
	return &Suite{
		proofType:    proofType,
		processor:    processor.NewProcessor(rdfDataSetAlg),
		supportedVMs: vms,
	}
}

// vms lists vmTypes for one key family and its JWS algorithm.
func vms(keyType pubkey.KeyType, alg string, vmTypes ...string) []proof.SupportedVerificationMethod {
	out := make([]proof.SupportedVerificationMethod, 0, len(vmTypes))

	for _, t := range vmTypes {
		out = append(out, proof.SupportedVerificationMethod{VerificationMethodType: t, KeyType: keyType, JWTAlg: alg})
	}

	return out
}

// NewEd25519Signature2018 creates the Ed25519Signature2018 suite. Keys published as
// Ed25519VerificationKey2020 are accepted too.
func NewEd25519Signature2018() *Suite {
	return newSuite(Ed25519Signature2018, vms(pubkey.Ed25519, "EdDSA",
		pubkey.Ed25519VerificationKey2018, pubkey.Ed25519VerificationKey2020, pubkey.JSONWebKey2020)...)
}

// NewEd25519Signature2020 creates the Ed25519Signature2020 suite.
func NewEd25519Signature2020() *Suite {
	return newSuite(Ed25519Signature2020, vms(pubkey.Ed25519, "EdDSA",
		pubkey.Ed25519VerificationKey2020, pubkey.JSONWebKey2020)...)
}

// NewEcdsaSecp256k1Signature2019 creates the EcdsaSecp256k1Signature2019 suite.
func NewEcdsaSecp256k1Signature2019() *Suite {
	return newSuite(EcdsaSecp256k1Signature2019, vms(pubkey.Secp256k1, "ES256K",
		pubkey.EcdsaSecp256k1VerificationKey2019, pubkey.JSONWebKey2020)...)
}

// NewRsaSignature2018 creates the RsaSignature2018 suite.
func NewRsaSignature2018() *Suite {
	return newSuite(RsaSignature2018, vms(pubkey.RSA, "PS256",
		pubkey.RsaVerificationKey2018, pubkey.JSONWebKey2020)...)
}

// NewJSONWebSignature2020 creates the JsonWebSignature2020 suite. The key family of the JWK picks
// the algorithm.
func NewJSONWebSignature2020() *Suite {
	var supported []proof.SupportedVerificationMethod

	supported = append(supported, vms(pubkey.Ed25519, "EdDSA", pubkey.JSONWebKey2020)...)
	supported = append(supported, vms(pubkey.Secp256k1, "ES256K", pubkey.JSONWebKey2020)...)
	supported = append(supported, vms(pubkey.RSA, "PS256", pubkey.JSONWebKey2020)...)

	return newSuite(JSONWebSignature2020, supported...)
}

// All returns every supported suite.
func All() []proof.LDProofDescriptor {
	return []proof.LDProofDescriptor{
		NewEcdsaSecp256k1Signature2019(),
		NewEd25519Signature2018(),
		NewEd25519Signature2020(),
		NewJSONWebSignature2020(),
		NewRsaSignature2018(),
	}
}

// ProofTypes returns the proof type names of every supported suite.
func ProofTypes() []string {
	return []string{
		RsaSignature2018,
		Ed25519Signature2018,
		Ed25519Signature2020,
		EcdsaSecp256k1Signature2019,
		JSONWebSignature2020,
	}
}

// ProofType returns the proof type name.
func (s *Suite) ProofType() string {
	return s.proofType
}

// SupportedVerificationMethods returns the verification method types and key families of the suite.
func (s *Suite) SupportedVerificationMethods() []proof.SupportedVerificationMethod {
	return s.supportedVMs
}

// GetCanonicalDocument returns the URDNA2015 normalized form of doc.
func (s *Suite) GetCanonicalDocument(doc map[string]interface{}, opts ...processor.Opts) ([]byte, error) {
	return s.processor.GetCanonicalDocument(doc, opts...)
}

// GetDigest returns the SHA-256 digest of doc.
func (s *Suite) GetDigest(doc []byte) []byte {
	digest := sha256.Sum256(doc)

	return digest[:]
}
