/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package checker

import (
	gocose "github.com/veraison/go-cose"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/pubkey"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/cose"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/ecdsa"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/ed25519"
	"github.com/trustbloc/vc-offline-verifier/crypto-ext/verifiers/rsa"
	"github.com/trustbloc/vc-offline-verifier/vcerror"
)

type signatureVerifier interface {
	// SupportedKeyType checks if verifier supports given key.
	SupportedKeyType(keyType pubkey.KeyType) bool
	// Verify verifies the signature. A signature that does not match returns false and no error.
	Verify(sig, msg []byte, pub *pubkey.PublicKey) (bool, error)
}

type coseVerifier interface {
	Verify(msg *gocose.Sign1Message, key *pubkey.PublicKey) (bool, error)
}

// Dispatch maps JWS algorithm names to signature routines.
type Dispatch struct {
	handlers map[string]signatureVerifier
	cose     coseVerifier
}

// DispatchOpt configures Dispatch.
type DispatchOpt func(d *Dispatch)

// WithAlgorithm registers (or replaces) the routine of alg.
func WithAlgorithm(alg string, verifier signatureVerifier) DispatchOpt {
	return func(d *Dispatch) {
		d.handlers[alg] = verifier
	}
}

// NewDispatch creates the table of PS256, RS256, EdDSA and ES256K routines plus the COSE_Sign1 handler.
func NewDispatch(opts ...DispatchOpt) *Dispatch {
	d := &Dispatch{
		handlers: map[string]signatureVerifier{
			"PS256":  rsa.NewPS256(),
			"RS256":  rsa.NewRS256(),
			"EdDSA":  ed25519.New(),
			"ES256K": ecdsa.NewSecp256k1(),
		},
		cose: cose.New(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Verify checks signature over signingInput with key using the routine registered for alg.
func (d *Dispatch) Verify(alg string, signingInput, signature []byte, key *pubkey.PublicKey) (bool, error) {
	handler, ok := d.handlers[alg]
	if !ok {
		return false, vcerror.New(vcerror.UnsupportedAlgorithm, "unsupported signature algorithm %q", alg)
	}

	if key == nil {
		return false, vcerror.New(vcerror.MalformedInput, "no public key")
	}

	if !handler.SupportedKeyType(key.Type) {
		return false, vcerror.New(vcerror.MalformedInput, "algorithm %s can't be used with %s key", alg, key.Type)
	}

	return handler.Verify(signature, signingInput, key)
}

// VerifyCOSE decodes a COSE_Sign1 message and checks its signature with key.
func (d *Dispatch) VerifyCOSE(sign1 []byte, key *pubkey.PublicKey) (bool, error) {
	msg, err := cose.Parse(sign1)
	if err != nil {
		return false, err
	}

	return d.VerifyCOSEMessage(msg, key)
}

// VerifyCOSEMessage checks the signature of a decoded COSE_Sign1 message.
func (d *Dispatch) VerifyCOSEMessage(msg *gocose.Sign1Message, key *pubkey.PublicKey) (bool, error) {
	if key == nil {
		return false, vcerror.New(vcerror.MalformedInput, "no public key")
	}

	return d.cose.Verify(msg, key)
}

// Algorithms returns the registered algorithm names in sorted order.
func (d *Dispatch) Algorithms() []string {
	algs := maps.Keys(d.handlers)
	slices.Sort(algs)

	return algs
}
