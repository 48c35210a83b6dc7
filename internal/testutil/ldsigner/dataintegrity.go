/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package ldsigner

import (
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"
	"time"

	"github.com/piprate/json-gold/ld"
	"github.com/trustbloc/did-go/doc/ld/processor"

	"github.com/trustbloc/vc-offline-verifier/crypto-ext/testutil"
	proofdesc "github.com/trustbloc/vc-offline-verifier/proof"
	"github.com/trustbloc/vc-offline-verifier/util/codec"
)

// DataIntegrityContext holds the options of an ecdsa-rdfc-2019 proof.
type DataIntegrityContext struct {
	Signer             testutil.Signer // required, ES256 or ES384
	VerificationMethod string          // required
	CryptoSuite        string          // optional, ecdsa-rdfc-2019 by default
	Purpose            string          // optional
	Created            *time.Time      // optional
}

// SignDataIntegrity adds an ECDSA data integrity proof to doc.
func SignDataIntegrity(context *DataIntegrityContext, doc map[string]interface{}, loader ld.DocumentLoader) error {
	if context.Signer == nil || context.VerificationMethod == "" {
		return errors.New("signer and verification method are required")
	}

	var h hash.Hash

	switch alg, _ := context.Signer.Headers().Algorithm(); alg {
	case "ES256":
		h = sha256.New()
	case "ES384":
		h = sha512.New384()
	default:
		return errors.New("data integrity signer must be ES256 or ES384")
	}

	created := time.Now().UTC().Truncate(time.Second)
	if context.Created != nil {
		created = *context.Created
	}

	p := map[string]interface{}{
		"type":               "DataIntegrityProof",
		"cryptosuite":        context.CryptoSuite,
		"verificationMethod": context.VerificationMethod,
		"proofPurpose":       context.Purpose,
		"created":            created.Format(time.RFC3339),
	}

	if context.CryptoSuite == "" {
		p["cryptosuite"] = "ecdsa-rdfc-2019"
	}

	if context.Purpose == "" {
		p["proofPurpose"] = proofdesc.ProofPurposeAssertion
	}

	conf := map[string]interface{}{"@context": doc["@context"]}
	for k, v := range p {
		conf[k] = v
	}

	unsecured := map[string]interface{}{}

	for k, v := range doc {
		if k != "proof" {
			unsecured[k] = v
		}
	}

	canonDoc, err := processor.Default().GetCanonicalDocument(unsecured, processor.WithDocumentLoader(loader))
	if err != nil {
		return err
	}

	canonConf, err := processor.Default().GetCanonicalDocument(conf, processor.WithDocumentLoader(loader))
	if err != nil {
		return err
	}

	h.Write(canonConf)
	verifyData := h.Sum(nil)

	h.Reset()
	h.Write(canonDoc)
	verifyData = append(verifyData, h.Sum(nil)...)

	sig, err := context.Signer.Sign(verifyData)
	if err != nil {
		return err
	}

	p["proofValue"] = codec.EncodeMultibase(sig)

	switch existing := doc["proof"].(type) {
	case nil:
		doc["proof"] = p
	case []interface{}:
		doc["proof"] = append(existing, p)
	default:
		doc["proof"] = []interface{}{existing, p}
	}

	return nil
}
