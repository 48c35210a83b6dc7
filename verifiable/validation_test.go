/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable_test

import (
	_ "embed"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/sjson"

	"github.com/trustbloc/vc-offline-verifier/verifiable"
)

//go:embed testdata/credential_v1.json
var credentialV1 string

//go:embed testdata/credential_v2.json
var credentialV2 string

const noneAlgJWS = "eyJhbGciOiJub25lIn0..c2lnbmF0dXJl"

// nolint: gochecknoglobals
var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return testNow
}

func set(t *testing.T, credential, path string, value interface{}) string {
	t.Helper()

	out, err := sjson.Set(credential, path, value)
	require.NoError(t, err)

	return out
}

func setRaw(t *testing.T, credential, path, raw string) string {
	t.Helper()

	out, err := sjson.SetRaw(credential, path, raw)
	require.NoError(t, err)

	return out
}

func del(t *testing.T, credential, path string) string {
	t.Helper()

	out, err := sjson.Delete(credential, path)
	require.NoError(t, err)

	return out
}

// withContext replaces @context, which sjson paths can't address.
func withContext(t *testing.T, credential string, context interface{}) string {
	t.Helper()

	var vc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(credential), &vc))

	if context == nil {
		delete(vc, "@context")
	} else {
		vc["@context"] = context
	}

	out, err := json.Marshal(vc)
	require.NoError(t, err)

	return string(out)
}

func newValidator(t *testing.T) *verifiable.LDPCredential {
	t.Helper()

	ldp, err := verifiable.NewLDPCredential(verifiable.WithClock(fixedClock))
	require.NoError(t, err)

	return ldp
}

type validationCase struct {
	name       string
	credential string
	code       string
	message    string
}

func runValidationCases(t *testing.T, cases []validationCase) {
	t.Helper()

	ldp := newValidator(t)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := ldp.Validate(tc.credential)
			require.Equal(t, tc.code, status.ErrorCode)

			if tc.message != "" {
				require.Equal(t, tc.message, status.Message)
			}
		})
	}
}

func TestLDPCredential_Validate_Common(t *testing.T) {
	runValidationCases(t, []validationCase{
		{
			name:       "valid",
			credential: credentialV1,
		},
		{
			name:       "empty",
			credential: "  ",
			code:       "ERR_EMPTY_VC",
			message:    "Validation Error: Input VC JSON string is null or empty.",
		},
		{
			name:       "not json",
			credential: "{not json",
			code:       "ERR_GENERIC",
		},
		{
			name:       "missing context",
			credential: withContext(t, credentialV1, nil),
			code:       "ERR_MISSING_@CONTEXT",
			message:    "Validation Error: Missing required field: @context",
		},
		{
			name:       "unknown first context",
			credential: withContext(t, credentialV1, []interface{}{"https://example.com/v1", "https://www.w3.org/2018/credentials/v1"}),
			code:       "ERR_INVALID_@CONTEXT",
			message: "Validation Error: https://www.w3.org/2018/credentials/v1 or https://www.w3.org/ns/credentials/v2 " +
				"needs to be first in the list of contexts.",
		},
		{
			name:       "string context",
			credential: withContext(t, credentialV1, "https://www.w3.org/2018/credentials/v1"),
		},
		{
			name:       "credential subject is not an object",
			credential: set(t, credentialV1, "credentialSubject", "did:example:ebfeb1f712ebc6f1c276e12ec21"),
			code:       "ERR_INVALID_CREDENTIALSUBJECT",
			message:    "credentialSubject must be a non-null object or array of objects.",
		},
		{
			name:       "credential subject array with a string",
			credential: setRaw(t, credentialV1, "credentialSubject", `[{"id":"did:example:1"}, "x"]`),
			code:       "ERR_INVALID_CREDENTIALSUBJECT",
		},
		{
			name:       "credential subject id",
			credential: set(t, credentialV1, "credentialSubject.id", "not a uri"),
			code:       "ERR_INVALID_credentialSubjectID",
			message:    "Validation Error: Invalid URI: credentialSubject.id",
		},
		{
			name:       "null proof",
			credential: setRaw(t, credentialV1, "proof", "null"),
			code:       "ERR_INVALID_PROOF",
			message:    "Validation Error: Invalid Field: proof",
		},
		{
			name:       "proof algorithm",
			credential: set(t, credentialV1, "proof.jws", noneAlgJWS),
			code:       "ERR_INVALID_ALGORITHM",
			message:    "Validation Error: Algorithm used in the proof is not matching with supported algorithms",
		},
		{
			name:       "proof jws is not a JWS",
			credential: set(t, credentialV1, "proof.jws", "abc"),
			code:       "ERR_INVALID_ALGORITHM",
		},
		{
			name:       "proof type",
			credential: set(t, credentialV1, "proof.type", "BbsBlsSignature2020"),
			code:       "ERR_INVALID_PROOF_TYPE",
			message:    "Validation Error: Proof Type is not matching with supported types",
		},
		{
			name: "data integrity proof",
			credential: setRaw(t, credentialV1, "proof",
				`{"type":"DataIntegrityProof","cryptosuite":"ecdsa-rdfc-2019","proofValue":"z1"}`),
		},
		{
			name:       "proof without type",
			credential: del(t, credentialV1, "proof.type"),
			code:       "ERR_MISSING_PROOF_TYPE",
			message:    "Validation Error: Missing required field: proof.type",
		},
		{
			name: "every proof of a proof set is checked",
			credential: setRaw(t, credentialV1, "proof",
				`[{"type":"Ed25519Signature2020","proofValue":"z1"},{"type":"BbsBlsSignature2020","proofValue":"z2"}]`),
			code: "ERR_INVALID_PROOF_TYPE",
		},
		{
			name:       "id",
			credential: set(t, credentialV1, "id", "1872"),
			code:       "ERR_INVALID_id",
			message:    "Validation Error: Invalid URI: id",
		},
		{
			name:       "type",
			credential: setRaw(t, credentialV1, "type", `["UniversityDegreeCredential"]`),
			code:       "ERR_INVALID_TYPE",
			message:    "Validation Error: type must include `VerifiableCredential`.",
		},
		{
			name:       "string type",
			credential: set(t, credentialV1, "type", "VerifiableCredential"),
		},
		{
			name:       "issuer object without id",
			credential: setRaw(t, credentialV1, "issuer", `{"name":"Example University"}`),
			code:       "ERR_INVALID_ISSUER",
			message:    "Validation Error: Invalid URI: issuer",
		},
		{
			name:       "issuer object",
			credential: setRaw(t, credentialV1, "issuer", `{"id":"did:example:76e12ec712ebc6f1c221ebfeb1f"}`),
		},
		{
			name:       "evidence is not an object",
			credential: set(t, credentialV1, "evidence", "document"),
			code:       "ERR_INVALID_EVIDENCE",
			message:    "Validation Error: Invalid Field: evidence",
		},
		{
			name:       "terms of use id",
			credential: setRaw(t, credentialV1, "termsOfUse", `[{"type":"IssuerPolicy","id":"policy"}]`),
			code:       "ERR_INVALID_TERMSOFUSE_ID",
			message:    "Validation Error: Invalid URI: termsOfUse.id",
		},
	})
}

func TestLDPCredential_Validate_V1(t *testing.T) {
	runValidationCases(t, []validationCase{
		{
			name:       "missing issuance date",
			credential: del(t, credentialV1, "issuanceDate"),
			code:       "ERR_MISSING_ISSUANCEDATE",
			message:    "Validation Error: Missing required field: issuanceDate",
		},
		{
			name:       "first missing field is reported",
			credential: del(t, del(t, credentialV1, "proof"), "type"),
			code:       "ERR_MISSING_TYPE",
			message:    "Validation Error: Missing required field: type",
		},
		{
			name:       "missing credential subject",
			credential: del(t, credentialV1, "credentialSubject"),
			code:       "ERR_MISSING_CREDENTIALSUBJECT",
		},
		{
			name:       "issuance date format",
			credential: set(t, credentialV1, "issuanceDate", "2010-13-01T19:23:24Z"),
			code:       "ERR_INVALID_ISSUANCEDATE",
			message:    "Validation Error: issuanceDate is not valid.",
		},
		{
			name:       "expiration date format",
			credential: set(t, credentialV1, "expirationDate", "2030-01-01"),
			code:       "ERR_INVALID_EXPIRATIONDATE",
			message:    "Validation Error: expirationDate is not valid.",
		},
		{
			name:       "issuance date with offset and fraction",
			credential: set(t, credentialV1, "issuanceDate", "2010-01-01T19:23:24.123+02:00"),
		},
		{
			name:       "future issuance date",
			credential: set(t, credentialV1, "issuanceDate", "2030-01-01T00:00:00Z"),
			code:       "ERR_ISSUANCE_DATE_IS_FUTURE_DATE",
			message:    "Validation Error: The current date time is before the issuanceDate",
		},
		{
			name:       "issuance date within tolerance",
			credential: set(t, credentialV1, "issuanceDate", testNow.Add(2*time.Second).Format(time.RFC3339)),
		},
		{
			name:       "credential status without id",
			credential: setRaw(t, credentialV1, "credentialStatus", `{"type":"StatusList2021Entry"}`),
			code:       "ERR_MISSING_CREDENTIALSTATUS_ID",
			message:    "Validation Error: Missing required field: credentialStatus.id",
		},
		{
			name:       "credential status without type",
			credential: setRaw(t, credentialV1, "credentialStatus", `{"id":"https://example.com/status/1#94567"}`),
			code:       "ERR_MISSING_CREDENTIALSTATUS_TYPE",
			message:    "Validation Error: Missing required field: credentialStatus.type",
		},
		{
			name:       "refresh service without id",
			credential: setRaw(t, credentialV1, "refreshService", `{"type":"ManualRefreshService2018"}`),
			code:       "ERR_MISSING_REFRESHSERVICE_ID",
		},
		{
			name:       "expired",
			credential: set(t, credentialV1, "expirationDate", "2020-01-01T19:23:24Z"),
			code:       "ERR_VC_EXPIRED",
			message:    "VC is expired",
		},
		{
			name:       "not expired",
			credential: set(t, credentialV1, "expirationDate", "2030-01-01T19:23:24Z"),
		},
		{
			name: "structural failures are reported before expiry",
			credential: set(t, set(t, credentialV1, "expirationDate", "2020-01-01T19:23:24Z"),
				"id", "1872"),
			code: "ERR_INVALID_id",
		},
	})
}

func TestLDPCredential_Validate_V2(t *testing.T) {
	runValidationCases(t, []validationCase{
		{
			name:       "valid",
			credential: credentialV2,
		},
		{
			name:       "missing proof",
			credential: del(t, credentialV2, "proof"),
			code:       "ERR_MISSING_PROOF",
			message:    "Validation Error: Missing required field: proof",
		},
		{
			name:       "issuance date is not mandatory",
			credential: del(t, credentialV2, "validFrom"),
		},
		{
			name:       "valid from format",
			credential: set(t, credentialV2, "validFrom", "yesterday"),
			code:       "ERR_INVALID_VALIDFROM",
			message:    "Validation Error: validFrom is not valid.",
		},
		{
			name:       "valid until format",
			credential: set(t, credentialV2, "validUntil", "2030-01-01 00:00:00"),
			code:       "ERR_INVALID_VALIDUNTIL",
			message:    "Validation Error: validUntil is not valid.",
		},
		{
			name:       "future valid from",
			credential: set(t, credentialV2, "validFrom", "2030-01-01T00:00:00Z"),
			code:       "ERR_VALID_FROM_IS_FUTURE_DATE",
			message:    "Validation Error: The current date time is before the validFrom Date",
		},
		{
			name:       "credential status id is optional",
			credential: setRaw(t, credentialV2, "credentialStatus", `{"type":"BitstringStatusListEntry"}`),
		},
		{
			name:       "credential schema without id",
			credential: setRaw(t, credentialV2, "credentialSchema", `{"type":"JsonSchema"}`),
			code:       "ERR_MISSING_CREDENTIALSCHEMA_ID",
			message:    "Validation Error: Missing required field: credentialSchema.id",
		},
		{
			name:       "name language objects",
			credential: setRaw(t, credentialV2, "name", `[{"@value":"Example Degree","language":"en"}]`),
		},
		{
			name:       "name without language",
			credential: setRaw(t, credentialV2, "name", `[{"@value":"Example Degree"}]`),
			code:       "ERR_INVALID_NAME",
			message:    "Validation Error: name should be string or array of Language Object",
		},
		{
			name:       "description is a number",
			credential: set(t, credentialV2, "description", 42),
			code:       "ERR_INVALID_DESCRIPTION",
			message:    "Validation Error: description should be string or array of Language Object",
		},
		{
			name:       "expired",
			credential: set(t, credentialV2, "validUntil", "2020-01-01T00:00:00Z"),
			code:       "ERR_VC_EXPIRED",
			message:    "VC is expired",
		},
	})
}

func TestValidationStatus_Blocking(t *testing.T) {
	require.False(t, verifiable.ValidationStatus{}.Blocking())
	require.False(t, verifiable.ValidationStatus{ErrorCode: verifiable.CodeVCExpired}.Blocking())
	require.True(t, verifiable.ValidationStatus{ErrorCode: "ERR_INVALID_ISSUER"}.Blocking())
}
