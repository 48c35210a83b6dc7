/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package verifiable

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"

	"github.com/trustbloc/vc-offline-verifier/dataintegrity/models"
	"github.com/trustbloc/vc-offline-verifier/jwt"
	"github.com/trustbloc/vc-offline-verifier/proof/ldproofs"
	"github.com/trustbloc/vc-offline-verifier/status"
)

// Error codes reported in ValidationStatus and VerificationResult.
const (
	CodeEmptyVC                     = "ERR_EMPTY_VC"
	CodeGeneric                     = "ERR_GENERIC"
	CodeVCExpired                   = status.CodeExpired
	CodeInvalidContext              = "ERR_INVALID_@CONTEXT"
	CodeMissingContext              = "ERR_MISSING_@CONTEXT"
	CodeInvalidAlgorithm            = "ERR_INVALID_ALGORITHM"
	CodeInvalidProofType            = "ERR_INVALID_PROOF_TYPE"
	CodeIssuanceDateIsFutureDate    = "ERR_ISSUANCE_DATE_IS_FUTURE_DATE"
	CodeValidFromIsFutureDate       = "ERR_VALID_FROM_IS_FUTURE_DATE"
	CodeProcessingDateIsFutureDate  = "ERR_PROCESSING_DATE_IS_FUTURE_DATE"
	CodeInvalidJWTFormat            = "ERR_INVALID_JWT_FORMAT"
	CodeInvalidCWTFormat            = "ERR_INVALID_CWT_FORMAT"
	CodeMissingKID                  = "ERR_MISSING_KID"
	CodeSignatureVerificationFailed = "ERR_SIGNATURE_VERIFICATION_FAILED"
	CodeOfflineDependenciesMissing  = "ERR_OFFLINE_DEPENDENCIES_MISSING"
	CodeIssuerMismatch              = "ERR_ISSUER_MISMATCH"
	CodeInvalidDateMSO              = "ERR_INVALID_DATE_MSO"
	CodeInvalidValidFromMSO         = "ERR_INVALID_VALID_FROM_MSO"
	CodeInvalidValidUntilMSO        = "ERR_INVALID_VALID_UNTIL_MSO"
)

const (
	validationErrorPrefix   = "Validation Error: "
	validationExceptionText = "Exception during Validation: "

	msgEmptyVC                  = validationErrorPrefix + "Input VC JSON string is null or empty."
	msgVCExpired                = "VC is expired"
	msgContextFirst             = validationErrorPrefix + credentialsV1Context + " or " + credentialsV2Context + " needs to be first in the list of contexts."
	msgAlgorithmNotSupported    = validationErrorPrefix + "Algorithm used in the proof is not matching with supported algorithms"
	msgProofTypeNotSupported    = validationErrorPrefix + "Proof Type is not matching with supported types"
	msgIssuanceDateIsFuture     = validationErrorPrefix + "The current date time is before the issuanceDate"
	msgValidFromIsFuture        = validationErrorPrefix + "The current date time is before the validFrom Date"
	msgProcessingDateIsFuture   = validationErrorPrefix + "The current date time is before the not before(nbf) claim Date"
	msgInvalidJWTFormat         = validationErrorPrefix + "Invalid JWT format"
	msgInvalidCWTFormat         = validationErrorPrefix + "Invalid CWT format"
	msgTypeVerifiableCredential = validationErrorPrefix + "type must include `VerifiableCredential`."
	msgSubjectNonNullObject     = "credentialSubject must be a non-null object or array of objects."
	msgLanguageObject           = "should be string or array of Language Object"
)

const (
	credentialsV1Context = "https://www.w3.org/2018/credentials/v1"
	credentialsV2Context = "https://www.w3.org/ns/credentials/v2"

	fieldContext           = "@context"
	fieldID                = "id"
	fieldType              = "type"
	fieldIssuer            = "issuer"
	fieldCredentialSubject = "credentialSubject"
	fieldProof             = "proof"
	fieldIssuanceDate      = "issuanceDate"
	fieldExpirationDate    = "expirationDate"
	fieldValidFrom         = "validFrom"
	fieldValidUntil        = "validUntil"
	fieldCredentialStatus  = "credentialStatus"
	fieldEvidence          = "evidence"
	fieldCredentialSchema  = "credentialSchema"
	fieldRefreshService    = "refreshService"
	fieldTermsOfUse        = "termsOfUse"
	fieldName              = "name"
	fieldDescription       = "description"
	fieldLanguage          = "language"
	fieldJWS               = "jws"

	typeVerifiableCredential = "VerifiableCredential"
)

// nolint: gochecknoglobals
var (
	dateRegex = regexp.MustCompile(`(?i)^(\d{4})-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])T([01][0-9]|2[0-3]):` +
		`([0-5][0-9]):([0-5][0-9]|60)(\.[0-9]+)?(Z|(\+|-)([01][0-9]|2[0-3]):([0-5][0-9]))$`)

	supportedProofTypes = append(ldproofs.ProofTypes(), models.DataIntegrityProof)

	fieldsWithIDAndType = []string{
		fieldProof,
		fieldCredentialStatus,
		fieldEvidence,
		fieldCredentialSchema,
		fieldRefreshService,
		fieldTermsOfUse,
	}
)

// ValidationStatus is the outcome of structural validation. An empty ErrorCode means the
// credential is valid.
type ValidationStatus struct {
	Message   string `json:"message,omitempty"`
	ErrorCode string `json:"errorCode,omitempty"`
}

// Blocking reports whether the status prevents signature verification. Expiry is reported
// but does not block.
func (s ValidationStatus) Blocking() bool {
	return s.ErrorCode != "" && s.ErrorCode != CodeVCExpired
}

// validationError carries a ValidationStatus through the check functions.
type validationError struct {
	code    string
	message string
}

func (e *validationError) Error() string {
	return e.message
}

func newValidationError(code, message string) *validationError {
	return &validationError{code: code, message: message}
}

func statusOf(err error) ValidationStatus {
	if err == nil {
		return ValidationStatus{}
	}

	var ve *validationError
	if errors.As(err, &ve) {
		return ValidationStatus{Message: ve.message, ErrorCode: ve.code}
	}

	return ValidationStatus{Message: validationExceptionText + err.Error(), ErrorCode: CodeGeneric}
}

func missingField(field string) *validationError {
	return newValidationError(
		"ERR_MISSING_"+strings.ToUpper(strings.Replace(field, ".", "_", 1)),
		validationErrorPrefix+"Missing required field: "+field)
}

func invalidCode(field string) string {
	return "ERR_INVALID_" + strings.ToUpper(field)
}

func invalidURI(code, field string) *validationError {
	return newValidationError(code, validationErrorPrefix+"Invalid URI: "+field)
}

// checkMandatoryFields reports the first of fields absent from vc, in the order given.
func checkMandatoryFields(vc map[string]interface{}, fields []string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(map[string]interface{}{
		"type":     "object",
		"required": fields,
	}))
	if err != nil {
		return fmt.Errorf("mandatory fields schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(vc))
	if err != nil {
		return fmt.Errorf("validate mandatory fields: %w", err)
	}

	if result.Valid() {
		return nil
	}

	missing := make(map[string]bool)

	for _, re := range result.Errors() {
		if re.Type() != "required" {
			continue
		}

		if property, ok := re.Details()["property"].(string); ok {
			missing[property] = true
		}
	}

	for _, field := range fields {
		if missing[field] {
			return missingField(field)
		}
	}

	return nil
}

func isValidDate(value interface{}) bool {
	return dateRegex.MatchString(fmt.Sprint(value))
}

func parseDate(value string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, strings.ToUpper(value))
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// isFutureDate reports whether value lies beyond now plus the tolerance. Unparseable dates are
// not in the future.
func isFutureDate(value interface{}, now time.Time) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}

	t, ok := parseDate(s)
	if !ok {
		return false
	}

	return t.After(now.Add(dateTolerance))
}

func isExpired(value interface{}, now time.Time) bool {
	s, ok := value.(string)
	if !ok || s == "" {
		return false
	}

	return !isFutureDate(s, now)
}

func checkDateFormats(vc map[string]interface{}, fields ...string) error {
	for _, field := range fields {
		if v, ok := vc[field]; ok && !isValidDate(v) {
			return newValidationError(invalidCode(field), validationErrorPrefix+field+" is not valid.")
		}
	}

	return nil
}

func isValidURI(value interface{}) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}

	u, err := url.Parse(s)
	if err == nil && u.Scheme != "" {
		return true
	}

	return strings.Contains(s, ":")
}

// checkObjectOrArray runs check on value when it is an object, or on every element when it is an
// array of objects.
func checkObjectOrArray(value interface{}, invalid *validationError,
	check func(obj map[string]interface{}) error) error {
	switch v := value.(type) {
	case map[string]interface{}:
		return check(v)
	case []interface{}:
		for _, item := range v {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return invalid
			}

			if err := check(obj); err != nil {
				return err
			}
		}

		return nil
	default:
		return invalid
	}
}

func checkFieldsByIDAndType(vc map[string]interface{}, idMandatory []string) error {
	for _, field := range fieldsWithIDAndType {
		value, ok := vc[field]
		if !ok {
			continue
		}

		invalid := newValidationError(invalidCode(field), validationErrorPrefix+"Invalid Field: "+field)

		err := checkObjectOrArray(value, invalid, func(obj map[string]interface{}) error {
			return checkIDAndType(field, obj, lo.Contains(idMandatory, field))
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func checkIDAndType(field string, obj map[string]interface{}, idMandatory bool) error {
	if _, ok := obj[fieldType]; !ok {
		return missingField(field + "." + fieldType)
	}

	id, ok := obj[fieldID]
	if idMandatory && !ok {
		return missingField(field + "." + fieldID)
	}

	if s, isString := id.(string); isString && s != "" && !isValidURI(s) {
		return invalidURI(invalidCode(field+"_"+fieldID), field+"."+fieldID)
	}

	return nil
}

func checkLanguageFields(vc map[string]interface{}) error {
	for _, field := range []string{fieldName, fieldDescription} {
		value, ok := vc[field]
		if !ok {
			continue
		}

		invalid := newValidationError(invalidCode(field), validationErrorPrefix+field+" "+msgLanguageObject)

		switch v := value.(type) {
		case string:
		case []interface{}:
			for _, item := range v {
				obj, isObj := item.(map[string]interface{})
				if !isObj {
					return invalid
				}

				if _, hasLanguage := obj[fieldLanguage]; !hasLanguage {
					return invalid
				}
			}
		default:
			return invalid
		}
	}

	return nil
}

func checkCredentialSubject(vc map[string]interface{}) error {
	invalid := newValidationError(invalidCode(fieldCredentialSubject), msgSubjectNonNullObject)

	return checkObjectOrArray(vc[fieldCredentialSubject], invalid,
		func(subject map[string]interface{}) error {
			if id, ok := subject[fieldID]; ok && !isValidURI(id) {
				return invalidURI("ERR_INVALID_"+fieldCredentialSubject+strings.ToUpper(fieldID),
					fieldCredentialSubject+"."+fieldID)
			}

			return nil
		})
}

func checkProofs(vc map[string]interface{}) error {
	switch p := vc[fieldProof].(type) {
	case nil:
		return missingField(fieldProof)
	case map[string]interface{}:
		return checkProof(p)
	case []interface{}:
		if len(p) == 0 {
			return missingField(fieldProof)
		}

		for _, item := range p {
			obj, ok := item.(map[string]interface{})
			if !ok {
				return newValidationError(invalidCode(fieldProof), validationErrorPrefix+"Invalid Field: "+fieldProof)
			}

			if err := checkProof(obj); err != nil {
				return err
			}
		}

		return nil
	default:
		return newValidationError(invalidCode(fieldProof), validationErrorPrefix+"Invalid Field: "+fieldProof)
	}
}

func checkProof(p map[string]interface{}) error {
	if jws, ok := p[fieldJWS]; ok && jws != nil {
		s, _ := jws.(string) //nolint:errcheck
		if s == "" {
			return newValidationError(CodeInvalidAlgorithm, msgAlgorithmNotSupported)
		}

		if _, err := jwt.ParseEnvelope(s); err != nil {
			return newValidationError(CodeInvalidAlgorithm, msgAlgorithmNotSupported)
		}
	}

	proofType, _ := p[fieldType].(string) //nolint:errcheck
	if !lo.Contains(supportedProofTypes, proofType) {
		return newValidationError(CodeInvalidProofType, msgProofTypeNotSupported)
	}

	return nil
}

func checkID(vc map[string]interface{}) error {
	if id, ok := vc[fieldID]; ok && !isValidURI(id) {
		return invalidURI("ERR_INVALID_"+fieldID, fieldID)
	}

	return nil
}

func checkType(vc map[string]interface{}) error {
	value, ok := vc[fieldType]
	if !ok {
		return nil
	}

	if !lo.Contains(stringSlice(value), typeVerifiableCredential) {
		return newValidationError(invalidCode(fieldType), msgTypeVerifiableCredential)
	}

	return nil
}

func checkIssuer(vc map[string]interface{}) error {
	value, ok := vc[fieldIssuer]
	if !ok {
		return nil
	}

	if id := issuerID(value); id == "" || !isValidURI(id) {
		return invalidURI(invalidCode(fieldIssuer), fieldIssuer)
	}

	return nil
}

func issuerID(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]interface{}:
		id, _ := v[fieldID].(string) //nolint:errcheck

		return id
	}

	return ""
}

func stringSlice(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []interface{}:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	case []string:
		return v
	}

	return nil
}

func checkCommonFields(vc map[string]interface{}) error {
	for _, check := range []func(map[string]interface{}) error{
		checkCredentialSubject,
		checkProofs,
		checkID,
		checkType,
		checkIssuer,
	} {
		if err := check(vc); err != nil {
			return err
		}
	}

	return nil
}
