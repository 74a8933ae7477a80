package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/wonny/sycamore/backend/internal/contracts"
)

// Validator checks request documents against a compiled JSON schema
// ⭐ SSOT: 요청 스키마 검증은 여기서만
type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile builds a validator from a Go schema document
func Compile(name string, doc map[string]interface{}) (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", name, err)
	}
	return &Validator{name: name, schema: s}, nil
}

// Validate returns a *contracts.ValidationError listing every violation
func (v *Validator) Validate(doc interface{}) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return contracts.NewValidationError(v.name, fmt.Sprintf("unreadable document: %v", err))
	}
	if result.Valid() {
		return nil
	}

	errs := result.Errors()
	msgs := make([]string, len(errs))
	for i, desc := range errs {
		msgs[i] = desc.String()
	}

	return contracts.NewValidationError(v.fieldOf(errs[0]), strings.Join(msgs, "; "))
}

// fieldOf names the offending property; "required" errors sit on the parent object
func (v *Validator) fieldOf(e gojsonschema.ResultError) string {
	if e.Type() == "required" {
		if prop, ok := e.Details()["property"].(string); ok && prop != "" {
			return prop
		}
	}
	field := e.Field()
	if field == "" || field == gojsonschema.STRING_CONTEXT_ROOT {
		return v.name
	}
	return field
}

// 숫자 또는 숫자 문자열 허용 (실제 변환은 features.ParseRecord)
var numeric = map[string]interface{}{
	"type": []interface{}{"number", "string"},
}

var optionalNumeric = map[string]interface{}{
	"type": []interface{}{"number", "string", "null"},
}

func applicantDocument() map[string]interface{} {
	props := map[string]interface{}{}
	required := []interface{}{
		contracts.FieldLimitBal, contracts.FieldAge, contracts.FieldSex,
		contracts.FieldEducation, contracts.FieldMarriage,
	}

	for _, name := range required {
		props[name.(string)] = numeric
	}
	for _, name := range contracts.PayStatusFields {
		props[name] = numeric
		required = append(required, name)
	}
	for _, name := range contracts.BillAmountFields {
		props[name] = optionalNumeric
	}
	for _, name := range contracts.PayAmountFields {
		props[name] = optionalNumeric
	}
	for _, name := range contracts.DerivedFeatureNames {
		props[name] = optionalNumeric
	}

	return map[string]interface{}{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func assetProfileDocument() map[string]interface{} {
	return map[string]interface{}{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type":    "object",
		"properties": map[string]interface{}{
			"financial_health_score": map[string]interface{}{
				"type":    []interface{}{"number", "null"},
				"minimum": 0,
				"maximum": 100,
			},
			contracts.FieldAge: map[string]interface{}{
				"type":    []interface{}{"integer", "null"},
				"minimum": 0,
				"maximum": 150,
			},
		},
	}
}

// Applicant validates raw applicant records (credit and financial health requests)
func Applicant() *Validator {
	return mustCompile("record", applicantDocument())
}

// AssetProfile validates asset recommendation requests
func AssetProfile() *Validator {
	return mustCompile("profile", assetProfileDocument())
}

func mustCompile(name string, doc map[string]interface{}) *Validator {
	v, err := Compile(name, doc)
	if err != nil {
		panic(err)
	}
	return v
}
