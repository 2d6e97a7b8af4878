// internal/schema/validator.go
// Package schema provides JSON schema validation for martyr record payloads.
// Creation requests are checked against the record schema before any
// persistence or upload happens.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// recordSchemaVersion is the version reported for the embedded schema.
const recordSchemaVersion = "1.0.0"

// recordSchema is the embedded creation schema. The required list mirrors the
// validation rule of the archive: name variants plus birth and martyrdom
// dates must be present before a record can exist.
const recordSchema = `{
  "type": "object",
  "required": ["personalInfo"],
  "properties": {
    "personalInfo": {
      "type": "object",
      "required": ["name", "dateOfBirth", "dateOfMartyrdom"],
      "properties": {
        "name": {"type": "string", "minLength": 1, "maxLength": 256},
        "nameTransliterated": {"type": "string", "maxLength": 256},
        "nameEnglish": {"type": "string", "maxLength": 256},
        "dateOfBirth": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
        "dateOfMartyrdom": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
        "placeOfBirth": {"type": "string", "maxLength": 256},
        "nationality": {"type": "string", "maxLength": 128},
        "martyrdomPlace": {"type": "string", "maxLength": 256},
        "martyrdomCircumstances": {"type": "string", "maxLength": 4096}
      }
    },
    "familyInfo": {"type": "object"},
    "biography": {"type": "object"},
    "tags": {"type": "array", "items": {"type": "string", "maxLength": 64}},
    "status": {"type": "string", "enum": ["active", "inactive", "pending"]},
    "priority": {"type": "string", "maxLength": 32},
    "createdBy": {"type": "string", "maxLength": 128}
  }
}`

// ValidationError reports a failed schema validation along with the fields
// that were required but missing.
type ValidationError struct {
	MissingFields []string // dotted paths of absent required fields
	Problems      []string // remaining schema violations
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	var parts []string
	if len(e.MissingFields) > 0 {
		parts = append(parts, fmt.Sprintf("missing required fields: %s", strings.Join(e.MissingFields, ", ")))
	}
	if len(e.Problems) > 0 {
		parts = append(parts, strings.Join(e.Problems, "; "))
	}
	return strings.Join(parts, "; ")
}

// Validator validates creation payloads against the record schema.
type Validator struct {
	schema   *gojsonschema.Schema
	version  string
	resolver *Resolver
}

// NewValidator creates a validator backed by the embedded record schema.
func NewValidator() (*Validator, error) {
	loader := gojsonschema.NewStringLoader(recordSchema)
	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("invalid embedded record schema: %w", err)
	}
	return &Validator{schema: compiled, version: recordSchemaVersion}, nil
}

// SetResolver attaches a resolver that can replace the embedded schema with a
// remotely published revision. Resolution failures keep the embedded schema.
func (v *Validator) SetResolver(resolver *Resolver) {
	v.resolver = resolver
	if resolver == nil {
		return
	}
	schemaJSON, version, err := resolver.RecordSchema()
	if err != nil {
		return
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return
	}
	v.schema = compiled
	v.version = version
}

// Version reports the schema version in effect.
func (v *Validator) Version() string {
	return v.version
}

// Validate checks a creation payload against the record schema. On failure it
// returns a *ValidationError whose MissingFields list names every required
// field that is absent, so callers can surface a structured "missing fields"
// error before touching storage.
func (v *Validator) Validate(payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(payloadJSON))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, desc := range result.Errors() {
		if desc.Type() == "required" {
			// Field() is the parent object; the property name sits in details.
			property, _ := desc.Details()["property"].(string)
			path := property
			if desc.Field() != "(root)" && desc.Field() != "" {
				path = desc.Field() + "." + property
			}
			verr.MissingFields = append(verr.MissingFields, path)
			continue
		}
		// Struct payloads marshal absent strings as "", which trips pattern
		// and minLength rules instead of "required". Treat those as missing.
		if v, ok := desc.Value().(string); ok && v == "" {
			verr.MissingFields = append(verr.MissingFields, desc.Field())
			continue
		}
		verr.Problems = append(verr.Problems, desc.String())
	}
	return verr
}
