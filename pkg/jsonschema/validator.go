// Package jsonschema validates JSON documents against JSON Schema
// definitions.
package jsonschema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors is the collection of individual violations found in
// one validation run.
type ValidationErrors []error

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate reports whether doc conforms to schema. A broken schema or
// unparsable document is an error; a conformance failure is just false.
func Validate(doc, schema string) (bool, error) {
	compiled, err := compile(schema)
	if err != nil {
		return false, err
	}

	var data any
	if err := json.Unmarshal([]byte(doc), &data); err != nil {
		return false, fmt.Errorf("invalid JSON: %w", err)
	}

	return compiled.Validate(data) == nil, nil
}

// ValidateWithErrors reports conformance and, on failure, every
// individual violation.
func ValidateWithErrors(doc, schema string) (bool, ValidationErrors) {
	compiled, err := compile(schema)
	if err != nil {
		return false, ValidationErrors{err}
	}

	var data any
	if err := json.Unmarshal([]byte(doc), &data); err != nil {
		return false, ValidationErrors{fmt.Errorf("invalid JSON: %w", err)}
	}

	err = compiled.Validate(data)
	if err == nil {
		return true, nil
	}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return false, flatten(verr)
	}
	return false, ValidationErrors{err}
}

func compile(schema string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return compiled, nil
}

// flatten walks the violation tree into a flat list, one entry per
// cause.
func flatten(err *jsonschema.ValidationError) ValidationErrors {
	var errors ValidationErrors
	if err.Message != "" {
		errors = append(errors, fmt.Errorf("validation error at %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		errors = append(errors, flatten(cause)...)
	}
	return errors
}
