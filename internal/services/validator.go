package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation can be used with errors.Is to detect schema validation
// failures on intake payloads.
var ErrValidation = errors.New("validation failed")

// Validator checks intake payloads against the versioned JSON schemas shipped
// in the schemas directory.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator loads and compiles every *.json schema file from schemaDir.
// Schema files are named <kind>.v<n>.json; the kind (e.g. "lead") is the
// lookup key.
func NewValidator(schemaDir string) (*Validator, error) {
	entries, err := os.ReadDir(schemaDir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir %q: %w", schemaDir, err)
	}
	schemas := make(map[string]*jsonschema.Schema)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		kind := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		kind = strings.TrimSuffix(kind, ".v1")
		path := filepath.Join(schemaDir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", path, err)
		}
		id := "https://meisterleads.at/schemas/" + kind
		schemas[kind], err = jsonschema.CompileString(id, string(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", kind, err)
		}
	}
	if len(schemas) == 0 {
		return nil, fmt.Errorf("no schemas found in %q", schemaDir)
	}
	return &Validator{schemas: schemas}, nil
}

// Validate rejects payloads that do not match the schema for kind. Returns an
// error wrapping ErrValidation on schema violations.
func (v *Validator) Validate(kind string, payload json.RawMessage) error {
	schema, ok := v.schemas[kind]
	if !ok {
		return fmt.Errorf("unknown payload kind %q", kind)
	}
	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrValidation, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// ValidateLead checks a lead intake payload.
func (v *Validator) ValidateLead(payload json.RawMessage) error {
	return v.Validate("lead", payload)
}
