package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func definitionsSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("definitions.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("definitions.json")
	})
	return compiledSchema, schemaErr
}

// SchemaViolation is a single schema validation failure.
type SchemaViolation struct {
	// Path is the location in the document, e.g. "handlers.0.response.status".
	Path    string
	Message string
}

func (v SchemaViolation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// SchemaError reports a document that does not satisfy the schema.
type SchemaError struct {
	Source     string
	Violations []SchemaViolation
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	prefix := "schema validation failed"
	if e.Source != "" {
		prefix = e.Source + ": " + prefix
	}
	return prefix + ": " + strings.Join(msgs, "; ")
}

// ValidateDocument checks a decoded YAML or JSON document against the
// definitions schema.
func ValidateDocument(doc any, source string) error {
	schema, err := definitionsSchema()
	if err != nil {
		return err
	}

	// Round trip through JSON so YAML scalars get JSON types.
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%s: converting document: %w", source, err)
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return fmt.Errorf("%s: converting document: %w", source, err)
	}

	err = schema.Validate(normalized)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%s: %w", source, err)
	}
	result := &SchemaError{Source: source}
	collectViolations(verr, result)
	return result
}

func collectViolations(err *jsonschema.ValidationError, result *SchemaError) {
	if len(err.Causes) == 0 {
		result.Violations = append(result.Violations, SchemaViolation{
			Path:    pointerPath(err.InstanceLocation),
			Message: err.Message,
		})
		return
	}
	for _, cause := range err.Causes {
		collectViolations(cause, result)
	}
}

func pointerPath(pointer string) string {
	pointer = strings.TrimPrefix(pointer, "/")
	return strings.ReplaceAll(pointer, "/", ".")
}
