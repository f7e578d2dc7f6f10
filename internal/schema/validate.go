// Package schema validates configuration, suite documents and reference
// validator output against the embedded JSON schemas.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	schemafs "github.com/AndreyAkinshin/stochval/schema"
)

const (
	configSchemaName          = "config.schema.json"
	suiteSchemaName           = "suite.schema.json"
	referenceResultSchemaName = "reference-result.schema.json"
)

var (
	compiled    map[string]*jsonschema.Schema
	compileOnce sync.Once
	compileErr  error
)

// compileSchemas compiles all embedded schemas once.
func compileSchemas() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		names := []string{configSchemaName, suiteSchemaName, referenceResultSchemaName}

		for _, name := range names {
			data, err := schemafs.FS.ReadFile(name)
			if err != nil {
				compileErr = fmt.Errorf("read %s: %w", name, err)
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				compileErr = fmt.Errorf("unmarshal %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(name, doc); err != nil {
				compileErr = fmt.Errorf("add %s resource: %w", name, err)
				return
			}
		}

		compiled = make(map[string]*jsonschema.Schema, len(names))
		for _, name := range names {
			sch, err := compiler.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compile %s: %w", name, err)
				return
			}
			compiled[name] = sch
		}
	})

	return compileErr
}

func validateJSON(name, what string, data []byte) error {
	if err := compileSchemas(); err != nil {
		return err
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := compiled[name].Validate(v); err != nil {
		return fmt.Errorf("%s validation failed: %w", what, err)
	}
	return nil
}

// ValidateConfig validates JSON data against the config schema.
func ValidateConfig(data []byte) error {
	return validateJSON(configSchemaName, "config", data)
}

// ValidateReferenceResult validates a reference validator's stdout against
// the result envelope schema.
func ValidateReferenceResult(data []byte) error {
	return validateJSON(referenceResultSchemaName, "reference result", data)
}

// ValidateSuite validates a decoded YAML suite document. YAML maps with
// non-string keys are normalized before validation.
func ValidateSuite(doc any) error {
	data, err := json.Marshal(normalizeYAML(doc))
	if err != nil {
		return fmt.Errorf("suite is not representable as JSON: %w", err)
	}
	return validateJSON(suiteSchemaName, "suite", data)
}

// normalizeYAML converts map[any]any nodes, which encoding/json rejects,
// into map[string]any.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
