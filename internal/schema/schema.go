// Package schema checks analysis results against the persisted JSON
// contract that downstream rendering and search tooling read.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed result.schema.json
var resultSchema []byte

const resultSchemaURL = "result.schema.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Result returns the compiled result schema.
func Result() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(resultSchemaURL, bytes.NewReader(resultSchema)); err != nil {
			compileErr = fmt.Errorf("load result schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(resultSchemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile result schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Raw returns the schema document.
func Raw() []byte {
	return append([]byte(nil), resultSchema...)
}

// ValidateJSON checks raw JSON against the result schema.
func ValidateJSON(raw []byte) error {
	sch, err := Result()
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("result does not match schema: %w", err)
	}
	return nil
}

// Validate marshals v and checks it against the result schema.
func Validate(v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return ValidateJSON(raw)
}
