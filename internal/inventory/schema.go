package inventory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://fisdef.local/schemas/fispact-inventory.schema.json"

// schemaText covers only the fields fisdef reads; FISPACT writes many more
// and they are allowed through.
const schemaText = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["inventory_data"],
  "properties": {
    "inventory_data": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["nuclides"],
        "properties": {
          "irradiation_time": {"type": "number", "minimum": 0},
          "cooling_time": {"type": "number", "minimum": 0},
          "total_mass": {"type": "number", "minimum": 0},
          "total_activity": {"type": "number", "minimum": 0},
          "dose_rate": {
            "type": "object",
            "properties": {"dose": {"type": "number"}}
          },
          "nuclides": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["element", "isotope", "activity"],
              "properties": {
                "element": {"type": "string", "minLength": 1},
                "isotope": {"type": "integer", "minimum": 1},
                "state": {"type": "string"},
                "half_life": {"type": "number", "minimum": 0},
                "activity": {"type": "number", "minimum": 0}
              }
            }
          }
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(schemaText)); err != nil {
			schemaErr = fmt.Errorf("inventory schema load failed: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Validate checks that data has the shape of a FISPACT-II JSON inventory.
func Validate(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("failed to parse inventory: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("invalid inventory: %w", err)
	}
	return nil
}
