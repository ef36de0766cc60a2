package vision

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// extractionSchema is deliberately loose below the top level: a missing
// "tests" map or a bad value inside one entry is handled per-entry during
// parsing, not by failing the whole fragment.
const extractionSchema = `{
  "type": "object",
  "properties": {
    "sample_date": {"type": ["string", "null"]},
    "tests": {"type": "object"}
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// validatePayload checks the parsed model payload against the extraction
// schema. Schema compilation happens once per process.
func validatePayload(payload json.RawMessage) error {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("extraction.json", strings.NewReader(extractionSchema)); err != nil {
			schemaErr = fmt.Errorf("failed to load extraction schema: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile("extraction.json")
	})
	if schemaErr != nil {
		return schemaErr
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("failed to decode payload for validation: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("payload does not match extraction schema: %w", err)
	}
	return nil
}
