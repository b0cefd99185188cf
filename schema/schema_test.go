package schema

import (
	"encoding/json"
	"io/fs"
	"strings"
	"testing"
)

// TestEmbeddedSchemasAreValidJSON verifies that all embedded schema files are valid JSON.
func TestEmbeddedSchemasAreValidJSON(t *testing.T) {
	t.Parallel()

	entries, err := fs.ReadDir(FS, ".")
	if err != nil {
		t.Fatalf("failed to read embedded FS: %v", err)
	}

	schemaCount := 0
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".schema.json") {
			continue
		}
		schemaCount++

		entry := entry
		t.Run(entry.Name(), func(t *testing.T) {
			t.Parallel()

			data, err := FS.ReadFile(entry.Name())
			if err != nil {
				t.Fatalf("failed to read %s: %v", entry.Name(), err)
			}

			var v interface{}
			if err := json.Unmarshal(data, &v); err != nil {
				t.Errorf("%s is not valid JSON: %v", entry.Name(), err)
			}
			if _, ok := v.(map[string]interface{}); !ok {
				t.Errorf("%s root is not an object", entry.Name())
			}
		})
	}

	if schemaCount == 0 {
		t.Error("no schema files found in embedded FS")
	}
}

func TestConfigSchemaStructure(t *testing.T) {
	t.Parallel()

	data, err := FS.ReadFile("config.schema.json")
	if err != nil {
		t.Fatalf("config schema not embedded: %v", err)
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("failed to parse config schema: %v", err)
	}

	for _, field := range []string{"$schema", "type", "properties"} {
		if _, ok := schema[field]; !ok {
			t.Errorf("config schema missing %s field", field)
		}
	}

	props, _ := schema["properties"].(map[string]interface{})
	for _, key := range []string{"answers", "output", "category", "extensions", "question", "watch"} {
		if _, ok := props[key]; !ok {
			t.Errorf("config schema does not describe %q", key)
		}
	}
}
