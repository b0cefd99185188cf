package schema

import "testing"

func TestSchemaValidConfig(t *testing.T) {
	valid := map[string]string{
		"empty":   `{}`,
		"minimal": `{"category": "Информатика"}`,
		"full": `{
			"$schema": "./schema/config.schema.json",
			"answers": "key.txt",
			"answers_encoding": "windows-1251",
			"output": "bank.xml",
			"category": "ЕГЭ Задания",
			"extensions": {"images": [".png", "gif"], "auxiliary": [".txt"]},
			"question": {
				"name_format": "Задача %d",
				"default_grade": 2,
				"penalty": 0.5,
				"correct_feedback": "Верно",
				"case_sensitive": true
			},
			"watch": {"debounce_ms": 250}
		}`,
	}

	for name, data := range valid {
		t.Run(name, func(t *testing.T) {
			if err := ValidateConfig([]byte(data)); err != nil {
				t.Errorf("expected valid config, got error: %v", err)
			}
		})
	}
}

func TestSchemaInvalidConfig(t *testing.T) {
	invalid := map[string]string{
		"not object":        `"string"`,
		"malformed":         `{"category": `,
		"empty category":    `{"category": ""}`,
		"bad encoding":      `{"answers_encoding": "koi8-r"}`,
		"penalty above one": `{"question": {"penalty": 1.5}}`,
		"negative grade":    `{"question": {"default_grade": -1}}`,
		"name without verb": `{"question": {"name_format": "Задание"}}`,
		"extension shape":   `{"extensions": {"images": ["*.png"]}}`,
		"empty extensions":  `{"extensions": {"auxiliary": []}}`,
		"debounce type":     `{"watch": {"debounce_ms": "fast"}}`,
		"answers type":      `{"answers": 12}`,
	}

	for name, data := range invalid {
		t.Run(name, func(t *testing.T) {
			if err := ValidateConfig([]byte(data)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
