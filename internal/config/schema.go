// Package config provides loading and validation for the optional moodlexml
// project file (moodlexml.yaml, moodlexml.toml or moodlexml.json).
package config

// Config represents the complete project file.
type Config struct {
	Answers         string            `json:"answers,omitempty" yaml:"answers,omitempty" toml:"answers,omitempty"`
	AnswersEncoding string            `json:"answers_encoding,omitempty" yaml:"answers_encoding,omitempty" toml:"answers_encoding,omitempty"`
	Output          string            `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`
	Category        string            `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	Extensions      *ExtensionsConfig `json:"extensions,omitempty" yaml:"extensions,omitempty" toml:"extensions,omitempty"`
	Question        *QuestionConfig   `json:"question,omitempty" yaml:"question,omitempty" toml:"question,omitempty"`
	Watch           *WatchConfig      `json:"watch,omitempty" yaml:"watch,omitempty" toml:"watch,omitempty"`
}

// ExtensionsConfig overrides the file extensions recognized as task assets.
type ExtensionsConfig struct {
	Images    []string `json:"images,omitempty" yaml:"images,omitempty" toml:"images,omitempty"`
	Auxiliary []string `json:"auxiliary,omitempty" yaml:"auxiliary,omitempty" toml:"auxiliary,omitempty"`
}

// QuestionConfig configures the generated questions.
type QuestionConfig struct {
	NameFormat      string   `json:"name_format,omitempty" yaml:"name_format,omitempty" toml:"name_format,omitempty"` // %d receives the task number
	DefaultGrade    *float64 `json:"default_grade,omitempty" yaml:"default_grade,omitempty" toml:"default_grade,omitempty"`
	Penalty         *float64 `json:"penalty,omitempty" yaml:"penalty,omitempty" toml:"penalty,omitempty"`
	CorrectFeedback string   `json:"correct_feedback,omitempty" yaml:"correct_feedback,omitempty" toml:"correct_feedback,omitempty"`
	CaseSensitive   bool     `json:"case_sensitive,omitempty" yaml:"case_sensitive,omitempty" toml:"case_sensitive,omitempty"`
}

// WatchConfig configures the watch command.
type WatchConfig struct {
	DebounceMS int `json:"debounce_ms,omitempty" yaml:"debounce_ms,omitempty" toml:"debounce_ms,omitempty"`
}
