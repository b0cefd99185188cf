package config

import (
	"fmt"
	"strings"

	"github.com/kamachkin/Moodle-XML-generator/internal/answers"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a defaulted configuration for errors and returns warnings for
// non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if err := validatePaths(cfg); err != nil {
		return nil, err
	}

	if err := validateQuestion(cfg.Question); err != nil {
		return nil, err
	}

	if cfg.Watch != nil && cfg.Watch.DebounceMS < 0 {
		return nil, &ValidationError{Field: "watch.debounce_ms", Message: "must not be negative"}
	}

	if cfg.Extensions != nil {
		warnings = append(warnings, overlappingExtensions(cfg.Extensions)...)
	}

	return warnings, nil
}

func validatePaths(cfg *Config) error {
	if strings.TrimSpace(cfg.Category) == "" {
		return &ValidationError{Field: "category", Message: "is required"}
	}
	if strings.Contains(cfg.Category, "$course$") {
		return &ValidationError{Field: "category", Message: "must not include the $course$/top/ prefix"}
	}
	if _, ok := answers.ParseEncoding(cfg.AnswersEncoding); !ok {
		return &ValidationError{
			Field:   "answers_encoding",
			Message: "must be one of " + strings.Join(answers.ValidEncodings(), ", "),
		}
	}
	if cfg.Answers != "" && cfg.Answers == cfg.Output {
		return &ValidationError{Field: "output", Message: "must differ from answers"}
	}
	return nil
}

func validateQuestion(q *QuestionConfig) error {
	if q == nil {
		return nil
	}
	if q.NameFormat != "" {
		if err := ValidateNameFormat(q.NameFormat); err != nil {
			return err
		}
	}
	if q.DefaultGrade != nil && *q.DefaultGrade < 0 {
		return &ValidationError{Field: "question.default_grade", Message: "must not be negative"}
	}
	if q.Penalty != nil && (*q.Penalty < 0 || *q.Penalty > 1) {
		return &ValidationError{Field: "question.penalty", Message: "must be between 0 and 1"}
	}
	return nil
}

// ValidateNameFormat checks that a question name template has exactly one %d
// verb and no other formatting verbs.
func ValidateNameFormat(format string) error {
	escaped := strings.ReplaceAll(format, "%%", "")
	if strings.Count(escaped, "%d") != 1 || strings.Count(escaped, "%") != 1 {
		return &ValidationError{
			Field:   "question.name_format",
			Message: "must contain exactly one %d and no other verbs",
		}
	}
	return nil
}

func overlappingExtensions(ext *ExtensionsConfig) []string {
	images := make(map[string]bool, len(ext.Images))
	for _, e := range ext.Images {
		images[normalizeExt(e)] = true
	}

	var warnings []string
	for _, e := range ext.Auxiliary {
		if images[normalizeExt(e)] {
			warnings = append(warnings, fmt.Sprintf("extension %q is listed as both image and auxiliary; it is treated as an image", e))
		}
	}
	return warnings
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
