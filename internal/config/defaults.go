package config

import (
	"time"

	"github.com/kamachkin/Moodle-XML-generator/internal/assets"
	"github.com/kamachkin/Moodle-XML-generator/internal/convert"
	"github.com/kamachkin/Moodle-XML-generator/internal/moodle"
)

// Default configuration values.
const (
	DefaultAnswers         = convert.DefaultAnswersFile
	DefaultOutput          = convert.DefaultOutputFile
	DefaultCategory        = convert.DefaultCategory
	DefaultAnswersEncoding = "auto"
	DefaultDebounceMS      = 500
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	applyPathDefaults(cfg)
	applyExtensionDefaults(cfg)
	applyQuestionDefaults(cfg)
	applyWatchDefaults(cfg)
}

func applyPathDefaults(cfg *Config) {
	if cfg.Answers == "" {
		cfg.Answers = DefaultAnswers
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if cfg.Category == "" {
		cfg.Category = DefaultCategory
	}
	if cfg.AnswersEncoding == "" {
		cfg.AnswersEncoding = DefaultAnswersEncoding
	}
}

func applyExtensionDefaults(cfg *Config) {
	if cfg.Extensions == nil {
		cfg.Extensions = &ExtensionsConfig{}
	}
	if len(cfg.Extensions.Images) == 0 {
		cfg.Extensions.Images = append([]string(nil), assets.DefaultImageExtensions...)
	}
	if len(cfg.Extensions.Auxiliary) == 0 {
		cfg.Extensions.Auxiliary = append([]string(nil), assets.DefaultAuxiliaryExtensions...)
	}
}

func applyQuestionDefaults(cfg *Config) {
	if cfg.Question == nil {
		cfg.Question = &QuestionConfig{}
	}
	q := cfg.Question
	if q.NameFormat == "" {
		q.NameFormat = moodle.DefaultNameFormat
	}
	if q.DefaultGrade == nil {
		grade := moodle.DefaultGrade
		q.DefaultGrade = &grade
	}
	if q.Penalty == nil {
		penalty := moodle.DefaultPenalty
		q.Penalty = &penalty
	}
	if q.CorrectFeedback == "" {
		q.CorrectFeedback = moodle.DefaultCorrectFeedback
	}
}

func applyWatchDefaults(cfg *Config) {
	if cfg.Watch == nil {
		cfg.Watch = &WatchConfig{}
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = DefaultDebounceMS
	}
}

// QuestionSettings returns the question settings of a defaulted config.
func (c *Config) QuestionSettings() moodle.Settings {
	s := moodle.DefaultSettings()
	if c.Question == nil {
		return s
	}
	if c.Question.NameFormat != "" {
		s.NameFormat = c.Question.NameFormat
	}
	if c.Question.DefaultGrade != nil {
		s.DefaultGrade = *c.Question.DefaultGrade
	}
	if c.Question.Penalty != nil {
		s.Penalty = *c.Question.Penalty
	}
	if c.Question.CorrectFeedback != "" {
		s.CorrectFeedback = c.Question.CorrectFeedback
	}
	s.CaseSensitive = c.Question.CaseSensitive
	return s
}

// Debounce returns the watch debounce interval.
func (c *Config) Debounce() time.Duration {
	if c.Watch == nil || c.Watch.DebounceMS <= 0 {
		return DefaultDebounceMS * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}
