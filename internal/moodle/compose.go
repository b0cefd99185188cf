package moodle

import (
	"encoding/base64"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
)

// PluginFilePrefix is how question HTML refers to embedded files.
const PluginFilePrefix = "@@PLUGINFILE@@/"

// Settings control the question text and grading of composed questions.
type Settings struct {
	NameFormat      string  // fmt pattern receiving the task number
	DefaultGrade    float64 // points for a correct answer
	Penalty         float64 // fraction deducted per wrong attempt
	CorrectFeedback string  // shown when the answer matches
	CaseSensitive   bool
}

// Default question settings.
const (
	DefaultNameFormat      = "Задание %d"
	DefaultGrade           = 1.0
	DefaultPenalty         = 0.33
	DefaultCorrectFeedback = "Правильно!"
)

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		NameFormat:      DefaultNameFormat,
		DefaultGrade:    DefaultGrade,
		Penalty:         DefaultPenalty,
		CorrectFeedback: DefaultCorrectFeedback,
	}
}

// Input is everything needed to compose one task question.
type Input struct {
	Task        int
	Images      []string // paths, in display order
	Attachments []string // paths, in display order
	Answer      string
}

// ReadFunc reads an asset payload.
type ReadFunc func(path string) ([]byte, error)

// AssetError reports an asset that could not be read.
type AssetError struct {
	Path string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

// Compose builds the shortanswer question for one task, embedding every image
// and attachment. A nil read uses os.ReadFile.
func (s Settings) Compose(in Input, read ReadFunc) (Question, error) {
	if read == nil {
		read = os.ReadFile
	}

	name := s.Name(in.Task)

	var files []File
	for _, path := range append(append([]string{}, in.Images...), in.Attachments...) {
		data, err := read(path)
		if err != nil {
			return Question{}, &AssetError{Path: path, Err: err}
		}
		files = append(files, File{
			Name:     filepath.Base(path),
			Encoding: "base64",
			Data:     base64.StdEncoding.EncodeToString(data),
		})
	}

	usecase := "0"
	if s.CaseSensitive {
		usecase = "1"
	}

	return Question{
		Type: TypeShortAnswer,
		Name: &Text{Text: name},
		QuestionText: &RichText{
			Format: FormatHTML,
			Text:   s.body(in, name),
			Files:  files,
		},
		GeneralFeedback: &RichText{
			Format: FormatHTML,
			Text:   "Правильный ответ: " + html.EscapeString(in.Answer),
		},
		DefaultGrade: FormatGrade(s.DefaultGrade),
		Penalty:      FormatGrade(s.Penalty),
		Hidden:       "0",
		UseCase:      usecase,
		Answers: []Answer{{
			Fraction: "100",
			Text:     in.Answer,
			Feedback: &RichText{
				Format: FormatHTML,
				Text:   s.CorrectFeedback,
			},
		}},
	}, nil
}

// Name returns the question name for a task.
func (s Settings) Name(task int) string {
	format := s.NameFormat
	if format == "" {
		format = DefaultNameFormat
	}
	return fmt.Sprintf(format, task)
}

func (s Settings) body(in Input, name string) string {
	var b strings.Builder
	alt := html.EscapeString(name)

	if len(in.Images) == 1 {
		fmt.Fprintf(&b, `<p><img src="%s" alt="%s" style="max-width: 100%%;" /></p>`,
			pluginURL(in.Images[0]), alt)
	} else {
		fmt.Fprintf(&b, `<p><strong>%s (несколько частей):</strong></p>`, alt)
		for i, path := range in.Images {
			fmt.Fprintf(&b, `<p>Часть %d:<br><img src="%s" alt="%s - часть %d" style="max-width: 100%%;" /></p>`,
				i+1, pluginURL(path), alt, i+1)
		}
	}

	if len(in.Attachments) > 0 {
		b.WriteString(`<p><strong>Дополнительные файлы для скачивания:</strong></p><ul>`)
		for _, path := range in.Attachments {
			base := filepath.Base(path)
			fmt.Fprintf(&b, `<li><a href="%s">%s</a></li>`, pluginURL(path), html.EscapeString(base))
		}
		b.WriteString(`</ul>`)
	}

	return b.String()
}

func pluginURL(path string) string {
	return html.EscapeString(PluginFilePrefix + filepath.Base(path))
}
