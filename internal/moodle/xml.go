// Package moodle builds Moodle XML question-bank documents.
package moodle

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Question types.
const (
	TypeCategory    = "category"
	TypeShortAnswer = "shortanswer"
)

// FormatHTML marks text elements holding HTML.
const FormatHTML = "html"

// CategoryPrefix is prepended to category names.
const CategoryPrefix = "$course$/top/"

// Quiz is the document root.
type Quiz struct {
	XMLName   xml.Name   `xml:"quiz"`
	Questions []Question `xml:"question"`
}

// Question is one question element. Category questions only carry Category.
type Question struct {
	Type            string    `xml:"type,attr"`
	Category        *Text     `xml:"category,omitempty"`
	Name            *Text     `xml:"name,omitempty"`
	QuestionText    *RichText `xml:"questiontext,omitempty"`
	GeneralFeedback *RichText `xml:"generalfeedback,omitempty"`
	DefaultGrade    string    `xml:"defaultgrade,omitempty"`
	Penalty         string    `xml:"penalty,omitempty"`
	Hidden          string    `xml:"hidden,omitempty"`
	UseCase         string    `xml:"usecase,omitempty"`
	Answers         []Answer  `xml:"answer"`
}

// Text is an element wrapping a single text child.
type Text struct {
	Text string `xml:"text"`
}

// RichText is a formatted text element with optional embedded files.
type RichText struct {
	Format string `xml:"format,attr,omitempty"`
	Text   string `xml:"text"`
	Files  []File `xml:"file"`
}

// File is an embedded base64 payload referenced as @@PLUGINFILE@@/<Name>.
type File struct {
	Name     string `xml:"name,attr"`
	Encoding string `xml:"encoding,attr"`
	Data     string `xml:",chardata"`
}

// Answer is one accepted answer.
type Answer struct {
	Fraction string    `xml:"fraction,attr"`
	Text     string    `xml:"text"`
	Feedback *RichText `xml:"feedback,omitempty"`
}

// NewQuiz returns a quiz holding only the category declaration.
func NewQuiz(category string) *Quiz {
	return &Quiz{Questions: []Question{NewCategory(category)}}
}

// NewCategory returns a category question for $course$/top/<name>.
func NewCategory(name string) Question {
	return Question{
		Type:     TypeCategory,
		Category: &Text{Text: CategoryPrefix + name},
	}
}

// Add appends a question.
func (q *Quiz) Add(question Question) {
	q.Questions = append(q.Questions, question)
}

// Len returns the number of non-category questions.
func (q *Quiz) Len() int {
	n := 0
	for _, question := range q.Questions {
		if question.Type != TypeCategory {
			n++
		}
	}
	return n
}

// Encode writes the XML declaration followed by the document indented with two spaces.
func (q *Quiz) Encode(w io.Writer) error {
	data, err := xml.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode quiz: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// WriteFile encodes the quiz to path, replacing the file only once encoding succeeded.
func (q *Quiz) WriteFile(path string) error {
	var buf bytes.Buffer
	if err := q.Encode(&buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// FormatGrade renders a grade with at least one decimal place (1 -> "1.0").
func FormatGrade(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
