package convert

import (
	"github.com/kamachkin/Moodle-XML-generator/internal/answers"
	"github.com/kamachkin/Moodle-XML-generator/internal/assets"
	"github.com/kamachkin/Moodle-XML-generator/internal/moodle"
)

// Status describes what a run will do, or did, with a task.
type Status string

const (
	StatusReady         Status = "ready"
	StatusMissingAnswer Status = "missing-answer"
	StatusMissingImages Status = "missing-images"
	StatusFailed        Status = "failed"
)

// Task is one discovered task number with everything located for it.
type Task struct {
	Number    int
	Answer    string
	HasAnswer bool
	Images    []assets.File
	Auxiliary []assets.File
}

// Status reports whether the task can be turned into a question.
func (t Task) Status() Status {
	switch {
	case !t.HasAnswer:
		return StatusMissingAnswer
	case len(t.Images) == 0:
		return StatusMissingImages
	default:
		return StatusReady
	}
}

// Input converts the task into question composition input.
func (t Task) Input() moodle.Input {
	in := moodle.Input{Task: t.Number, Answer: t.Answer}
	for _, f := range t.Images {
		in.Images = append(in.Images, f.Path)
	}
	for _, f := range t.Auxiliary {
		in.Attachments = append(in.Attachments, f.Path)
	}
	return in
}

// Plan is the correlation of a directory with an answer key.
type Plan struct {
	Dir              string
	AnswersPath      string
	AnswerKeyMissing bool
	Answers          *answers.Key
	Tasks            []Task
}

// Numbers returns the discovered task numbers, ascending.
func (p *Plan) Numbers() []int {
	numbers := make([]int, len(p.Tasks))
	for i, t := range p.Tasks {
		numbers[i] = t.Number
	}
	return numbers
}

// Ready returns the tasks that have both an answer and at least one image.
func (p *Plan) Ready() []Task {
	var ready []Task
	for _, t := range p.Tasks {
		if t.Status() == StatusReady {
			ready = append(ready, t)
		}
	}
	return ready
}

// Failure is a task skipped because its assets could not be embedded.
type Failure struct {
	Task int
	Err  error
}

// Summary is the outcome of a run.
type Summary struct {
	Output           string
	Category         string
	Discovered       []int
	Answers          int
	AnswerKeyMissing bool
	Processed        []Task
	MissingAnswers   []int
	MissingImages    []int
	Failed           []Failure
	Written          bool
}

// Questions returns the number of questions in the written document.
func (s *Summary) Questions() int {
	return len(s.Processed)
}

// Attachments returns the number of attachments embedded across all questions.
func (s *Summary) Attachments() int {
	n := 0
	for _, t := range s.Processed {
		n += len(t.Auxiliary)
	}
	return n
}
