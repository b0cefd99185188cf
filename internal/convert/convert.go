// Package convert turns a directory of task assets and an answer key into a
// Moodle XML question bank.
//
// A run is single-threaded: the directory is listed once, the answer key read
// once, then every task is composed in ascending order and the document is
// written. Tasks that cannot be composed are skipped and reported; only
// failures that prevent producing the document abort the run.
package convert

import (
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kamachkin/Moodle-XML-generator/internal/answers"
	"github.com/kamachkin/Moodle-XML-generator/internal/assets"
	"github.com/kamachkin/Moodle-XML-generator/internal/errors"
	"github.com/kamachkin/Moodle-XML-generator/internal/moodle"
)

// Defaults for Options.
const (
	DefaultAnswersFile = "answers.txt"
	DefaultOutputFile  = "questions.xml"
	DefaultCategory    = "ЕГЭ Задания"
)

// Options configure a conversion. Relative paths resolve against Dir.
type Options struct {
	Dir                 string
	AnswersPath         string
	OutputPath          string
	Category            string
	AnswersEncoding     answers.Encoding
	ImageExtensions     []string
	AuxiliaryExtensions []string
	Question            moodle.Settings

	Reporter Reporter
	Logger   *slog.Logger
}

// Converter runs conversions with fixed options.
type Converter struct {
	opts     Options
	reporter Reporter
	logger   *slog.Logger
	read     moodle.ReadFunc
}

// New returns a Converter, filling unset options with defaults.
func New(opts Options) *Converter {
	if opts.Dir == "" {
		opts.Dir = "."
	}
	if opts.AnswersPath == "" {
		opts.AnswersPath = DefaultAnswersFile
	}
	if opts.OutputPath == "" {
		opts.OutputPath = DefaultOutputFile
	}
	if opts.Category == "" {
		opts.Category = DefaultCategory
	}
	if opts.Question == (moodle.Settings{}) {
		opts.Question = moodle.DefaultSettings()
	}
	opts.AnswersPath = resolve(opts.Dir, opts.AnswersPath)
	opts.OutputPath = resolve(opts.Dir, opts.OutputPath)

	reporter := opts.Reporter
	if reporter == nil {
		reporter = NopReporter{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Converter{
		opts:     opts,
		reporter: reporter,
		logger:   logger,
		read:     os.ReadFile,
	}
}

// Options returns the effective options.
func (c *Converter) Options() Options {
	return c.opts
}

// Plan lists the directory, loads the answer key and correlates them without
// reading any payloads.
func (c *Converter) Plan() (*Plan, error) {
	c.logger.Info("plan.start", "dir", c.opts.Dir, "answers", c.opts.AnswersPath)

	key, keyMissing, err := c.loadAnswers()
	if err != nil {
		return nil, err
	}

	ix, err := assets.Scan(c.opts.Dir, assets.Options{
		ImageExtensions:     c.opts.ImageExtensions,
		AuxiliaryExtensions: c.opts.AuxiliaryExtensions,
		Exclude:             c.excluded(),
		Logger:              c.logger,
	})
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Dir:              c.opts.Dir,
		AnswersPath:      c.opts.AnswersPath,
		AnswerKeyMissing: keyMissing,
		Answers:          key,
	}

	tasks := ix.Tasks()
	c.reporter.TasksDiscovered(tasks)

	for _, n := range tasks {
		t := Task{Number: n}
		t.Answer, t.HasAnswer = key.Lookup(n)
		t.Images = ix.Images(n)
		if t.HasAnswer && len(t.Images) > 0 {
			t.Auxiliary = ix.Auxiliary(n)
		}
		plan.Tasks = append(plan.Tasks, t)
	}

	c.logger.Info("plan.done", "tasks", len(plan.Tasks), "answers", key.Len(), "files", ix.Len())
	return plan, nil
}

// Run performs a full conversion and writes the output document.
// The returned error is non-nil only when the document could not be produced.
func (c *Converter) Run() (*Summary, error) {
	plan, err := c.Plan()
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Output:           c.opts.OutputPath,
		Category:         c.opts.Category,
		Discovered:       plan.Numbers(),
		AnswerKeyMissing: plan.AnswerKeyMissing,
		Answers:          plan.Answers.Len(),
	}

	quiz := moodle.NewQuiz(c.opts.Category)

	for _, t := range plan.Tasks {
		switch t.Status() {
		case StatusMissingAnswer:
			summary.MissingAnswers = append(summary.MissingAnswers, t.Number)
			c.reporter.TaskSkipped(t.Number, StatusMissingAnswer, nil)
			continue
		case StatusMissingImages:
			summary.MissingImages = append(summary.MissingImages, t.Number)
			c.reporter.TaskSkipped(t.Number, StatusMissingImages, nil)
			continue
		}

		for _, f := range t.Auxiliary {
			c.reporter.AttachmentFound(t.Number, f.Name)
		}

		question, err := c.opts.Question.Compose(t.Input(), c.read)
		if err != nil {
			err = assetError(t.Number, err)
			c.logger.Warn("task.failed", "task", t.Number, "error", err)
			summary.Failed = append(summary.Failed, Failure{Task: t.Number, Err: err})
			c.reporter.TaskSkipped(t.Number, StatusFailed, err)
			continue
		}

		quiz.Add(question)
		summary.Processed = append(summary.Processed, t)
		c.reporter.TaskProcessed(t)
	}

	if plan.Answers.Len() == 0 {
		c.logger.Warn("run.no_answers", "answers", c.opts.AnswersPath)
		c.reporter.Finished(summary)
		return summary, nil
	}

	if err := quiz.WriteFile(c.opts.OutputPath); err != nil {
		return summary, errors.Wrap(err, "failed to write "+c.opts.OutputPath)
	}
	summary.Written = true
	c.logger.Info("run.done", "output", c.opts.OutputPath, "questions", quiz.Len())

	c.reporter.Finished(summary)
	return summary, nil
}

// loadAnswers reads the key file, recovering a missing file as an empty key.
func (c *Converter) loadAnswers() (*answers.Key, bool, error) {
	key, err := answers.Load(c.opts.AnswersPath, answers.Options{
		Encoding: c.opts.AnswersEncoding,
		Logger:   c.logger,
	})
	if err != nil {
		if errors.IsKind(err, errors.KindNotFound) {
			c.logger.Warn("answers.missing", "path", c.opts.AnswersPath)
			c.reporter.AnswerKeyMissing(c.opts.AnswersPath)
			return &answers.Key{Answers: map[int]string{}}, true, nil
		}
		return nil, false, err
	}

	for _, e := range key.Entries {
		c.reporter.AnswerFound(e.Task, e.Answer)
	}
	for _, s := range key.Skipped {
		c.reporter.AnswerLineSkipped(s.Line, s.Text, s.Reason)
	}
	c.reporter.AnswersLoaded(c.opts.AnswersPath, key.Len())
	return key, false, nil
}

// excluded names the files in Dir that must never be treated as assets.
func (c *Converter) excluded() []string {
	var names []string
	for _, p := range []string{c.opts.AnswersPath, c.opts.OutputPath} {
		if filepath.Clean(filepath.Dir(p)) == filepath.Clean(c.opts.Dir) {
			names = append(names, filepath.Base(p))
		}
	}
	return names
}

func assetError(task int, err error) error {
	var ae *moodle.AssetError
	if stderrors.As(err, &ae) {
		return errors.Asset(task, ae.Path, ae.Err)
	}
	return err
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
