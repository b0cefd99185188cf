package convert

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"golang.org/x/text/unicode/norm"

	"github.com/kamachkin/Moodle-XML-generator/internal/errors"
	"github.com/kamachkin/Moodle-XML-generator/internal/moodle"
)

// recorder captures reporter events as strings.
type recorder struct {
	NopReporter
	events []string
}

func (r *recorder) AnswerKeyMissing(path string) {
	r.events = append(r.events, "missing-key "+filepath.Base(path))
}

func (r *recorder) AnswerLineSkipped(line int, text, reason string) {
	r.events = append(r.events, fmt.Sprintf("skip-line %d %s", line, reason))
}

func (r *recorder) TaskProcessed(t Task) {
	r.events = append(r.events, fmt.Sprintf("processed %d", t.Number))
}

func (r *recorder) TaskSkipped(task int, status Status, err error) {
	r.events = append(r.events, fmt.Sprintf("skipped %d %s", task, status))
}

func (r *recorder) Finished(s *Summary) {
	r.events = append(r.events, "finished")
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func readQuiz(t *testing.T, path string) moodle.Quiz {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var quiz moodle.Quiz
	if err := xml.Unmarshal(data, &quiz); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	return quiz
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"5.png":       "five",
		"5_A.png":     "five-a",
		"6.png":       "six",
		"answers.txt": "5:10\n6 - blue\n",
	})

	rec := &recorder{}
	summary, err := New(Options{Dir: dir, Category: "Test", Reporter: rec}).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !summary.Written {
		t.Fatal("Written = false, want true")
	}
	if summary.Output != filepath.Join(dir, DefaultOutputFile) {
		t.Errorf("Output = %q", summary.Output)
	}
	if got := summary.Questions(); got != 2 {
		t.Errorf("Questions() = %d, want 2", got)
	}

	quiz := readQuiz(t, summary.Output)
	if len(quiz.Questions) != 3 {
		t.Fatalf("document has %d questions, want category + 2", len(quiz.Questions))
	}
	if c := quiz.Questions[0]; c.Type != moodle.TypeCategory || c.Category.Text != "$course$/top/Test" {
		t.Errorf("first question = %+v, want category $course$/top/Test", c)
	}

	q5, q6 := quiz.Questions[1], quiz.Questions[2]
	if q5.Name.Text != "Задание 5" || q6.Name.Text != "Задание 6" {
		t.Errorf("names = %q, %q", q5.Name.Text, q6.Name.Text)
	}
	if q5.Answers[0].Text != "10" || q6.Answers[0].Text != "blue" {
		t.Errorf("answers = %q, %q", q5.Answers[0].Text, q6.Answers[0].Text)
	}

	var files []string
	for _, f := range q5.QuestionText.Files {
		files = append(files, f.Name)
	}
	if want := []string{"5.png", "5_A.png"}; !reflect.DeepEqual(files, want) {
		t.Errorf("task 5 files = %v, want %v", files, want)
	}
	if !strings.Contains(q5.QuestionText.Text, "несколько частей") {
		t.Error("task 5 should render as multi-part")
	}

	wantEvents := []string{"processed 5", "processed 6", "finished"}
	if !reflect.DeepEqual(rec.events, wantEvents) {
		t.Errorf("events = %v, want %v", rec.events, wantEvents)
	}
}

func TestRun_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"answers.txt": "1:a\n"})

	summary, err := New(Options{Dir: dir}).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(summary.Discovered) != 0 || summary.Questions() != 0 {
		t.Errorf("summary = %+v, want nothing discovered", summary)
	}

	quiz := readQuiz(t, summary.Output)
	if len(quiz.Questions) != 1 || quiz.Questions[0].Category.Text != "$course$/top/"+DefaultCategory {
		t.Errorf("document = %+v, want only the default category", quiz.Questions)
	}
}

func TestRun_SkipsIncompleteTasks(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"1.png":         "one",
		"2.png":         "two",
		"Задание3.png":  "three", // names task 3 but is not a locatable image
		"answers.txt":   "1:a\n3:c\n",
		"4.txt":         "no image",
		"questions.xml": "stale",
	})

	rec := &recorder{}
	summary, err := New(Options{Dir: dir, Reporter: rec}).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if want := []int{1, 2, 3}; !reflect.DeepEqual(summary.Discovered, want) {
		t.Errorf("Discovered = %v, want %v", summary.Discovered, want)
	}
	if want := []int{2}; !reflect.DeepEqual(summary.MissingAnswers, want) {
		t.Errorf("MissingAnswers = %v, want %v", summary.MissingAnswers, want)
	}
	if want := []int{3}; !reflect.DeepEqual(summary.MissingImages, want) {
		t.Errorf("MissingImages = %v, want %v", summary.MissingImages, want)
	}

	quiz := readQuiz(t, summary.Output)
	if quiz.Len() != 1 || quiz.Questions[1].Name.Text != "Задание 1" {
		t.Errorf("document questions = %+v, want only task 1", quiz.Questions)
	}

	wantEvents := []string{
		"processed 1",
		"skipped 2 missing-answer",
		"skipped 3 missing-images",
		"finished",
	}
	if !reflect.DeepEqual(rec.events, wantEvents) {
		t.Errorf("events = %v, want %v", rec.events, wantEvents)
	}
}

func TestRun_AssetReadFailureSkipsOnlyThatTask(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"1.png":       "one",
		"2.png":       "two",
		"answers.txt": "1:a\n2:b\n",
	})

	c := New(Options{Dir: dir})
	c.read = func(path string) ([]byte, error) {
		if filepath.Base(path) == "1.png" {
			return nil, os.ErrPermission
		}
		return os.ReadFile(path)
	}

	summary, err := c.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(summary.Failed) != 1 || summary.Failed[0].Task != 1 {
		t.Fatalf("Failed = %+v, want task 1", summary.Failed)
	}
	if !errors.IsKind(summary.Failed[0].Err, errors.KindAsset) {
		t.Errorf("failure kind = %v, want asset error", summary.Failed[0].Err)
	}

	quiz := readQuiz(t, summary.Output)
	if quiz.Len() != 1 || quiz.Questions[1].Name.Text != "Задание 2" {
		t.Errorf("document questions = %+v, want only task 2", quiz.Questions)
	}
}

func TestRun_MissingAnswerKey(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"1.png": "one"})

	rec := &recorder{}
	summary, err := New(Options{Dir: dir, Reporter: rec}).Run()
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}

	if !summary.AnswerKeyMissing {
		t.Error("AnswerKeyMissing = false, want true")
	}
	if summary.Written {
		t.Error("Written = true, want no output without answers")
	}
	if _, err := os.Stat(summary.Output); !os.IsNotExist(err) {
		t.Errorf("output exists (stat err = %v), want none", err)
	}
	if len(rec.events) == 0 || rec.events[0] != "missing-key answers.txt" {
		t.Errorf("events = %v, want missing-key first", rec.events)
	}
}

func TestRun_ReportsUnresolvedAnswerLines(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"1.png":       "one",
		"answers.txt": "# header\n1:a\nfoo:bar\n",
	})

	rec := &recorder{}
	if _, err := New(Options{Dir: dir, Reporter: rec}).Run(); err != nil {
		t.Fatal(err)
	}

	if rec.events[0] != "skip-line 3 identifier does not name a task" {
		t.Errorf("events = %v, want skipped line 3 first", rec.events)
	}
}

func TestRun_CustomPaths(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"7.png":   "seven",
		"key.txt": "7:x\n",
	})
	out := filepath.Join(outDir, "bank.xml")

	summary, err := New(Options{Dir: dir, AnswersPath: "key.txt", OutputPath: out}).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Output != out || !summary.Written {
		t.Errorf("Output = %q written = %v", summary.Output, summary.Written)
	}
	if q := readQuiz(t, out); q.Len() != 1 {
		t.Error("want one question in custom output")
	}
}

func TestRun_AnswerWrittenVerbatim(t *testing.T) {
	dir := t.TempDir()
	answer := norm.NFD.String("йод")
	writeFiles(t, dir, map[string]string{
		"1.png":       "one",
		"answers.txt": "1: " + answer + "\n",
	})

	summary, err := New(Options{Dir: dir}).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	quiz := readQuiz(t, summary.Output)
	if got := quiz.Questions[1].Answers[0].Text; got != answer {
		t.Errorf("answer text = % x, want % x", got, answer)
	}
	data, err := os.ReadFile(summary.Output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "<text>"+answer+"</text>") {
		t.Error("document does not carry the decomposed answer byte for byte")
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	_, err := New(Options{Dir: filepath.Join(t.TempDir(), "absent")}).Run()
	if err == nil {
		t.Fatal("Run() error = nil, want error")
	}
	if errors.GetExitCode(err) != errors.ExitRuntimeError {
		t.Errorf("exit code = %d, want %d", errors.GetExitCode(err), errors.ExitRuntimeError)
	}
}

func TestPlan_Statuses(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"1.png":       "one",
		"1.csv":       "a,b",
		"2.png":       "two",
		"answers.txt": "1:a\n",
	})

	plan, err := New(Options{Dir: dir}).Plan()
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if len(plan.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(plan.Tasks))
	}
	if s := plan.Tasks[0].Status(); s != StatusReady {
		t.Errorf("task 1 status = %s, want ready", s)
	}
	if s := plan.Tasks[1].Status(); s != StatusMissingAnswer {
		t.Errorf("task 2 status = %s, want missing-answer", s)
	}
	if len(plan.Tasks[0].Auxiliary) != 1 || plan.Tasks[0].Auxiliary[0].Name != "1.csv" {
		t.Errorf("task 1 auxiliary = %+v", plan.Tasks[0].Auxiliary)
	}
	if ready := plan.Ready(); len(ready) != 1 || ready[0].Number != 1 {
		t.Errorf("Ready() = %+v", ready)
	}
}

func TestSummary_Attachments(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"3.png":       "img",
		"3.txt":       "t",
		"3_B.zip":     "z",
		"answers.txt": "3 - ok\n",
	})

	summary, err := New(Options{Dir: dir}).Run()
	if err != nil {
		t.Fatal(err)
	}
	if summary.Attachments() != 2 {
		t.Errorf("Attachments() = %d, want 2", summary.Attachments())
	}
}
