package moodle

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAsset(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCompose_SingleImage(t *testing.T) {
	dir := t.TempDir()
	img := writeAsset(t, dir, "6.png", []byte{0x89, 'P', 'N', 'G'})

	q, err := DefaultSettings().Compose(Input{Task: 6, Images: []string{img}, Answer: "blue"}, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	if q.Type != TypeShortAnswer {
		t.Errorf("Type = %q, want %q", q.Type, TypeShortAnswer)
	}
	if q.Name.Text != "Задание 6" {
		t.Errorf("Name = %q, want %q", q.Name.Text, "Задание 6")
	}
	wantBody := `<p><img src="@@PLUGINFILE@@/6.png" alt="Задание 6" style="max-width: 100%;" /></p>`
	if q.QuestionText.Text != wantBody {
		t.Errorf("body = %q, want %q", q.QuestionText.Text, wantBody)
	}
	if q.QuestionText.Format != FormatHTML {
		t.Errorf("Format = %q, want html", q.QuestionText.Format)
	}
	if len(q.QuestionText.Files) != 1 || q.QuestionText.Files[0].Name != "6.png" {
		t.Fatalf("Files = %+v, want one 6.png", q.QuestionText.Files)
	}
	if q.GeneralFeedback.Text != "Правильный ответ: blue" {
		t.Errorf("GeneralFeedback = %q", q.GeneralFeedback.Text)
	}
	if q.DefaultGrade != "1.0" || q.Penalty != "0.33" || q.Hidden != "0" || q.UseCase != "0" {
		t.Errorf("grading = %q %q %q %q, want 1.0 0.33 0 0", q.DefaultGrade, q.Penalty, q.Hidden, q.UseCase)
	}
	if len(q.Answers) != 1 {
		t.Fatalf("len(Answers) = %d, want 1", len(q.Answers))
	}
	a := q.Answers[0]
	if a.Fraction != "100" || a.Text != "blue" || a.Feedback.Text != "Правильно!" {
		t.Errorf("Answer = %+v", a)
	}
}

func TestCompose_MultiPart(t *testing.T) {
	dir := t.TempDir()
	first := writeAsset(t, dir, "5.png", []byte("one"))
	second := writeAsset(t, dir, "5_A.png", []byte("two"))

	q, err := DefaultSettings().Compose(Input{Task: 5, Images: []string{first, second}, Answer: "10"}, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	body := q.QuestionText.Text
	for _, want := range []string{
		"<p><strong>Задание 5 (несколько частей):</strong></p>",
		`<p>Часть 1:<br><img src="@@PLUGINFILE@@/5.png" alt="Задание 5 - часть 1"`,
		`<p>Часть 2:<br><img src="@@PLUGINFILE@@/5_A.png" alt="Задание 5 - часть 2"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q\nbody: %s", want, body)
		}
	}
	if strings.Index(body, "5.png") > strings.Index(body, "5_A.png") {
		t.Error("part 1 must render before part 2")
	}

	gotNames := []string{q.QuestionText.Files[0].Name, q.QuestionText.Files[1].Name}
	if gotNames[0] != "5.png" || gotNames[1] != "5_A.png" {
		t.Errorf("file order = %v, want [5.png 5_A.png]", gotNames)
	}
}

func TestCompose_Attachments(t *testing.T) {
	dir := t.TempDir()
	img := writeAsset(t, dir, "4.png", []byte("img"))
	csv := writeAsset(t, dir, "4.csv", []byte("a,b\n1,2\n"))
	txt := writeAsset(t, dir, "4_A.txt", []byte("notes"))

	q, err := DefaultSettings().Compose(Input{
		Task:        4,
		Images:      []string{img},
		Attachments: []string{csv, txt},
		Answer:      "3",
	}, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	body := q.QuestionText.Text
	wantList := `<p><strong>Дополнительные файлы для скачивания:</strong></p><ul>` +
		`<li><a href="@@PLUGINFILE@@/4.csv">4.csv</a></li>` +
		`<li><a href="@@PLUGINFILE@@/4_A.txt">4_A.txt</a></li></ul>`
	if !strings.HasSuffix(body, wantList) {
		t.Errorf("body = %q, want suffix %q", body, wantList)
	}
	if len(q.QuestionText.Files) != 3 {
		t.Errorf("len(Files) = %d, want 3", len(q.QuestionText.Files))
	}
}

func TestCompose_PayloadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	payloads := map[string][]byte{
		"9.png":   bytes.Repeat([]byte{0x00, 0xFF, 0x10}, 1000),
		"9_B.jpg": []byte("jpeg bytes"),
		"9.zip":   {'P', 'K', 0x03, 0x04},
	}
	paths := map[string]string{}
	for name, data := range payloads {
		paths[name] = writeAsset(t, dir, name, data)
	}

	q, err := DefaultSettings().Compose(Input{
		Task:        9,
		Images:      []string{paths["9.png"], paths["9_B.jpg"]},
		Attachments: []string{paths["9.zip"]},
		Answer:      "x",
	}, nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	for _, f := range q.QuestionText.Files {
		if f.Encoding != "base64" {
			t.Errorf("%s: Encoding = %q", f.Name, f.Encoding)
		}
		decoded, err := base64.StdEncoding.DecodeString(f.Data)
		if err != nil {
			t.Fatalf("%s: decode: %v", f.Name, err)
		}
		if !bytes.Equal(decoded, payloads[f.Name]) {
			t.Errorf("%s: decoded payload differs from source", f.Name)
		}
	}
}

func TestCompose_ReadFailure(t *testing.T) {
	read := func(path string) ([]byte, error) {
		return nil, fs.ErrNotExist
	}

	_, err := DefaultSettings().Compose(Input{Task: 1, Images: []string{"gone/1.png"}, Answer: "a"}, read)

	var assetErr *AssetError
	if !errors.As(err, &assetErr) {
		t.Fatalf("Compose() error = %v, want *AssetError", err)
	}
	if assetErr.Path != "gone/1.png" {
		t.Errorf("Path = %q", assetErr.Path)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("error should wrap fs.ErrNotExist")
	}
}

func TestCompose_CustomSettings(t *testing.T) {
	s := Settings{
		NameFormat:      "Task #%d",
		DefaultGrade:    2,
		Penalty:         0.5,
		CorrectFeedback: "Correct",
		CaseSensitive:   true,
	}
	read := func(string) ([]byte, error) { return []byte("x"), nil }

	q, err := s.Compose(Input{Task: 3, Images: []string{"3.png"}, Answer: "Yes"}, read)
	if err != nil {
		t.Fatal(err)
	}

	if q.Name.Text != "Task #3" || q.DefaultGrade != "2.0" || q.Penalty != "0.5" || q.UseCase != "1" {
		t.Errorf("question = name %q grade %q penalty %q usecase %q", q.Name.Text, q.DefaultGrade, q.Penalty, q.UseCase)
	}
	if q.Answers[0].Feedback.Text != "Correct" {
		t.Errorf("feedback = %q", q.Answers[0].Feedback.Text)
	}
}

func TestFormatGrade(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{0.33, "0.33"},
		{10, "10.0"},
		{0, "0.0"},
		{2.5, "2.5"},
	}
	for _, tt := range tests {
		if got := FormatGrade(tt.in); got != tt.want {
			t.Errorf("FormatGrade(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuiz_Encode(t *testing.T) {
	quiz := NewQuiz("Test")
	read := func(string) ([]byte, error) { return []byte("img"), nil }
	q, err := DefaultSettings().Compose(Input{Task: 1, Images: []string{"1.png"}, Answer: "a < b"}, read)
	if err != nil {
		t.Fatal(err)
	}
	quiz.Add(q)

	var buf bytes.Buffer
	if err := quiz.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out := buf.String()

	lines := strings.Split(out, "\n")
	if lines[0] != `<?xml version="1.0" encoding="UTF-8"?>` {
		t.Errorf("first line = %q", lines[0])
	}
	if strings.Count(out, "<?xml") != 1 {
		t.Error("declaration must appear exactly once")
	}
	if lines[1] != "<quiz>" {
		t.Errorf("second line = %q, want <quiz>", lines[1])
	}
	if lines[2] != `  <question type="category">` {
		t.Errorf("third line = %q, want two-space indented category", lines[2])
	}
	if strings.TrimSpace(lines[1]) == "" {
		t.Error("unexpected blank line after declaration")
	}

	for _, want := range []string{
		`<text>$course$/top/Test</text>`,
		`<question type="shortanswer">`,
		`<questiontext format="html">`,
		`<file name="1.png" encoding="base64">aW1n</file>`,
		`<defaultgrade>1.0</defaultgrade>`,
		`<penalty>0.33</penalty>`,
		`<hidden>0</hidden>`,
		`<usecase>0</usecase>`,
		`<answer fraction="100">`,
		`<text>a &lt; b</text>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	var decoded Quiz
	if err := xml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output does not parse: %v", err)
	}
	if len(decoded.Questions) != 2 || decoded.Len() != 1 {
		t.Errorf("decoded %d questions (%d non-category), want 2 (1)", len(decoded.Questions), decoded.Len())
	}
	if decoded.Questions[1].Answers[0].Text != "a < b" {
		t.Errorf("decoded answer = %q", decoded.Questions[1].Answers[0].Text)
	}
}

func TestQuiz_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.xml")
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewQuiz("Empty").WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), xml.Header) {
		t.Errorf("file starts with %q", string(data[:20]))
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only the output file", len(entries))
	}
}

func TestQuiz_WriteFile_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "questions.xml")
	if err := NewQuiz("x").WriteFile(path); err == nil {
		t.Error("WriteFile() error = nil, want error")
	}
}
