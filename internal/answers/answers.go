// Package answers loads the answer key: a line-oriented text file mapping task
// numbers to their accepted answers.
//
// Supported line shapes:
//
//	Вариант  (1).png:24
//	13.png - 24
//	13:42
//	27 - текстовый ответ
//	5<TAB>blue
//	8 yes
//
// Empty lines and lines starting with '#' are ignored.
package answers

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kamachkin/Moodle-XML-generator/internal/errors"
	"github.com/kamachkin/Moodle-XML-generator/internal/ident"
)

// Reasons a line is skipped.
const (
	ReasonNoDelimiter = "no delimiter"
	ReasonUnresolved  = "identifier does not name a task"
	ReasonEmptyAnswer = "empty answer"
)

// imageExts are the identifier endings treated as filenames.
var imageExts = []string{".png", ".jpg", ".jpeg"}

// whitespaceSplit splits on the first run of whitespace followed by the rest of the line.
// No-break and other Unicode spaces count as whitespace.
var whitespaceSplit = regexp.MustCompile(`^(.+?)[\s\p{Z}]+([^\s\p{Z}].*)$`)

// Entry is one resolved line of the key file.
type Entry struct {
	Line   int
	Task   int
	Answer string
}

// Skipped is a non-empty, non-comment line that did not yield an entry.
type Skipped struct {
	Line   int
	Text   string
	Reason string
}

// Key is a loaded answer key.
type Key struct {
	// Answers maps task number to answer text. Later lines overwrite earlier ones.
	Answers map[int]string
	// Entries lists every resolved line in file order, including overwritten ones.
	Entries []Entry
	// Skipped lists lines that could not be resolved.
	Skipped []Skipped
}

// Lookup returns the answer for task n.
func (k *Key) Lookup(n int) (string, bool) {
	if k == nil {
		return "", false
	}
	a, ok := k.Answers[n]
	return a, ok
}

// Len returns the number of distinct tasks with an answer.
func (k *Key) Len() int {
	if k == nil {
		return 0
	}
	return len(k.Answers)
}

// Overwritten returns the task numbers that appear on more than one line, ascending.
func (k *Key) Overwritten() []int {
	seen := make(map[int]int)
	for _, e := range k.Entries {
		seen[e.Task]++
	}
	var dup []int
	for n, c := range seen {
		if c > 1 {
			dup = append(dup, n)
		}
	}
	sort.Ints(dup)
	return dup
}

// Options configure loading.
type Options struct {
	Encoding Encoding
	Logger   *slog.Logger
}

// Load reads the key file at path.
// A missing file yields an error of kind errors.KindNotFound.
func Load(path string, opts Options) (*Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NotFound("answer key", path, err)
		}
		return nil, errors.Wrap(err, fmt.Sprintf("failed to read answer key %s", path))
	}

	text, err := Decode(data, opts.Encoding)
	if err != nil {
		return nil, &errors.Error{
			Kind:    errors.KindValidation,
			Message: "cannot decode answer key",
			Path:    path,
			Cause:   err,
		}
	}

	return Parse(bytes.NewReader(text), opts.Logger)
}

// Parse reads UTF-8 key lines from r.
func Parse(r io.Reader, logger *slog.Logger) (*Key, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	key := &Key{Answers: make(map[int]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		task, answer, reason := ParseLine(line)
		if reason != "" {
			logger.Debug("answers.skip", "line", lineNo, "text", line, "reason", reason)
			key.Skipped = append(key.Skipped, Skipped{Line: lineNo, Text: line, Reason: reason})
			continue
		}

		if prev, ok := key.Answers[task]; ok {
			logger.Debug("answers.overwrite", "line", lineNo, "task", task, "previous", prev, "answer", answer)
		}
		key.Answers[task] = answer
		key.Entries = append(key.Entries, Entry{Line: lineNo, Task: task, Answer: answer})
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read answer key")
	}

	return key, nil
}

// ParseLine resolves one trimmed key line into a task number and answer.
// On failure it returns a non-empty reason.
func ParseLine(line string) (task int, answer string, reason string) {
	identifier, rest, ok := split(line)
	if !ok {
		return 0, "", ReasonNoDelimiter
	}

	answer = strings.TrimSpace(rest)

	task, ok = resolve(strings.TrimSpace(identifier))
	if !ok {
		return 0, "", ReasonUnresolved
	}
	if answer == "" {
		return 0, "", ReasonEmptyAnswer
	}
	return task, answer, ""
}

// split divides a line at the first delimiter, trying ":", " - ", tab, then whitespace.
func split(line string) (string, string, bool) {
	for _, sep := range []string{":", " - ", "\t"} {
		if left, right, found := strings.Cut(line, sep); found {
			return left, right, true
		}
	}
	m := whitespaceSplit.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// resolve turns an identifier into a task number.
func resolve(identifier string) (int, bool) {
	if hasImageExt(identifier) {
		id, ok := ident.Parse(identifier)
		return id.Number, ok
	}
	if n, err := strconv.Atoi(identifier); err == nil {
		return n, n > 0
	}
	id, ok := ident.Parse(identifier)
	return id.Number, ok
}

func hasImageExt(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
