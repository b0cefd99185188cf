package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kamachkin/Moodle-XML-generator/internal/convert"
	"github.com/kamachkin/Moodle-XML-generator/internal/output"
)

// importHint tells the user where the generated file goes in Moodle.
const importHint = "Банк вопросов → Импорт → Формат: Moodle XML"

// consoleReporter narrates a conversion through an output.Writer.
// In brief mode only warnings are printed, which keeps stdout free for
// machine-readable listings.
type consoleReporter struct {
	w     *output.Writer
	brief bool
}

func newConsoleReporter(w *output.Writer) *consoleReporter {
	return &consoleReporter{w: w}
}

func (r *consoleReporter) AnswerKeyMissing(path string) {
	r.w.Warning("файл ответов %s не найден", path)
}

func (r *consoleReporter) AnswerFound(task int, answer string) {
	if r.brief {
		return
	}
	r.w.Debug("  ответ: Задание %d → %s", task, answer)
}

func (r *consoleReporter) AnswerLineSkipped(line int, text, reason string) {
	r.w.Warning("строка %d файла ответов пропущена (%s): %q", line, reason, text)
}

func (r *consoleReporter) AnswersLoaded(path string, count int) {
	if r.brief {
		return
	}
	r.w.Info("Загружено ответов: %d (%s)", count, path)
}

func (r *consoleReporter) TasksDiscovered(tasks []int) {
	if r.brief {
		return
	}
	r.w.Info("Найдено заданий в папке: %d", len(tasks))
	if len(tasks) > 0 {
		r.w.Debug("Номера заданий: %s", joinInts(tasks))
	}
}

func (r *consoleReporter) AttachmentFound(task int, name string) {
	if r.brief {
		return
	}
	r.w.Debug("  вложение: Задание %d → %s", task, name)
}

func (r *consoleReporter) TaskProcessed(t convert.Task) {
	if r.brief {
		return
	}
	detail := fmt.Sprintf("%d изобр.", len(t.Images))
	if len(t.Auxiliary) > 0 {
		detail += fmt.Sprintf(", %d влож.", len(t.Auxiliary))
	}
	r.w.TaskDone(t.Number, fmt.Sprintf("(%s) → Ответ: %s", detail, t.Answer))
}

func (r *consoleReporter) TaskSkipped(task int, status convert.Status, err error) {
	switch status {
	case convert.StatusMissingAnswer:
		// Listed once in the summary.
		if !r.brief {
			r.w.Debug("Задание %d: нет ответа", task)
		}
	case convert.StatusMissingImages:
		r.w.TaskSkipped(task, "не найдены изображения")
	default:
		r.w.TaskSkipped(task, err.Error())
	}
}

func (r *consoleReporter) Finished(s *convert.Summary) {
	if r.brief {
		return
	}
	w := r.w

	if !s.Written {
		w.FinalFailure("Нет ответов: файл %s не создан.", s.Output)
		return
	}
	if w.Quiet() {
		return
	}

	w.SummaryHeader("Итог")
	w.SummaryItem("Файл", s.Output)
	w.SummaryItem("Категория", s.Category)
	w.SummaryPassed("Обработано заданий", strconv.Itoa(s.Questions()))
	if n := s.Attachments(); n > 0 {
		w.SummaryItem("Вложений", strconv.Itoa(n))
	}
	if len(s.MissingAnswers) > 0 {
		w.SummaryFailed(fmt.Sprintf("Нет ответов (%d)", len(s.MissingAnswers)), joinInts(s.MissingAnswers))
	}
	if len(s.MissingImages) > 0 {
		w.SummaryFailed(fmt.Sprintf("Нет изображений (%d)", len(s.MissingImages)), joinInts(s.MissingImages))
	}
	if len(s.Failed) > 0 {
		failed := make([]int, len(s.Failed))
		for i, f := range s.Failed {
			failed[i] = f.Task
		}
		w.SummaryFailed(fmt.Sprintf("Ошибки чтения (%d)", len(failed)), joinInts(failed))
	}

	w.FinalSuccess("XML файл %s успешно создан.", s.Output)
	w.Hint("Загрузите его в Moodle: %s", importHint)
}

var _ convert.Reporter = (*consoleReporter)(nil)

func joinInts(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
