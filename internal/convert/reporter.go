package convert

// Reporter receives progress events during a run. Implementations render them
// for a user; the converter never prints.
type Reporter interface {
	AnswerKeyMissing(path string)
	AnswerFound(task int, answer string)
	AnswerLineSkipped(line int, text, reason string)
	AnswersLoaded(path string, count int)
	TasksDiscovered(tasks []int)
	AttachmentFound(task int, name string)
	TaskProcessed(t Task)
	TaskSkipped(task int, status Status, err error)
	Finished(s *Summary)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) AnswerKeyMissing(string)               {}
func (NopReporter) AnswerFound(int, string)               {}
func (NopReporter) AnswerLineSkipped(int, string, string) {}
func (NopReporter) AnswersLoaded(string, int)             {}
func (NopReporter) TasksDiscovered([]int)                 {}
func (NopReporter) AttachmentFound(int, string)           {}
func (NopReporter) TaskProcessed(Task)                    {}
func (NopReporter) TaskSkipped(int, Status, error)        {}
func (NopReporter) Finished(*Summary)                     {}
