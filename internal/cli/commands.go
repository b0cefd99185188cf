package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/kamachkin/Moodle-XML-generator/internal/answers"
	"github.com/kamachkin/Moodle-XML-generator/internal/config"
	"github.com/kamachkin/Moodle-XML-generator/internal/convert"
	"github.com/kamachkin/Moodle-XML-generator/internal/errors"
	"github.com/kamachkin/Moodle-XML-generator/internal/logger"
	"github.com/kamachkin/Moodle-XML-generator/internal/output"
	"github.com/kamachkin/Moodle-XML-generator/internal/watch"
)

// out is the shared output writer for CLI commands.
var out = output.New()

// Help text alignment widths for consistent formatting.
const (
	helpFlagWidthShort = 10 // Width for short flags like "-h, --help"
	widthFlagWithValue = 22 // Width for flags like "-c, --category=<name>"
)

// applyVerbosityToOutput configures the output writer based on verbosity settings.
func applyVerbosityToOutput(opts *GlobalOptions) {
	out.SetQuiet(opts.Quiet)
	out.SetVerbose(opts.Verbose)
	if opts.NoColor {
		out.SetColor(false)
	}
}

// conversionFlags holds the flags shared by generate, tasks and watch.
type conversionFlags struct {
	Dir      string
	Answers  string
	Output   string
	Category string
	Config   string
}

// target returns the field a flag name sets, or nil for other arguments.
func (f *conversionFlags) target(name string) *string {
	switch name {
	case "-d", "--dir":
		return &f.Dir
	case "-a", "--answers":
		return &f.Answers
	case "-o", "--output":
		return &f.Output
	case "-c", "--category":
		return &f.Category
	case "--config":
		return &f.Config
	}
	return nil
}

// parseConversionFlags consumes the shared conversion flags in both
// "--flag value" and "--flag=value" form and returns the other arguments.
func parseConversionFlags(args []string) (*conversionFlags, []string, error) {
	f := &conversionFlags{}
	var rest []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, value, hasValue := strings.Cut(arg, "=")
		field := f.target(name)
		if field == nil {
			rest = append(rest, arg)
			continue
		}
		if !hasValue {
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("%s requires a value", name)
			}
			i++
			value = args[i]
		}
		if value == "" {
			return nil, nil, fmt.Errorf("%s requires a value", name)
		}
		*field = value
	}

	if f.Dir == "" {
		f.Dir = "."
	}
	return f, rest, nil
}

// loadSettings resolves the effective configuration: the project file (an
// explicit --config or the first moodlexml.* in the task directory), defaults,
// then flag overrides.
func loadSettings(f *conversionFlags) (*config.Config, string, error) {
	path := f.Config
	if path == "" {
		found, err := config.Find(f.Dir)
		if err != nil {
			return nil, "", configError("", err)
		}
		path = found
	}

	cfg := config.Default()
	if path != "" {
		loaded, warnings, err := config.LoadAndValidate(path)
		for _, w := range warnings {
			out.Warning("%s: %s", path, w)
		}
		if err != nil {
			return nil, path, configError(path, err)
		}
		cfg = loaded
	}

	if f.Answers != "" {
		cfg.Answers = f.Answers
	}
	if f.Output != "" {
		cfg.Output = f.Output
	}
	if f.Category != "" {
		cfg.Category = f.Category
	}

	if _, err := config.Validate(cfg); err != nil {
		return nil, path, configError(path, err)
	}
	return cfg, path, nil
}

func configError(path string, err error) error {
	return &errors.Error{
		Kind:    errors.KindConfig,
		Message: "invalid configuration",
		Path:    path,
		Cause:   err,
	}
}

// converterOptions maps a resolved configuration onto conversion options.
func converterOptions(dir string, cfg *config.Config, reporter convert.Reporter) convert.Options {
	enc, _ := answers.ParseEncoding(cfg.AnswersEncoding)
	opts := convert.Options{
		Dir:             dir,
		AnswersPath:     cfg.Answers,
		OutputPath:      cfg.Output,
		Category:        cfg.Category,
		AnswersEncoding: enc,
		Question:        cfg.QuestionSettings(),
		Reporter:        reporter,
		Logger:          logger.L(),
	}
	if cfg.Extensions != nil {
		opts.ImageExtensions = cfg.Extensions.Images
		opts.AuxiliaryExtensions = cfg.Extensions.Auxiliary
	}
	return opts
}

// setupLogging installs the file logger requested by --log-file.
func setupLogging(opts *GlobalOptions) (func() error, int) {
	cleanup, err := logger.Setup(logger.Config{Path: opts.LogFile, Debug: opts.Verbose})
	if err != nil {
		out.ErrorPrefix("cannot open log file %s: %v", opts.LogFile, err)
		return nil, errors.ExitConfigError
	}
	return cleanup, 0
}

// prepare parses conversion flags and loads settings. It returns a non-zero
// exit code on failure.
func prepare(cmd string, args []string) (*conversionFlags, *config.Config, int) {
	f, rest, err := parseConversionFlags(args)
	if err != nil {
		out.ErrorPrefix("%s: %v", cmd, err)
		return nil, nil, errors.ExitConfigError
	}
	if len(rest) > 0 {
		out.ErrorPrefix("%s: unexpected argument %q", cmd, rest[0])
		return nil, nil, errors.ExitConfigError
	}

	info, err := os.Stat(f.Dir)
	if err != nil || !info.IsDir() {
		out.ErrorPrefix("%s: directory %s does not exist", cmd, f.Dir)
		return nil, nil, errors.ExitRuntimeError
	}

	cfg, _, err := loadSettings(f)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return nil, nil, errors.GetExitCode(err)
	}
	return f, cfg, 0
}

// cmdGenerate runs a single conversion.
func cmdGenerate(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printGenerateUsage()
		return 0
	}

	f, cfg, code := prepare("generate", args)
	if code != 0 {
		return code
	}

	cleanup, code := setupLogging(opts)
	if code != 0 {
		return code
	}
	defer func() { _ = cleanup() }()

	return runConversion(f.Dir, cfg)
}

func runConversion(dir string, cfg *config.Config) int {
	c := convert.New(converterOptions(dir, cfg, newConsoleReporter(out)))
	if _, err := c.Run(); err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	return 0
}

// taskView is the listing form of a planned task.
type taskView struct {
	Task        int      `json:"task" yaml:"task"`
	Status      string   `json:"status" yaml:"status"`
	Answer      string   `json:"answer,omitempty" yaml:"answer,omitempty"`
	Images      []string `json:"images" yaml:"images"`
	Attachments []string `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// tasksReport is the document printed by "tasks --format=json|yaml".
type tasksReport struct {
	Dir              string     `json:"dir" yaml:"dir"`
	Answers          string     `json:"answers" yaml:"answers"`
	AnswerKeyMissing bool       `json:"answer_key_missing,omitempty" yaml:"answer_key_missing,omitempty"`
	Ready            int        `json:"ready" yaml:"ready"`
	Tasks            []taskView `json:"tasks" yaml:"tasks"`
}

func newTasksReport(plan *convert.Plan) tasksReport {
	r := tasksReport{
		Dir:              plan.Dir,
		Answers:          plan.AnswersPath,
		AnswerKeyMissing: plan.AnswerKeyMissing,
		Ready:            len(plan.Ready()),
		Tasks:            []taskView{},
	}
	for _, t := range plan.Tasks {
		v := taskView{
			Task:   t.Number,
			Status: string(t.Status()),
			Answer: t.Answer,
			Images: []string{},
		}
		for _, img := range t.Images {
			v.Images = append(v.Images, img.Name)
		}
		for _, aux := range t.Auxiliary {
			v.Attachments = append(v.Attachments, aux.Name)
		}
		r.Tasks = append(r.Tasks, v)
	}
	return r
}

// cmdTasks lists discovered tasks and how they correlate with the answer key.
func cmdTasks(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printTasksUsage()
		return 0
	}

	format := "table"
	isFormat := func(arg string) bool { return arg == "--format" || strings.HasPrefix(arg, "--format=") }
	var filtered []string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--format":
			if i+1 >= len(args) {
				out.ErrorPrefix("tasks: --format requires a value")
				return errors.ExitConfigError
			}
			format = args[i+1]
			i++
		case isFormat(args[i]):
			format = strings.TrimPrefix(args[i], "--format=")
		default:
			filtered = append(filtered, args[i])
		}
	}
	switch format {
	case "table", "json", "yaml":
	default:
		out.ErrorPrefix("tasks: unsupported format %q (use table, json or yaml)", format)
		return errors.ExitConfigError
	}

	f, cfg, code := prepare("tasks", filtered)
	if code != 0 {
		return code
	}

	cleanup, code := setupLogging(opts)
	if code != 0 {
		return code
	}
	defer func() { _ = cleanup() }()

	reporter := newConsoleReporter(out)
	reporter.brief = true
	plan, err := convert.New(converterOptions(f.Dir, cfg, reporter)).Plan()
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	report := newTasksReport(plan)
	switch format {
	case "json":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			out.ErrorPrefix("%v", err)
			return errors.ExitRuntimeError
		}
		out.Println("%s", data)
	case "yaml":
		data, err := yaml.Marshal(report)
		if err != nil {
			out.ErrorPrefix("%v", err)
			return errors.ExitRuntimeError
		}
		out.Print("%s", data)
	default:
		printTasksTable(report)
	}
	return 0
}

func printTasksTable(r tasksReport) {
	titleCase := cases.Title(language.English)
	if len(r.Tasks) == 0 {
		out.Info("Заданий не найдено в %s", r.Dir)
		return
	}
	rows := make([][]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		answer := t.Answer
		if answer == "" {
			answer = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(t.Task),
			answer,
			strings.Join(t.Images, " "),
			strconv.Itoa(len(t.Attachments)),
			titleCase.String(strings.ReplaceAll(t.Status, "-", " ")),
		})
	}
	out.Table([]string{"Задание", "Ответ", "Изображения", "Вложения", "Статус"}, rows)
	out.Info("Готово к импорту: %d из %d", r.Ready, len(r.Tasks))
}

// cmdWatch regenerates the output whenever the task directory changes.
func cmdWatch(args []string, opts *GlobalOptions) int {
	if wantsHelp(args) {
		printWatchUsage()
		return 0
	}

	f, cfg, code := prepare("watch", args)
	if code != 0 {
		return code
	}

	cleanup, code := setupLogging(opts)
	if code != 0 {
		return code
	}
	defer func() { _ = cleanup() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runConversion(f.Dir, cfg)
	out.Hint("Ожидание изменений в %s (Ctrl+C для выхода)...", f.Dir)

	wopts := watch.Options{
		Dir:      f.Dir,
		Debounce: cfg.Debounce(),
		Ignore:   watchIgnored(f.Dir, cfg, logger.Path()),
		Logger:   logger.L(),
		OnError: func(err error) {
			out.Warning("watch: %v", err)
		},
	}
	err := watch.Run(ctx, wopts, func(changed []string) {
		out.Info("")
		out.Info("Изменения: %s", strings.Join(changed, ", "))

		// Settings are reloaded so that edits to the project file apply.
		current, _, err := loadSettings(f)
		if err != nil {
			out.ErrorPrefix("%v", err)
			return
		}
		runConversion(f.Dir, current)
	})
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}
	return 0
}

// watchIgnored lists the base names in dir that a run writes itself. The
// output path is relative to dir; the log file is relative to the working
// directory.
func watchIgnored(dir string, cfg *config.Config, logFile string) []string {
	output := cfg.Output
	if !filepath.IsAbs(output) {
		output = filepath.Join(dir, output)
	}
	paths := []string{output}
	if logFile != "" {
		paths = append(paths, logFile)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err == nil && filepath.Dir(abs) == absDir {
			names = append(names, filepath.Base(abs))
		}
	}
	return names
}

// cmdConfig handles configuration utilities.
func cmdConfig(args []string) int {
	if len(args) == 0 {
		out.ErrorPrefix("config: subcommand required (validate, init)")
		return errors.ExitConfigError
	}

	switch args[0] {
	case "validate":
		return cmdConfigValidate(args[1:])
	case "init":
		return cmdConfigInit(args[1:])
	case "-h", "--help":
		printConfigUsage()
		return 0
	default:
		out.ErrorPrefix("config: unknown subcommand %q", args[0])
		return errors.ExitConfigError
	}
}

func cmdConfigValidate(args []string) int {
	if wantsHelp(args) {
		printConfigUsage()
		return 0
	}

	f, rest, err := parseConversionFlags(args)
	if err != nil || len(rest) > 0 {
		if err == nil {
			err = fmt.Errorf("unexpected argument %q", rest[0])
		}
		out.ErrorPrefix("config validate: %v", err)
		return errors.ExitConfigError
	}

	path := f.Config
	if path == "" {
		path, err = config.Find(f.Dir)
		if err != nil {
			out.ErrorPrefix("%v", err)
			return errors.ExitRuntimeError
		}
		if path == "" {
			out.ErrorPrefix("config validate: no %s found in %s", strings.Join(config.FileNames, ", "), f.Dir)
			return errors.ExitConfigError
		}
	}

	cfg, warnings, err := config.LoadAndValidate(path)
	for _, w := range warnings {
		out.Warning("%s", w)
	}
	if err != nil {
		out.ErrorPrefix("%v", configError(path, err))
		return errors.ExitConfigError
	}

	s := cfg.QuestionSettings()
	out.ValidationSuccess("Configuration is valid.")
	out.SummaryItem("File", path)
	out.SummaryItem("Category", cfg.Category)
	out.SummaryItem("Answers", fmt.Sprintf("%s (%s)", cfg.Answers, cfg.AnswersEncoding))
	out.SummaryItem("Output", cfg.Output)
	out.SummaryItem("Question name", s.NameFormat)
	if len(warnings) > 0 {
		out.SummaryItem("Warnings", strconv.Itoa(len(warnings)))
	}
	if !out.Quiet() {
		out.Section("Image extensions")
		out.List(cfg.Extensions.Images)
		out.Section("Attachment extensions")
		out.List(cfg.Extensions.Auxiliary)
	}
	return 0
}

// printGenerateUsage prints the help text for the generate command.
func printGenerateUsage() {
	w := output.New()

	w.HelpTitle("moodlexml generate - write the question bank")

	w.HelpSection("Usage:")
	w.HelpUsage("moodlexml generate [options]")

	w.HelpSection("Description:")
	w.Println("  Scans the task directory for images and attachments, merges them")
	w.Println("  with the answer key and writes one Moodle XML file. Tasks without")
	w.Println("  an answer or without images are skipped and reported.")

	printConversionFlags(w)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	w.HelpSection("Examples:")
	w.HelpExample("moodlexml generate", "Convert the current directory")
	w.HelpExample("moodlexml generate -a key.txt -o bank.xml", "Use custom file names")
	w.Println("")
}

// printTasksUsage prints the help text for the tasks command.
func printTasksUsage() {
	w := output.New()

	w.HelpTitle("moodlexml tasks - list discovered tasks")

	w.HelpSection("Usage:")
	w.HelpUsage("moodlexml tasks [--format=<format>] [options]")

	w.HelpSection("Description:")
	w.Println("  Lists every task number found in the directory with its answer,")
	w.Println("  images and status. Nothing is written.")

	printConversionFlags(w)
	w.HelpFlag("--format=<format>", "Output format: table, json or yaml", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	w.HelpSection("Examples:")
	w.HelpExample("moodlexml tasks", "Show a table of tasks")
	w.HelpExample("moodlexml tasks --format=yaml", "Print tasks as YAML")
	w.Println("")
}

// printWatchUsage prints the help text for the watch command.
func printWatchUsage() {
	w := output.New()

	w.HelpTitle("moodlexml watch - regenerate on changes")

	w.HelpSection("Usage:")
	w.HelpUsage("moodlexml watch [options]")

	w.HelpSection("Description:")
	w.Println("  Converts once, then converts again whenever files in the task")
	w.Println("  directory change. Bursts of changes are debounced (watch.debounce_ms).")
	w.Println("  Stop with Ctrl+C.")

	printConversionFlags(w)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	w.HelpSection("Examples:")
	w.HelpExample("moodlexml watch -d tasks", "Watch ./tasks")
	w.Println("")
}

// printConfigUsage prints the help text for the config command.
func printConfigUsage() {
	w := output.New()

	w.HelpTitle("moodlexml config - configuration utilities")

	w.HelpSection("Usage:")
	w.HelpUsage("moodlexml config <subcommand> [options]")

	w.HelpSection("Subcommands:")
	w.HelpCommand("validate", "Validate the configuration file", helpFlagWidthShort)
	w.HelpCommand("init", "Write a configuration file with defaults", helpFlagWidthShort)

	w.HelpSection("Options:")
	w.HelpFlag("-d, --dir=<dir>", "Directory holding the configuration", widthFlagWithValue)
	w.HelpFlag("--config=<path>", "Configuration file (validate)", widthFlagWithValue)
	w.HelpFlag("--format=<format>", "File format: yaml, toml or json (init)", widthFlagWithValue)
	w.HelpFlag("--force", "Overwrite an existing file (init)", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)

	w.HelpSection("Examples:")
	w.HelpExample("moodlexml config init", "Write moodlexml.yaml with defaults")
	w.HelpExample("moodlexml config init --format=toml", "Write moodlexml.toml with defaults")
	w.HelpExample("moodlexml config validate", "Validate moodlexml.* in the current directory")
	w.Println("")
}
