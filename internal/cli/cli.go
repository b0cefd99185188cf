// Package cli provides command-line interface functionality for moodlexml.
package cli

import (
	"fmt"
	"strings"

	"github.com/kamachkin/Moodle-XML-generator/internal/errors"
	"github.com/kamachkin/Moodle-XML-generator/internal/output"
)

// Version is set at build time.
var Version = "dev"

// wantsHelp returns true if args contain -h or --help before any -- separator.
func wantsHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
		if arg == "--" {
			return false
		}
	}
	return false
}

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help", "help":
			printUsage()
			return 0
		case "--version", "version":
			out.Println("moodlexml %s", Version)
			return 0
		}
	}

	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	// Without a command, or with only command flags, run a conversion.
	if len(remaining) == 0 || strings.HasPrefix(remaining[0], "-") {
		return cmdGenerate(remaining, opts)
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]

	switch cmd {
	case "help":
		printUsage()
		return 0
	case "version":
		out.Println("moodlexml %s", Version)
		return 0
	case "generate":
		return cmdGenerate(cmdArgs, opts)
	case "tasks":
		return cmdTasks(cmdArgs, opts)
	case "watch":
		return cmdWatch(cmdArgs, opts)
	case "config":
		return cmdConfig(cmdArgs)
	case "completion":
		return cmdCompletion(cmdArgs)
	default:
		out.ErrorPrefix("unknown command %q", cmd)
		out.Errorln("Run 'moodlexml help' for usage.")
		return errors.ExitConfigError
	}
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	Quiet   bool
	Verbose bool
	NoColor bool
	LogFile string
}

// parseGlobalFlags manually parses global flags from arguments.
//
// Flags can appear anywhere in the argument list; everything after -- is
// passed through verbatim.
func parseGlobalFlags(args []string) (*GlobalOptions, []string, error) {
	opts := &GlobalOptions{}
	var remaining []string

	i := 0
	for i < len(args) {
		arg := args[i]

		switch {
		case arg == "-q" || arg == "--quiet":
			opts.Quiet = true
			i++
		case arg == "-v" || arg == "--verbose":
			opts.Verbose = true
			i++
		case arg == "--no-color":
			opts.NoColor = true
			i++
		case arg == "--log-file":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("--log-file requires a value")
			}
			opts.LogFile = args[i+1]
			i += 2
		case strings.HasPrefix(arg, "--log-file="):
			opts.LogFile = strings.TrimPrefix(arg, "--log-file=")
			if opts.LogFile == "" {
				return nil, nil, fmt.Errorf("--log-file requires a value")
			}
			i++
		case arg == "--":
			remaining = append(remaining, args[i:]...)
			i = len(args)
		default:
			remaining = append(remaining, arg)
			i++
		}
	}

	if err := validateGlobalOptions(opts); err != nil {
		return nil, nil, err
	}

	applyVerbosityToOutput(opts)

	return opts, remaining, nil
}

// validateGlobalOptions checks that global options are valid.
func validateGlobalOptions(opts *GlobalOptions) error {
	if opts.Quiet && opts.Verbose {
		return fmt.Errorf("--quiet and --verbose are mutually exclusive")
	}
	return nil
}

func printUsage() {
	w := output.New()

	w.HelpTitle("moodlexml - build Moodle XML question banks from task images")

	w.HelpSection("Usage:")
	w.HelpUsage("moodlexml [generate] [options]     Convert the task directory")
	w.HelpUsage("moodlexml <command> [options]")

	w.HelpSection("Commands:")
	w.HelpCommand("generate", "Write the question bank (default)", 16)
	w.HelpCommand("tasks", "List discovered tasks without writing XML", 16)
	w.HelpCommand("watch", "Regenerate whenever the directory changes", 16)
	w.HelpCommand("config validate", "Validate the configuration file", 16)
	w.HelpCommand("config init", "Write a default configuration file", 16)
	w.HelpCommand("completion", "Generate shell completion (bash, zsh, fish)", 16)
	w.HelpCommand("version", "Show version information", 16)

	printConversionFlags(w)
	printGlobalFlags(w)

	w.HelpSection("Examples:")
	w.HelpExample("moodlexml", "Convert the current directory")
	w.HelpExample("moodlexml -d tasks -c \"ЕГЭ 2025\"", "Convert ./tasks into category 'ЕГЭ 2025'")
	w.HelpExample("moodlexml tasks --format=json", "Inspect task correlation as JSON")
	w.HelpExample("moodlexml watch -d tasks", "Keep questions.xml up to date")
	w.Println("")
}

func printGlobalFlags(w *output.Writer) {
	w.HelpSection("Global Flags:")
	w.HelpFlag("-q, --quiet", "Minimal output (errors and warnings only)", widthFlagWithValue)
	w.HelpFlag("-v, --verbose", "Show every answer and attachment found", widthFlagWithValue)
	w.HelpFlag("--log-file=<path>", "Append structured JSON logs to a file", widthFlagWithValue)
	w.HelpFlag("--no-color", "Disable colored output", widthFlagWithValue)
	w.HelpFlag("-h, --help", "Show this help", widthFlagWithValue)
	w.HelpFlag("--version", "Show version", widthFlagWithValue)
}

func printConversionFlags(w *output.Writer) {
	w.HelpSection("Options:")
	w.HelpFlag("-d, --dir=<dir>", "Task directory (default: .)", widthFlagWithValue)
	w.HelpFlag("-a, --answers=<path>", "Answer key file (default: answers.txt)", widthFlagWithValue)
	w.HelpFlag("-o, --output=<path>", "Output file (default: questions.xml)", widthFlagWithValue)
	w.HelpFlag("-c, --category=<name>", "Question bank category", widthFlagWithValue)
	w.HelpFlag("--config=<path>", "Configuration file (default: moodlexml.* in dir)", widthFlagWithValue)
}
