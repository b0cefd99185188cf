package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamachkin/Moodle-XML-generator/internal/config"
	"github.com/kamachkin/Moodle-XML-generator/internal/errors"
	"github.com/kamachkin/Moodle-XML-generator/internal/output"
)

// initOptions holds parsed config init options.
type initOptions struct {
	Dir    string
	Format config.Format
	Force  bool // Overwrite an existing project file
}

func parseInitOptions(args []string) (*initOptions, error) {
	f, rest, err := parseConversionFlags(args)
	if err != nil {
		return nil, err
	}
	opts := &initOptions{Dir: f.Dir, Format: config.FormatYAML}

	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "--force":
			opts.Force = true
		case arg == "--format":
			if i+1 >= len(rest) {
				return nil, fmt.Errorf("--format requires a value")
			}
			i++
			opts.Format = config.Format(rest[i])
		case strings.HasPrefix(arg, "--format="):
			opts.Format = config.Format(strings.TrimPrefix(arg, "--format="))
		default:
			return nil, fmt.Errorf("unknown option %q", arg)
		}
	}

	switch opts.Format {
	case config.FormatYAML, config.FormatTOML, config.FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported format %q (use yaml, toml or json)", opts.Format)
	}
	return opts, nil
}

// cmdConfigInit writes a project file holding every default. Without --force
// it leaves an existing project file alone.
func cmdConfigInit(args []string) int {
	if wantsHelp(args) {
		printConfigUsage()
		return 0
	}

	opts, err := parseInitOptions(args)
	if err != nil {
		out.ErrorPrefix("config init: %v", err)
		return errors.ExitConfigError
	}

	if info, err := os.Stat(opts.Dir); err != nil || !info.IsDir() {
		out.ErrorPrefix("config init: directory %s does not exist", opts.Dir)
		return errors.ExitRuntimeError
	}

	existing, err := config.Find(opts.Dir)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitRuntimeError
	}
	path := filepath.Join(opts.Dir, "moodlexml."+string(opts.Format))
	if existing != "" && !opts.Force {
		out.Info("Configuration already exists: %s (use --force to overwrite)", existing)
		return 0
	}

	data, err := config.Marshal(config.Default(), opts.Format)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitRuntimeError
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		out.ErrorPrefix("%v", errors.Wrap(err, "failed to write "+path))
		return errors.ExitRuntimeError
	}
	if winner, _ := config.Find(opts.Dir); winner != "" && winner != path {
		out.Warning("%s takes precedence over %s", winner, path)
	}

	out.Success("Created %s", path)
	printNextSteps(out)
	return 0
}

// printNextSteps prints what to do after writing a project file.
func printNextSteps(w *output.Writer) {
	if w.Quiet() {
		return
	}
	w.HelpSection("Next steps:")
	w.Step(1, "Put task images (1.png, 2_A.png, ...) next to the file")
	w.Step(2, "Write the answer key, one \"<task>: <answer>\" per line")
	w.Step(3, "Run 'moodlexml' to build the question bank")
	w.Println("")
}
