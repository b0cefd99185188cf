package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kamachkin/Moodle-XML-generator/internal/errors"
	"github.com/kamachkin/Moodle-XML-generator/internal/output"
)

// cmdCompletion generates shell completion scripts.
func cmdCompletion(args []string) int {
	shell := ""
	alias := ""

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h" || arg == "--help":
			printCompletionUsage()
			return 0
		case strings.HasPrefix(arg, "--alias="):
			alias = strings.TrimPrefix(arg, "--alias=")
		case arg == "--alias":
			out.ErrorPrefix("completion: --alias requires a value (--alias=<name>)")
			return errors.ExitConfigError
		case strings.HasPrefix(arg, "-"):
			out.ErrorPrefix("completion: unknown flag: %s", arg)
			return errors.ExitConfigError
		default:
			if shell != "" {
				out.ErrorPrefix("completion: unexpected argument: %s", arg)
				return errors.ExitConfigError
			}
			shell = arg
		}
	}

	if shell == "" {
		out.ErrorPrefix("completion: shell required (bash, zsh, fish)")
		return errors.ExitConfigError
	}

	cmdName := "moodlexml"
	if alias != "" {
		cmdName = alias
	}

	switch shell {
	case "bash":
		out.Print("%s", generateBashCompletion(cmdName))
	case "zsh":
		out.Print("%s", generateZshCompletion(cmdName))
	case "fish":
		out.Print("%s", generateFishCompletion(cmdName))
	default:
		out.ErrorPrefix("completion: unsupported shell %q (use bash, zsh, or fish)", shell)
		return errors.ExitConfigError
	}

	return 0
}

// printCompletionUsage prints the help text for the completion command.
func printCompletionUsage() {
	w := output.New()

	w.HelpTitle("moodlexml completion - generate shell completion scripts")

	w.HelpSection("Usage:")
	w.HelpUsage("moodlexml completion <shell> [--alias=<name>]")

	w.HelpSection("Arguments:")
	w.HelpFlag("<shell>", "Shell type: bash, zsh, or fish", 14)

	w.HelpSection("Options:")
	w.HelpFlag("--alias=<name>", "Generate completion for command alias", 14)
	w.HelpFlag("-h, --help", "Show this help", 14)

	w.HelpSection("Installation:")
	w.Println("  Bash:  eval \"$(moodlexml completion bash)\"")
	w.Println("  Zsh:   eval \"$(moodlexml completion zsh)\"")
	w.Println("  Fish:  moodlexml completion fish | source")
	w.Println("")
}

// commandDescriptions maps each built-in command to its one-line description.
var commandDescriptions = map[string]string{
	"generate":   "Write the question bank",
	"tasks":      "List discovered tasks",
	"watch":      "Regenerate on changes",
	"config":     "Configuration utilities",
	"completion": "Generate shell completion",
	"version":    "Show version information",
	"help":       "Show help",
}

// builtinCommands returns the CLI commands, sorted.
func builtinCommands() []string {
	commands := make([]string, 0, len(commandDescriptions))
	for cmd := range commandDescriptions {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)
	return commands
}

// completionFlags returns the long flags accepted by conversion commands.
func completionFlags() []string {
	return []string{
		"--dir",
		"--answers",
		"--output",
		"--category",
		"--config",
		"--quiet",
		"--verbose",
		"--log-file",
		"--no-color",
		"--help",
		"--version",
	}
}

func generateBashCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_") + "_completions"

	return fmt.Sprintf(`# moodlexml bash completion
# Add to ~/.bashrc: eval "$(moodlexml completion bash)"

%s() {
    local cur prev words cword
    _init_completion || return

    local commands="%s"
    local flags="%s"

    case "${prev}" in
        %s)
            COMPREPLY=($(compgen -W "${commands} ${flags}" -- "${cur}"))
            return
            ;;
        config)
            COMPREPLY=($(compgen -W "validate init" -- "${cur}"))
            return
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "${cur}"))
            return
            ;;
        --format)
            COMPREPLY=($(compgen -W "table json yaml toml" -- "${cur}"))
            return
            ;;
        -d|--dir)
            _filedir -d
            return
            ;;
        -a|--answers|-o|--output|--config|--log-file)
            _filedir
            return
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=($(compgen -W "${flags} --format --force" -- "${cur}"))
        return
    fi

    COMPREPLY=($(compgen -W "${commands}" -- "${cur}"))
}

complete -F %s %s
`, funcName, strings.Join(builtinCommands(), " "), strings.Join(completionFlags(), " "), cmdName, funcName, cmdName)
}

func generateZshCompletion(cmdName string) string {
	funcName := "_" + strings.ReplaceAll(cmdName, "-", "_")

	var commands strings.Builder
	for _, cmd := range builtinCommands() {
		fmt.Fprintf(&commands, "        '%s:%s'\n", cmd, commandDescriptions[cmd])
	}

	return fmt.Sprintf(`#compdef %s
# moodlexml zsh completion
# Add to ~/.zshrc: eval "$(moodlexml completion zsh)"

%s() {
    local -a commands flags

    commands=(
%s    )

    flags=(
        '(-d --dir)'{-d,--dir}'[Task directory]:directory:_directories'
        '(-a --answers)'{-a,--answers}'[Answer key file]:file:_files'
        '(-o --output)'{-o,--output}'[Output file]:file:_files'
        '(-c --category)'{-c,--category}'[Question bank category]:category:'
        '--config[Configuration file]:file:_files'
        '(-q --quiet)'{-q,--quiet}'[Minimal output]'
        '(-v --verbose)'{-v,--verbose}'[Maximum detail]'
        '--log-file[Structured log file]:file:_files'
        '--no-color[Disable colored output]'
        '--help[Show help]'
    )

    if (( CURRENT == 2 )); then
        _describe -t commands 'command' commands
        _arguments -s $flags[@]
        return
    fi

    case "${words[2]}" in
        config)
            _describe -t config-subcommands 'config subcommand' '(validate:Validate\ configuration init:Write\ default\ configuration)'
            ;;
        completion)
            _values 'shell' bash zsh fish
            ;;
        tasks)
            _arguments -s $flags[@] '--format=[Output format]:format:(table json yaml)'
            ;;
        *)
            _arguments -s $flags[@]
            ;;
    esac
}

compdef %s %s
`, cmdName, funcName, commands.String(), funcName, cmdName)
}

func generateFishCompletion(cmdName string) string {
	var sb strings.Builder

	sb.WriteString("# moodlexml fish completion\n# Add to config: moodlexml completion fish | source\n\n")

	for _, cmd := range builtinCommands() {
		fmt.Fprintf(&sb, "complete -c %s -n '__fish_use_subcommand' -f -a '%s' -d '%s'\n", cmdName, cmd, commandDescriptions[cmd])
	}

	sb.WriteString("\n# Conversion flags\n")
	fmt.Fprintf(&sb, "complete -c %s -s d -l dir -d 'Task directory' -xa '(__fish_complete_directories)'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -s a -l answers -d 'Answer key file' -r\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -s o -l output -d 'Output file' -r\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -s c -l category -d 'Question bank category' -x\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l config -d 'Configuration file' -r\n", cmdName)

	sb.WriteString("\n# Global flags\n")
	fmt.Fprintf(&sb, "complete -c %s -s q -l quiet -d 'Minimal output'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -s v -l verbose -d 'Maximum detail'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l log-file -d 'Structured log file' -r\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l no-color -d 'Disable colored output'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -l help -d 'Show help'\n", cmdName)

	sb.WriteString("\n# Subcommands\n")
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from tasks' -l format -xa 'table json yaml'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from config' -f -a 'validate init'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from config' -l format -xa 'yaml toml json'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from config' -l force -d 'Overwrite existing file'\n", cmdName)
	fmt.Fprintf(&sb, "complete -c %s -n '__fish_seen_subcommand_from completion' -f -a 'bash zsh fish'\n", cmdName)

	return sb.String()
}
