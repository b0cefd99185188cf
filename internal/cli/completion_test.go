package cli

import (
	"strings"
	"testing"
)

func TestCmdCompletion_Shells(t *testing.T) {
	tests := []struct {
		shell string
		want  []string
	}{
		{"bash", []string{"complete -F _moodlexml_completions moodlexml", "generate", "--category"}},
		{"zsh", []string{"#compdef moodlexml", "'tasks:List discovered tasks'", "compdef _moodlexml moodlexml"}},
		{"fish", []string{"complete -c moodlexml -n '__fish_use_subcommand' -f -a 'watch'", "-l log-file"}},
	}

	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			stdout, _ := captureOutput(t)
			if code := cmdCompletion([]string{tt.shell}); code != 0 {
				t.Fatalf("cmdCompletion(%s) = %d, want 0", tt.shell, code)
			}
			for _, want := range tt.want {
				if !strings.Contains(stdout.String(), want) {
					t.Errorf("%s completion lacks %q", tt.shell, want)
				}
			}
		})
	}
}

func TestCmdCompletion_Alias(t *testing.T) {
	stdout, _ := captureOutput(t)
	if code := cmdCompletion([]string{"bash", "--alias=mx"}); code != 0 {
		t.Fatalf("cmdCompletion() = %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "complete -F _mx_completions mx") {
		t.Errorf("alias completion:\n%s", stdout.String())
	}
}

func TestCmdCompletion_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", nil},
		{"unknown shell", []string{"powershell"}},
		{"alias without value", []string{"--alias", "bash"}},
		{"unknown flag", []string{"bash", "--verbose-mode"}},
		{"two shells", []string{"bash", "zsh"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr := captureOutput(t)
			if code := cmdCompletion(tt.args); code != 2 {
				t.Errorf("cmdCompletion(%v) = %d, want 2", tt.args, code)
			}
			if !strings.Contains(stderr.String(), "completion:") {
				t.Errorf("stderr = %q", stderr.String())
			}
		})
	}
}

func TestCmdCompletion_Help(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		if code := cmdCompletion([]string{arg}); code != 0 {
			t.Errorf("cmdCompletion(%s) = %d, want 0", arg, code)
		}
	}
}

func TestBuiltinCommands_Sorted(t *testing.T) {
	cmds := builtinCommands()
	if len(cmds) != len(commandDescriptions) {
		t.Fatalf("builtinCommands() = %v", cmds)
	}
	for i := 1; i < len(cmds); i++ {
		if cmds[i-1] >= cmds[i] {
			t.Errorf("builtinCommands() not sorted: %v", cmds)
		}
	}
}
