package main

import (
	"os"
	"strings"

	"mimi-cli/internal/cli"
)

// projectShorthand returns the project id of an "@<project-id>" token.
func projectShorthand(s string) (string, bool) {
	s = strings.TrimSpace(s)
	id, ok := strings.CutPrefix(s, "@")
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	return id, true
}

func rewriteProjectShorthandArgs(argv []string) []string {
	// Convenience: `mimi @<project-id>` works like `mimi projects show <project-id>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before
	// parsing. Persistent flags may come first (`mimi --dir ... @proj-1`), so look for the
	// first positional token rather than argv[1].
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":    true,
		"--config": true,
		"--format": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	rewrite := func(i int) []string {
		id, _ := projectShorthand(argv[i])
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "projects", "show", id)
		out = append(out, argv[i+1:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if _, ok := projectShorthand(argv[i+1]); ok {
					return rewrite(i + 1)
				}
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}

		if _, ok := projectShorthand(a); ok {
			return rewrite(i)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteProjectShorthandArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
