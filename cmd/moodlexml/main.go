// Package main is the entry point for the moodlexml CLI.
package main

import (
	"os"

	"github.com/kamachkin/Moodle-XML-generator/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
