// Package schema embeds the JSON schema for moodlexml project files.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS
