// Package migrations embeds the psusim SQL schema into the binary.
package migrations

import "embed"

// FS holds every migration file.
//
//go:embed *.sql
var FS embed.FS

// Dir is the directory within FS that holds the files.
const Dir = "."
