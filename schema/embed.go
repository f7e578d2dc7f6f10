// Package schema provides embedded JSON schemas for stochval configuration,
// suite documents and reference validator output.
package schema

import "embed"

// FS contains the embedded schema files.
//
//go:embed *.schema.json
var FS embed.FS
