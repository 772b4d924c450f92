// Package configs provides embedded configuration templates for memoir.
//
// Templates are embedded at build time using Go's //go:embed directive so
// they ship inside the binary regardless of how it was installed.
//
// Configuration hierarchy (see internal/config/config.go Load()):
//  1. Hardcoded defaults (internal/config/config.go NewConfig())
//  2. User config (~/.config/memoir/config.yaml)
//  3. Project config (.memoir.yaml)
//  4. Environment variables (MEMOIR_*)
package configs

import _ "embed"

// UserConfigTemplate is an example of the user config at
// ~/.config/memoir/config.yaml; no command writes it (`memoir config init
// --user` writes the built-in defaults). Holds machine-specific settings such as
// the embedding backend and Ollama host that apply across every collection.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is an example of the project config .memoir.yaml at
// a collection root; no command writes it. Holds settings that travel with the
// project: search weights, watcher intervals, memoir defaults.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
