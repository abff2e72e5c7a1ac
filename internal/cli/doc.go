// Package cli defines the Cobra command tree for the templater CLI. Each file
// in this package registers one top-level command (prepare, generate,
// update-templates, etc.) with the root command. Commands delegate to
// internal/engine for the work and only handle flag parsing, prompting and
// output formatting.
package cli
