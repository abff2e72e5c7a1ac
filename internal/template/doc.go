// Package template models template metadata (template_info.json): the
// descriptive fields, the packaging and generation settings, and the
// identifier count recorded at packaging time. Metadata is validated against
// an embedded JSON Schema before use, whether it is read from a source tree
// or from inside a packaged archive.
package template
