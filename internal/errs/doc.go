// Package errs defines the error taxonomy shared by the packaging, sync and
// generation pipelines. Every failure that crosses a package boundary is an
// *Error carrying a Kind, so the CLI can tell a bad template apart from a
// network outage without string matching.
package errs
