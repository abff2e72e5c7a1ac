// Package runner executes post-generation shell commands through a
// per-OS backend. Platforms without a backend get a runner whose every call
// fails with *UnsupportedPlatformError.
package runner
