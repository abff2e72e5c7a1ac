// Package vcs initializes and clones git repositories for generated
// solutions using go-git, so no git binary is required.
package vcs
