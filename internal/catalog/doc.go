// Package catalog tracks which template archives have been downloaded from
// which remote repositories, and reconciles the local archive directory with
// the remotes.
//
// The local catalog (template_cache.json) is keyed by archive name; the
// content hash reported by the remote is the only change detector. Archives
// that disappeared upstream are reported as orphans and left on disk.
package catalog
