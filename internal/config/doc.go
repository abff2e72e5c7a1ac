// Package config manages application settings stored at
// ~/.templater/settings.yaml and the on-disk layout derived from the core
// directory: the template archive cache, the catalog file, and the solution
// configuration file with its backups.
//
// Every key may be overridden through TEMPLATER_<KEY> environment variables.
package config
