// Package substitution builds and applies the ordered replacement tables used
// when packaging and generating solutions.
//
// Replacement is sequential and literal: each table entry is applied to the
// output of the previous one, in insertion order. Later entries may therefore
// rewrite text produced by earlier ones, and table authors rely on that
// ordering. Descriptor files in XML form additionally support a line-oriented
// regex mode (see Rule).
package substitution
