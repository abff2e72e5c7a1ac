// Package solutiontype holds the name-keyed registry of solution-type
// backends. A backend knows how to recognize a source tree of its kind,
// package it into a template, and generate solutions from that template.
package solutiontype
