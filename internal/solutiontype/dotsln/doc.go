// Package dotsln is the solution-type backend for Visual Studio solutions
// (.sln with .csproj, .shproj and .projitems projects).
//
// Packaging replaces project identifiers declared in .sln files with
// GUID placeholders and blanks package metadata elements in project files
// into bracketed tag tokens that generation fills back in.
package dotsln
