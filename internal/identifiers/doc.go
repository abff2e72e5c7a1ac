// Package identifiers finds the project identifiers declared in solution
// descriptor files and assigns each one a stable, zero-padded placeholder.
//
// A descriptor line such as
//
//	Project("{FAE04EC0-...}") = "App", "App\App.csproj", "{8BC9CEB8-...}"
//
// contributes the identifier in its last comma-separated field, stripped of
// its quote and brace wrapper. Placeholders are numbered in first-encounter
// order of a depth-first walk that visits a directory's own descriptor files
// before its subdirectories.
package identifiers
