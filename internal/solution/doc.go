// Package solution reads and writes the solution configuration file that
// carries per-solution values (author, tags, license, git settings) into a
// generate run, and moves it into a timestamped backup afterwards.
package solution
