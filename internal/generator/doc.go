// Package generator materializes a new solution from a template archive.
//
// A run is a linear state machine:
//
//	Init → DirectoryCheck → GitSetup → Unpack → Substitute →
//	RunCommands → Cleanup → Instructions → ConfigBackup → Done
//
// Only RunCommands recovers from failure: the failing command and every
// command after it are handed back as manual instructions and the run
// continues.
package generator
