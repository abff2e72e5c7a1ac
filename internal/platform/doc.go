// Package platform provides cross-platform filesystem operations: permission
// changes that are no-ops on Windows, recursive copies with exclusions,
// moves that survive cross-device renames, and directory removal that retries
// while another process (an IDE, a virus scanner, a build server) still holds
// a handle inside the tree.
package platform
