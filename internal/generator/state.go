package generator

import "fmt"

// State is a step of a generate run.
type State int

const (
	StateInit State = iota
	StateDirectoryCheck
	StateGitSetup
	StateUnpack
	StateSubstitute
	StateRunCommands
	StateCleanup
	StateInstructions
	StateConfigBackup
	StateDone
)

var stateNames = [...]string{
	"Init",
	"DirectoryCheck",
	"GitSetup",
	"Unpack",
	"Substitute",
	"RunCommands",
	"Cleanup",
	"Instructions",
	"ConfigBackup",
	"Done",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}
