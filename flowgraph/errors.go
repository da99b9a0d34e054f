package flowgraph

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNilExit        = errors.New("flowgraph: block exit is nil")
	ErrNoSource       = errors.New("flowgraph: source block is not set or not live")
	ErrNotSingleEntry = errors.New("flowgraph: region has more than one entry")
)

// InvalidTargetError is returned when an exit refers to a block that does not
// exist.
type InvalidTargetError struct {
	Block  int // Block whose exit is invalid.
	Target int // The offending target.
}

func (e InvalidTargetError) Error() string {
	if e.Target < 0 {
		return fmt.Sprintf("flowgraph: block #%d has unresolved target", e.Block)
	}
	return fmt.Sprintf("flowgraph: block #%d targets missing block #%d", e.Block, e.Target)
}

// UnknownBlockError is returned when querying a block index out of range or a
// removed block.
type UnknownBlockError struct {
	Index int
}

func (e UnknownBlockError) Error() string {
	return fmt.Sprintf("flowgraph: unknown block #%d", e.Index)
}
