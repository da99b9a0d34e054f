package region

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNonContiguousRange = errors.New("region: protected range is not contiguous")
	ErrEmptyRange         = errors.New("region: protected range is empty")
	ErrCleanupBypassed    = errors.New("region: protected range exit bypasses cleanup")
)

// RangeError reports a malformed protected range entered at Entry. Block is
// the offending block, if any.
type RangeError struct {
	Entry int
	Block int
	Err   error
}

func (e RangeError) Error() string {
	if e.Block < 0 {
		return fmt.Sprintf("%v (entry #%d)", e.Err, e.Entry)
	}
	return fmt.Sprintf("%v (entry #%d, block #%d)", e.Err, e.Entry, e.Block)
}

func (e RangeError) Cause() error  { return e.Err }
func (e RangeError) Unwrap() error { return e.Err }
