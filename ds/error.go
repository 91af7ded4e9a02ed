package ds

import (
	"fmt"
)

type (
	// ErrUnreachableCode marks switch branches that a closed set of variants
	// should make impossible, e.g. a vector kind outside the decoder table.
	ErrUnreachableCode struct {
		Caller string
	}
)

func (r ErrUnreachableCode) Error() string {
	return fmt.Sprintf("%s: unreachable code", r.Caller)
}
