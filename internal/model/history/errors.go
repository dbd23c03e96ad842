package history

import (
	"errors"
	"fmt"

	"github.com/dshills/treemodel/internal/model/operation"
)

// ErrVersionDecrease is raised when the version is set below its current value.
var ErrVersionDecrease = errors.New("history version cannot decrease")

// VersionMismatchError is raised when an operation's base version does not
// match the history version. The document is inconsistent at that point.
type VersionMismatchError struct {
	Op       operation.Type
	Version  int
	Expected int
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("history: %s operation has base version %d, expected %d", e.Op, e.Version, e.Expected)
}
