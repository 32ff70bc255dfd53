package engine

import (
	"fmt"
	"strings"

	"promptforge/internal/catalog"
)

// InvalidHintError reports an explicit pattern id outside the valid
// range. The request is rejected immediately; there is nothing to retry.
type InvalidHintError struct {
	Hint int
}

func (e *InvalidHintError) Error() string {
	return fmt.Sprintf("explicit pattern id %d out of range 1-%d", e.Hint, catalog.PatternCount)
}

// IncompleteContextError reports that one or more layers selected by the
// minimization rules have no caller-supplied payload. It names the
// missing layers so the request can be resubmitted with more data.
type IncompleteContextError struct {
	Missing []catalog.LayerID
}

func (e *IncompleteContextError) Error() string {
	names := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		names[i] = string(id)
	}
	return fmt.Sprintf("missing payload for required context layer(s): %s", strings.Join(names, ", "))
}
