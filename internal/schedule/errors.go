package schedule

import (
	"fmt"
	"time"
)

// PreconditionError reports malformed input data, such as a busy interval
// whose end does not lie after its start. It is never recoverable locally.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "precondition violated: " + e.Reason
}

// PartialAllocationError reports that the requested duration could not be
// fully placed within the searched horizon. The slots that were found are
// still returned alongside the error; the caller decides whether a partial
// result is acceptable.
type PartialAllocationError struct {
	Requested time.Duration
	Allocated time.Duration
}

func (e *PartialAllocationError) Error() string {
	return fmt.Sprintf("allocated only %s of requested %s within the search horizon", e.Allocated, e.Requested)
}
