package sdk

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by operations that need a ready SDK.
var ErrNotInitialized = errors.New("sdk is not initialized")

// DegradedError is emitted when the registry could not be fetched and the
// default domains were substituted.
type DegradedError struct {
	Fallback []string
	Cause    error
}

func (e *DegradedError) Error() string {
	return fmt.Sprintf("using %d default domains: %v", len(e.Fallback), e.Cause)
}

func (e *DegradedError) Unwrap() error {
	return e.Cause
}
