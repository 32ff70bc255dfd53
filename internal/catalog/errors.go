package catalog

import "fmt"

// CatalogError reports a malformed or invariant-violating catalog. It is
// a fatal startup error: a process must not serve requests against a
// catalog that failed to load.
type CatalogError struct {
	Reason string
	Err    error
}

func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("catalog: %s", e.Reason)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

func catalogErrorf(format string, args ...interface{}) *CatalogError {
	return &CatalogError{Reason: fmt.Sprintf(format, args...)}
}
