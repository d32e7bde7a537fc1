package errors

import (
	"fmt"
)

var (
	ErrImportFailure       = fmt.Errorf("automation-api: import failure")
	ErrProviderUnavailable = fmt.Errorf("automation-api: provider unavailable")
	ErrNoMatch             = fmt.Errorf("automation-api: no matching function")
	ErrMissingParameter    = fmt.Errorf("automation-api: missing parameter")
	ErrUnrepresentable     = fmt.Errorf("automation-api: unrepresentable parameter value")
	ErrNotFound            = fmt.Errorf("automation-api: not found")
	ErrInvalidRequest      = fmt.Errorf("automation-api: invalid request")
	ErrInternal            = fmt.Errorf("automation-api: internal error")
)
