package registry

import (
	"context"
	"fmt"
)

// Outcome is the result envelope of one function invocation. A failed
// invocation is data, not a service error: the function was matched and
// called, it just did not succeed.
type Outcome struct {
	Success  bool   `json:"success"`
	Result   any    `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
	Function string `json:"function"`
}

// Invoke calls the entry's function, converting errors and panics into a
// failed Outcome.
func Invoke(ctx context.Context, entry *FunctionEntry, params map[string]any) (outcome *Outcome) {
	outcome = &Outcome{Function: entry.QualifiedName}

	defer func() {
		if r := recover(); r != nil {
			outcome.Success = false
			outcome.Result = nil
			outcome.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	result, err := entry.Function.Call(ctx, params)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Success = true
	outcome.Result = result
	return outcome
}
