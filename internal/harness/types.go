package harness

import "github.com/roach88/generic/internal/value"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if the expect clause or every assertion matched.
	Pass bool `json:"pass"`

	// Value is the projected tree, as read back from the snapshot store.
	// Nil when projection failed.
	Value value.Value `json:"-"`

	// Digest is the snapshot ID of Value.
	Digest string `json:"digest,omitempty"`

	// Err is the projection failure, if any.
	Err error `json:"-"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
