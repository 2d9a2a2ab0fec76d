package harness

// TraceEvent is one executed step in the trace: the op, its payload, and the
// observed outcome. Seq is the logical step clock, starting at 1.
type TraceEvent struct {
	Seq       int64          `json:"seq"`
	Op        string         `json:"op"`
	Row       map[string]any `json:"row,omitempty"`
	Key       []any          `json:"key,omitempty"`
	Field     string         `json:"field,omitempty"`
	Value     any            `json:"value,omitempty"`
	Applied   *int           `json:"applied,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
	Found     *bool          `json:"found,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every step expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// AppliedTotal is the sum of applied counts across all apply steps.
	AppliedTotal int `json:"applied_total"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
