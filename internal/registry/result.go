package registry

import "time"

// ErrorKind classifies invocation failures.
type ErrorKind string

const (
	KindUnknownFunction ErrorKind = "unknown_function"
	KindHandler         ErrorKind = "handler_error"
	KindPanic           ErrorKind = "panic"
)

// ErrorPrefix starts every textual failure output.
const ErrorPrefix = "Error executing function: "

// ExecError is a structured invocation failure.
type ExecError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ExecError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Result is the outcome of Invoke.
type Result struct {
	Function FunctionID
	Output   string
	Err      *ExecError
	Duration time.Duration
}

// OK reports whether the handler succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Text renders the result for a response body.
func (r Result) Text() string {
	if r.Err != nil {
		return ErrorPrefix + r.Err.Message
	}
	return r.Output
}
