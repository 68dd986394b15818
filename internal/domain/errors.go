package domain

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the pipeline. Callers match them with errors.Is.
var (
	// ErrConfiguration indicates invalid or missing configuration,
	// surfaced before any pipeline step executes.
	ErrConfiguration = errors.New("configuration error")

	// ErrTransientProvider indicates a retryable provider failure
	// (network, rate limit, timeout).
	ErrTransientProvider = errors.New("transient provider error")

	// ErrFatalProvider indicates a non-retryable provider failure
	// (authentication, malformed request).
	ErrFatalProvider = errors.New("fatal provider error")

	// ErrDimensionMismatch indicates a vector whose dimension differs
	// from the index, a corpus/model mismatch.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexExists indicates the index already exists and overwrite
	// was not requested.
	ErrIndexExists = errors.New("index already exists")

	// ErrStoreUnavailable indicates a vector store connectivity failure.
	// The store client does not retry; callers decide the retry policy.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrInvalidQuery indicates an empty or whitespace-only question.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidArgument indicates a caller input error.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAnswerGeneration indicates the completion model failed while
	// synthesizing an answer. Not retried by default.
	ErrAnswerGeneration = errors.New("answer generation failed")

	// ErrEvaluation indicates a scoring provider failure. Non-fatal to
	// the pipeline; the produced answer remains valid.
	ErrEvaluation = errors.New("evaluation failed")
)

// StepError attributes a failure to the pipeline step it occurred in,
// keeping the underlying provider error message verbatim.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// NewStepError wraps err with the name of the failing step.
func NewStepError(step string, err error) *StepError {
	return &StepError{Step: step, Err: err}
}
