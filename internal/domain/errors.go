package domain

import "errors"

// Error taxonomy for the pipeline. Provider failures are absorbed at the
// aggregator boundary and have no sentinel here.
var (
	// ErrValidation marks malformed or missing required input.
	ErrValidation = errors.New("validation error")
	// ErrGeneration marks a failed oracle call.
	ErrGeneration = errors.New("generation error")
	// ErrGuardrail marks content rejected by the quality gate.
	ErrGuardrail = errors.New("guardrail rejection")
	// ErrPublish marks a transport failure.
	ErrPublish = errors.New("publish error")
	// ErrPersistence marks a state store read/write failure.
	ErrPersistence = errors.New("persistence error")
)
