package model

import "time"

// PipelineOption defines the interface for pipeline options.
// Options observe a run, they never change its result.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	pipelineInvocationOption

	// AfterRun runs once the last invocation is done or as soon as one fails.
	// runErr is the error the run returns, if any.
	AfterRun(totalDuration time.Duration, runErr error) error
	// Finish runs after the pipeline is finished.
	Finish() error
}

// pipelineInvocationOption defines the interface for invocation options at the pipeline level.
type pipelineInvocationOption interface {
	// PrepareInvocation runs before the module of the invocation is loaded.
	PrepareInvocation(parent, invocation *InvocationInfo) error
	// OnInvocationDone runs after the module of the invocation is unloaded.
	OnInvocationDone(invocation *InvocationInfo, timings Timings) error
}
