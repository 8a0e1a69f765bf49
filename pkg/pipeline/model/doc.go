// Package model provides the data structures shared by the pipeline and its observers.
// It defines the description of an invocation, the timings recorded for it,
// and the hooks an observer implements to follow a run.
package model
