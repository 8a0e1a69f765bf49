// Package pipeline composes feature computers into a single run.
//
// A run takes one input raster and an ordered list of invocations. Each invocation names a
// computer and carries its own option tokens. Invocations run strictly one after the other: the
// module of an invocation is loaded, its computer is given the shared input raster, its output is
// appended channel-wise to the result, and the module is unloaded before the next invocation is
// considered. At most one module is loaded at any time.
//
// The run stops on the first error. Whatever the stage that failed, the module of the failing
// invocation is unloaded before the error is returned, and no raster is returned.
//
// Observers implementing model.PipelineOption follow the run. The measure package records the
// timings of each invocation, the drawer package renders the invocation chain as a graph.
package pipeline
