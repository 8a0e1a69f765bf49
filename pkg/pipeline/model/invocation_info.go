package model

import (
	"strconv"
	"time"
)

const (
	StageLoad    = "load"
	StageCompute = "compute"
	StageMerge   = "merge"
	StageUnload  = "unload"
)

// InvocationInfo describes one computer invocation of a run.
type InvocationInfo struct {
	Name string
	Args []string
	// Position is the 1-based rank of the invocation. Start and End have none.
	Position int
}

// ID identifies the invocation within a run. The same computer may be invoked several times.
func (i *InvocationInfo) ID() string {
	if i.Position == 0 {
		return i.Name
	}

	return "#" + strconv.Itoa(i.Position) + " " + i.Name
}

var (
	Start = &InvocationInfo{Name: "start"}
	End   = &InvocationInfo{Name: "end"}
)

// Timings are the durations of each stage of a successful invocation.
type Timings struct {
	Load    time.Duration
	Compute time.Duration
	Merge   time.Duration
	Unload  time.Duration
	// Channels is the number of channels the computer produced.
	Channels int
}

// Stages returns the durations keyed by stage name.
func (t Timings) Stages() map[string]time.Duration {
	return map[string]time.Duration{
		StageLoad:    t.Load,
		StageCompute: t.Compute,
		StageMerge:   t.Merge,
		StageUnload:  t.Unload,
	}
}
