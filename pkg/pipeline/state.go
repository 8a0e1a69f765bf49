package pipeline

// State is the stage a run is in.
type State int

const (
	Idle State = iota
	Loading
	Computing
	Merging
	Unloading
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Computing:
		return "computing"
	case Merging:
		return "merging"
	case Unloading:
		return "unloading"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
