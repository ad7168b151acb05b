package domain

// BatchRun records the jobs spawned together by one fan-out, in dispatch
// order. Partial success is a valid terminal outcome.
type BatchRun struct {
	ID       string
	Target   int
	Window   int
	Jobs     []Job
	Advisory string
}

// Completed returns how many jobs settled successfully.
func (b BatchRun) Completed() int {
	n := 0
	for _, j := range b.Jobs {
		if j.Status == JobStatusCompleted {
			n++
		}
	}
	return n
}

// Settled reports whether every job reached a terminal state.
func (b BatchRun) Settled() bool {
	for _, j := range b.Jobs {
		if !j.Status.Terminal() {
			return false
		}
	}
	return true
}
