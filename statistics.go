package smallalloc

import "github.com/launchdarkly/go-jsonstream/v3/jwriter"

// Statistics is a coarse snapshot of live allocation activity. It is
// pure observability: nothing in the allocator or pool consults it to
// make allocation decisions.
type Statistics struct {
	BlockCount      int
	AllocationCount int
	BlockBytes      int
	AllocationBytes int
}

// Clear resets the statistics to their zero state.
func (s *Statistics) Clear() {
	*s = Statistics{}
}

// AddStatistics folds other into s.
func (s *Statistics) AddStatistics(other *Statistics) {
	s.BlockCount += other.BlockCount
	s.AllocationCount += other.AllocationCount
	s.BlockBytes += other.BlockBytes
	s.AllocationBytes += other.AllocationBytes
}

// WriteJSON writes the statistics fields into an in-progress JSON
// object.
func (s *Statistics) WriteJSON(json jwriter.ObjectState) {
	json.Name("BlockCount").Int(s.BlockCount)
	json.Name("AllocationCount").Int(s.AllocationCount)
	json.Name("BlockBytes").Int(s.BlockBytes)
	json.Name("AllocationBytes").Int(s.AllocationBytes)
}
