package batch

import "sync/atomic"

// Counts is one handler invocation's outcome tally, returned by value so
// handlers stay free of shared state.
type Counts struct {
	Extracted int64
	Loaded    int64
	Rejected  int64
}

// Stats reduces per-file Counts with atomic accumulation so the driver can
// run handlers from concurrent workers.
type Stats struct {
	extracted atomic.Int64
	loaded    atomic.Int64
	rejected  atomic.Int64
}

// Merge folds one handler's counts into the run totals.
func (s *Stats) Merge(c Counts) {
	s.extracted.Add(c.Extracted)
	s.loaded.Add(c.Loaded)
	s.rejected.Add(c.Rejected)
}

// Counts returns the accumulated totals.
func (s *Stats) Counts() Counts {
	return Counts{
		Extracted: s.extracted.Load(),
		Loaded:    s.loaded.Load(),
		Rejected:  s.rejected.Load(),
	}
}
