package filter

// FilterBuilderOption is a function that configures a spatial filter instance during construction.
type FilterBuilderOption func(*spatialFilter)

// WithStats is an option builder that makes the filter accumulate evaluated / kept placement
// counts into stats. The same Stats may be shared by filters running in parallel.
//
// Parameters:
//   - stats: the counters to accumulate into
//
// Returns:
//   - FilterBuilderOption: a function that applies the stats option to a filter
func WithStats(stats *Stats) FilterBuilderOption {
	return func(f *spatialFilter) {
		f.stats = stats
	}
}
