package internal

import (
	"math"
	"slices"
	"sort"
)

// AnnotatedResult pairs a result with its speed relative to the fastest one.
type AnnotatedResult struct {
	Result              *BenchmarkResult
	RelativeSpeed       float64
	RelativeSpeedStddev *float64
	IsFastest           bool
}

// fastestIndex returns the index of the result with the smallest mean. Ties
// go to the first result in command order.
func fastestIndex(results []BenchmarkResult) int {
	fastest := 0
	for i := range results {
		if results[i].Mean < results[fastest].Mean {
			fastest = i
		}
	}
	return fastest
}

// ComputeRelativeSpeeds compares every result to the fastest one. It returns
// false when the comparison is undefined: no results, or a fastest mean of
// zero, which would mean dividing by zero.
func ComputeRelativeSpeeds(results []BenchmarkResult, sortOrder SortOrder) ([]AnnotatedResult, bool) {
	if len(results) == 0 {
		return nil, false
	}

	fastest := &results[fastestIndex(results)]
	if fastest.Mean == 0 {
		return nil, false
	}

	annotated := make([]AnnotatedResult, len(results))
	for i := range results {
		result := &results[i]
		if result == fastest {
			annotated[i] = AnnotatedResult{Result: result, RelativeSpeed: 1, IsFastest: true}
			continue
		}

		ratio := result.Mean / fastest.Mean
		annotated[i] = AnnotatedResult{
			Result:              result,
			RelativeSpeed:       ratio,
			RelativeSpeedStddev: ratioStddev(ratio, result, fastest),
		}
	}

	if sortOrder == SortByMeanTime {
		sort.SliceStable(annotated, func(i, j int) bool {
			return annotated[i].Result.Mean < annotated[j].Result.Mean
		})
	}
	return annotated, true
}

// ratioStddev propagates the uncertainty of two independent means into their
// ratio. It is nil unless both deviations are known.
func ratioStddev(ratio float64, result, fastest *BenchmarkResult) *float64 {
	if result.Stddev == nil || fastest.Stddev == nil || result.Mean == 0 {
		return nil
	}
	stddev := ratio * math.Sqrt(
		math.Pow(*result.Stddev/result.Mean, 2)+math.Pow(*fastest.Stddev/fastest.Mean, 2),
	)
	return &stddev
}

// sortResults returns a copy of results in the given order.
func sortResults(results []BenchmarkResult, sortOrder SortOrder) []BenchmarkResult {
	sorted := slices.Clone(results)
	if sortOrder == SortByMeanTime {
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Mean < sorted[j].Mean
		})
	}
	return sorted
}
