package internal

import (
	"math"
	"slices"
	"sort"

	"github.com/gonum/stat"
)

// borrowed from hyperfine
// https://github.com/sharkdp/hyperfine/blob/master/src/outlier_detection.rs
const OUTLIER_THRESHOLD = 14.826

type numberLike interface {
	~int | ~float64 | ~int32 | ~int64 | ~float32
}

// ComputeAverageAndStandardDeviation returns the mean and the sample standard
// deviation of data. The deviation is nil for fewer than two values, a single
// measurement says nothing about the spread.
func ComputeAverageAndStandardDeviation[T numberLike](data []T) (float64, *float64) {
	values := MapFunc[[]T, []float64](func(v T) float64 { return float64(v) }, data)
	if len(values) < 2 {
		if len(values) == 0 {
			return 0, nil
		}
		return values[0], nil
	}

	mean, stddev := stat.MeanStdDev(values, nil)
	return mean, &stddev
}

// returns a slice of absolute z-scores of each data point
func calculateModifiedZScore(data []float64) []float64 {
	median := calculateMedian(data)
	mad := calculateMAD(data, median)

	modifiedZScores := make([]float64, len(data))
	for i, value := range data {
		deviation := value - median
		switch {
		case deviation == 0:
			modifiedZScores[i] = 0
		case mad == 0:
			modifiedZScores[i] = math.Inf(1)
		default:
			modifiedZScores[i] = math.Abs(0.6745 * deviation / mad)
		}
	}

	return modifiedZScores
}

// calculates the median of data, without reordering it
func calculateMedian(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := slices.Clone(data)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// calculates the median absolute deviation of data
func calculateMAD(data []float64, median float64) float64 {
	absoluteDeviations := make([]float64, len(data))
	for i, value := range data {
		absoluteDeviations[i] = math.Abs(value - median)
	}
	return calculateMedian(absoluteDeviations)
}

// TestOutliers returns true if there are any statistical outliers in the data.
func TestOutliers[T numberLike](data []T) bool {
	if len(data) < 2 {
		return false
	}
	zScores := calculateModifiedZScore(MapFunc[[]T, []float64](func(x T) float64 { return float64(x) }, data))
	return len(
		FilterFunc(func(z float64) bool { return z > OUTLIER_THRESHOLD },
			zScores)) != 0
}

// reduce turns the samples of one command into its result.
func reduce(command *Command, samples []RawSample) BenchmarkResult {
	walls := MapFunc[[]RawSample, []float64](func(s RawSample) float64 { return s.WallTime }, samples)
	users := MapFunc[[]RawSample, []float64](func(s RawSample) float64 { return s.UserTime }, samples)
	systems := MapFunc[[]RawSample, []float64](func(s RawSample) float64 { return s.SystemTime }, samples)

	mean, stddev := ComputeAverageAndStandardDeviation(walls)
	userMean, _ := ComputeAverageAndStandardDeviation(users)
	systemMean, _ := ComputeAverageAndStandardDeviation(systems)

	result := BenchmarkResult{
		Command:                     command.Executed(),
		CommandWithUnusedParameters: command.WithUnusedParameters(),
		Stddev:                      stddev,
		User:                        userMean,
		System:                      systemMean,
		Times:                       walls,
		ExitCodes:                   MapFunc[[]RawSample, []*int](func(s RawSample) *int { return s.ExitCode }, samples),
		Parameters:                  command.Parameters(),
	}
	if len(walls) > 0 {
		result.Min = slices.Min(walls)
		result.Max = slices.Max(walls)
		result.Median = calculateMedian(walls)
		// summation error must not push the mean outside the observed range
		result.Mean = min(max(mean, result.Min), result.Max)
	}
	return result
}
