package internal

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

var ErrInvalidTimeUnit = errors.New("invalid time unit")

// DurationFromNumber converts a number of the given unit into a duration,
// rounded to the microsecond.
func DurationFromNumber[T numberLike](number T, unit time.Duration) time.Duration {
	switch unit {
	case time.Nanosecond, time.Microsecond, time.Millisecond, time.Second, time.Minute, time.Hour:
	default:
		// this function is only used internally, panic if unknown time unit is passed
		panic("unknown time unit in DurationFromNumber: " + unit.String())
	}
	return time.Duration(float64(number) * float64(unit)).Round(time.Microsecond)
}

func ParseTimeUnit(unitString string) (time.Duration, error) {
	switch strings.TrimSpace(strings.ToLower(unitString)) {
	case "ns":
		return time.Nanosecond, nil
	case "us", "µs":
		return time.Microsecond, nil
	case "ms":
		return time.Millisecond, nil
	case "s":
		return time.Second, nil
	case "m":
		return time.Minute, nil
	case "h":
		return time.Hour, nil
	default:
		return 0, ErrInvalidTimeUnit
	}
}

// unitShortName is the suffix printed for the unit, e.g. "ms".
func unitShortName(unit time.Duration) string {
	switch unit {
	case time.Nanosecond:
		return "ns"
	case time.Microsecond:
		return "µs"
	case time.Millisecond:
		return "ms"
	case time.Second:
		return "s"
	case time.Minute:
		return "m"
	case time.Hour:
		return "h"
	default:
		panic("unitShortName: unknown time unit: " + unit.String())
	}
}

// convertToTimeUnit converts seconds into the given unit.
func convertToTimeUnit(seconds float64, unit time.Duration) float64 {
	return seconds * float64(time.Second) / float64(unit)
}

// autoTimeUnit picks milliseconds for sub-second values and seconds otherwise.
func autoTimeUnit(seconds float64) time.Duration {
	if seconds < 1 {
		return time.Millisecond
	}
	return time.Second
}

// formatSeconds renders a time for the console, in the automatic unit unless
// one is given.
func formatSeconds(seconds float64, unit time.Duration) string {
	if unit == 0 {
		unit = autoTimeUnit(seconds)
	}
	return fmt.Sprintf("%s %s", formatInUnit(seconds, unit), unitShortName(unit))
}

// formatInUnit renders seconds in unit, with one decimal for units below a
// second and three otherwise.
func formatInUnit(seconds float64, unit time.Duration) string {
	digits := 3
	if unit < time.Second {
		digits = 1
	}
	return fmt.Sprintf("%.*f", digits, convertToTimeUnit(seconds, unit))
}

// ModifyTimeUnit returns copies of the given results with every time
// attribute converted from seconds into timeUnit.
func ModifyTimeUnit(results []BenchmarkResult, timeUnit time.Duration) []BenchmarkResult {
	converted := make([]BenchmarkResult, len(results))
	copy(converted, results)
	if timeUnit == time.Second {
		return converted
	}

	var wg sync.WaitGroup
	for i := range converted {
		wg.Add(1)
		go func(sr *BenchmarkResult) {
			defer wg.Done()
			sr.Mean = convertToTimeUnit(sr.Mean, timeUnit)
			sr.Median = convertToTimeUnit(sr.Median, timeUnit)
			sr.User = convertToTimeUnit(sr.User, timeUnit)
			sr.System = convertToTimeUnit(sr.System, timeUnit)
			sr.Max = convertToTimeUnit(sr.Max, timeUnit)
			sr.Min = convertToTimeUnit(sr.Min, timeUnit)
			if sr.Stddev != nil {
				stddev := convertToTimeUnit(*sr.Stddev, timeUnit)
				sr.Stddev = &stddev
			}
			sr.Times = MapFunc[[]float64, []float64](func(t float64) float64 { return convertToTimeUnit(t, timeUnit) }, sr.Times)
		}(&converted[i])
	}
	wg.Wait()
	return converted
}
