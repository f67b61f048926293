package internal

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietPrinter() *Printer {
	return NewPrinter(io.Discard, io.Discard, StyleNone)
}

func mockOptions() *Options {
	options := DefaultOptions()
	options.Executor = MockExecutorKind
	options.MinRuns = 3
	options.MinBenchmarkingTime = 0
	return &options
}

func exitCode(code int) *int {
	return &code
}

func sample(wall float64, code int) RawSample {
	return RawSample{WallTime: wall, UserTime: wall / 2, SystemTime: wall / 4, ExitCode: exitCode(code)}
}

type overheadExecutor struct {
	*MockExecutor
	overhead Overhead
}

func (e *overheadExecutor) Overhead() Overhead { return e.overhead }

func TestBenchmarkSingleRun(t *testing.T) {
	options := mockOptions()
	options.Runs = 1

	result, err := NewBenchmark(0, NewCommand("sleep 0.5"), options, NewMockExecutor(), quietPrinter()).Run(context.Background())
	require.NoError(t, err)

	assert.Nil(t, result.Stddev)
	assert.Equal(t, 0.5, result.Mean)
	assert.Equal(t, 0.5, result.Median)
	assert.Equal(t, 1, result.Runs())
	assert.Len(t, result.Times, 1)
}

func TestBenchmarkReduction(t *testing.T) {
	options := mockOptions()
	options.Runs = 4

	executor := NewMockExecutor().Register("cmd",
		sample(1, 0), sample(4, 0), sample(2, 0), sample(3, 0))
	result, err := NewBenchmark(0, NewCommand("cmd"), options, executor, quietPrinter()).Run(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 2.5, result.Mean, 1e-12)
	assert.InDelta(t, 2.5, result.Median, 1e-12)
	require.NotNil(t, result.Stddev)
	assert.InDelta(t, 1.2909944, *result.Stddev, 1e-6)
	assert.Equal(t, 1.0, result.Min)
	assert.Equal(t, 4.0, result.Max)
	assert.InDelta(t, 1.25, result.User, 1e-12)
	assert.InDelta(t, 0.625, result.System, 1e-12)
	assert.Equal(t, []float64{1, 4, 2, 3}, result.Times)
	assert.Len(t, result.ExitCodes, 4)

	assert.LessOrEqual(t, result.Min, result.Mean)
	assert.LessOrEqual(t, result.Mean, result.Max)
	assert.LessOrEqual(t, result.Min, result.Median)
	assert.LessOrEqual(t, result.Median, result.Max)
}

func TestBenchmarkStoppingRule(t *testing.T) {
	tests := []struct {
		name    string
		command string
		runs    int
		minRuns int
		maxRuns int
		minTime time.Duration
		want    int
	}{
		{"min runs only", "sleep 0.5", 0, 3, 0, 0, 3},
		{"min time dominates", "sleep 0.5", 0, 3, 0, 2 * time.Second, 4},
		{"min runs dominate", "sleep 0.5", 0, 6, 0, time.Second, 6},
		{"max runs cap", "sleep 0.5", 0, 2, 5, 100 * time.Second, 5},
		{"explicit runs override", "sleep 0.5", 7, 3, 0, 100 * time.Second, 7},
		{"zero time cannot reach min time", "sleep 0", 0, 3, 0, 3 * time.Second, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := mockOptions()
			options.Runs = tt.runs
			options.MinRuns = tt.minRuns
			options.MaxRuns = tt.maxRuns
			options.MinBenchmarkingTime = tt.minTime

			executor := NewMockExecutor()
			result, err := NewBenchmark(0, NewCommand(tt.command), options, executor, quietPrinter()).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Runs())
			assert.Equal(t, tt.want, executor.Calls(tt.command))
		})
	}
}

func TestBenchmarkWarmupIsDiscarded(t *testing.T) {
	options := mockOptions()
	options.Runs = 2
	options.Warmup = 3

	executor := NewMockExecutor().Register("cmd",
		sample(9, 0), sample(9, 0), sample(9, 0), sample(1, 0), sample(1, 0))
	result, err := NewBenchmark(0, NewCommand("cmd"), options, executor, quietPrinter()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, executor.Calls("cmd"))
	assert.Equal(t, []float64{1, 1}, result.Times)
	assert.Equal(t, 1.0, result.Mean)
}

func TestBenchmarkFailsFast(t *testing.T) {
	options := mockOptions()
	options.Runs = 5

	executor := NewMockExecutor().Register("cmd", sample(1, 0), sample(1, 3), sample(1, 0))
	result, err := NewBenchmark(0, NewCommand("cmd"), options, executor, quietPrinter()).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommandFailed))
	assert.Contains(t, err.Error(), "non-zero exit code 3")
	assert.Nil(t, result)
	assert.Equal(t, 2, executor.Calls("cmd"))
}

func TestBenchmarkFailsWithoutExitCode(t *testing.T) {
	options := mockOptions()
	options.Runs = 2

	executor := NewMockExecutor().Register("cmd", RawSample{WallTime: 1})
	_, err := NewBenchmark(0, NewCommand("cmd"), options, executor, quietPrinter()).Run(context.Background())
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestBenchmarkIgnoreFailure(t *testing.T) {
	options := mockOptions()
	options.Runs = 3
	options.IgnoreFailure = true

	executor := NewMockExecutor().Register("cmd", sample(0.1, 0), sample(0.1, 2), RawSample{WallTime: 0.1})
	b := NewBenchmark(0, NewCommand("cmd"), options, executor, quietPrinter())
	result, err := b.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.ExitCodes, 3)
	assert.Equal(t, 0, *result.ExitCodes[0])
	assert.Equal(t, 2, *result.ExitCodes[1])
	assert.Nil(t, result.ExitCodes[2])
	assert.Contains(t, b.Warnings(), WarnNonZeroExit)
	assert.Equal(t, []Warning{WarnNonZeroExit}, result.Warnings)
}

func TestBenchmarkTooFastWarning(t *testing.T) {
	tests := []struct {
		command string
		warn    bool
	}{
		{"sleep 0.001", true},
		{"sleep 0", true},
		{"sleep 0.01", false},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			options := mockOptions()
			options.Runs = 2

			b := NewBenchmark(0, NewCommand(tt.command), options, NewMockExecutor(), quietPrinter())
			result, err := b.Run(context.Background())
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.warn, contains(b.Warnings(), WarnTooFast))
			assert.Equal(t, tt.warn, contains(result.Warnings, WarnTooFast))
		})
	}
}

func contains(warnings []Warning, w Warning) bool {
	for _, got := range warnings {
		if got == w {
			return true
		}
	}
	return false
}

func TestBenchmarkOutlierWarning(t *testing.T) {
	options := mockOptions()
	options.Runs = 10

	executor := NewMockExecutor().Register("cmd",
		sample(1, 0), sample(1.01, 0), sample(0.99, 0), sample(1, 0), sample(1.02, 0),
		sample(0.98, 0), sample(1, 0), sample(1.01, 0), sample(0.99, 0), sample(30, 0))
	b := NewBenchmark(0, NewCommand("cmd"), options, executor, quietPrinter())
	_, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, b.Warnings(), WarnOutliers)
}

func TestBenchmarkPrepareAndCleanup(t *testing.T) {
	options := mockOptions()
	options.Runs = 4
	options.Warmup = 1
	options.Prepare = "sleep {delay}"
	options.Cleanup = "sleep 0.2"

	executor := NewMockExecutor()
	command := NewCommand("sleep 1", Parameter{Name: "delay", Value: "0.1"})
	result, err := NewBenchmark(0, command, options, executor, quietPrinter()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, executor.Calls("sleep 0.1"))
	assert.Equal(t, 1, executor.Calls("sleep 0.2"))
	assert.Equal(t, 1.0, result.Mean)
}

func TestBenchmarkPrepareFailure(t *testing.T) {
	options := mockOptions()
	options.Runs = 4
	options.Prepare = "exit 2"

	executor := NewMockExecutor()
	_, err := NewBenchmark(0, NewCommand("sleep 1"), options, executor, quietPrinter()).Run(context.Background())
	require.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "prepare")
	assert.Equal(t, 0, executor.Calls("sleep 1"))
}

func TestBenchmarkOverheadCorrection(t *testing.T) {
	options := mockOptions()
	options.Runs = 2

	executor := &overheadExecutor{
		MockExecutor: NewMockExecutor().Register("cmd",
			RawSample{WallTime: 0.3, UserTime: 0.2, SystemTime: 0.1, ExitCode: exitCode(0)},
			RawSample{WallTime: 0.05, UserTime: 0.2, SystemTime: 0.01, ExitCode: exitCode(0)}),
		overhead: Overhead{WallTime: 0.1, UserTime: 0.05, SystemTime: 0.05},
	}
	result, err := NewBenchmark(0, NewCommand("cmd"), options, executor, quietPrinter()).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Times, 2)
	assert.InDelta(t, 0.2, result.Times[0], 1e-12)
	assert.Equal(t, 0.0, result.Times[1])
	assert.InDelta(t, 0.15, result.User, 1e-12)
	assert.InDelta(t, 0.025, result.System, 1e-12)
}

func TestBenchmarkCancelled(t *testing.T) {
	options := mockOptions()
	options.Runs = 3

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewBenchmark(0, NewCommand("sleep 1"), options, NewMockExecutor(), quietPrinter()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrCommandFailed)
	assert.Nil(t, result)
}

func TestBenchmarkCommandThatCannotRun(t *testing.T) {
	options := mockOptions()
	options.Runs = 2

	_, err := NewBenchmark(0, NewCommand("bogus"), options, NewMockExecutor(), quietPrinter()).Run(context.Background())
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.ErrorIs(t, err, ErrMockCommand)

	options.Prepare = "bogus prepare"
	_, err = NewBenchmark(0, NewCommand("sleep 1"), options, NewMockExecutor(), quietPrinter()).Run(context.Background())
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.Contains(t, err.Error(), "prepare")
}

func TestBenchmarkCarriesParameters(t *testing.T) {
	options := mockOptions()
	options.Runs = 2

	command := NewCommand("sleep {t}", Parameter{"t", "0.5"}, Parameter{"unused", "x"})
	result, err := NewBenchmark(0, command, options, NewMockExecutor(), quietPrinter()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "sleep 0.5", result.Command)
	assert.Equal(t, "sleep 0.5 (unused = x)", result.CommandWithUnusedParameters)
	assert.Equal(t, map[string]string{"t": "0.5", "unused": "x"}, result.Parameters)
}
