package internal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
)

var ErrCommandFailed = errors.New("command failed")

// Warning qualifies a result without invalidating it.
type Warning string

const (
	// WarnTooFast means the mean is below the reliable measurement threshold.
	WarnTooFast Warning = "too-fast"
	// WarnNonZeroExit means non-zero exit codes were ignored.
	WarnNonZeroExit Warning = "non-zero-exit"
	// WarnOutliers means statistical outliers were detected.
	WarnOutliers Warning = "outliers"
)

// Benchmark turns the repeated execution of one command into one result.
type Benchmark struct {
	number   int
	command  *Command
	options  *Options
	executor Executor
	printer  *Printer
	warnings []Warning
}

func NewBenchmark(number int, command *Command, options *Options, executor Executor, printer *Printer) *Benchmark {
	return &Benchmark{
		number:   number,
		command:  command,
		options:  options,
		executor: executor,
		printer:  printer,
	}
}

// Warnings returns the warnings raised by the last call to Run.
func (b *Benchmark) Warnings() []Warning {
	return b.warnings
}

// Run performs the warmup and the measured runs and reduces them into a
// result. A run that is interrupted is discarded.
func (b *Benchmark) Run(ctx context.Context) (*BenchmarkResult, error) {
	b.warnings = nil
	b.printer.Log("bold", fmt.Sprintf("Benchmark %d: %s", b.number+1, b.command))

	if err := b.warmup(ctx); err != nil {
		return nil, err
	}

	samples, err := b.measure(ctx)
	if err != nil {
		return nil, err
	}

	if b.options.Cleanup != "" {
		if err := b.runAuxiliary(ctx, "cleanup", b.options.Cleanup); err != nil {
			return nil, err
		}
	}

	result := reduce(b.command, samples)
	if err := result.Consolify(b.printer); err != nil {
		return nil, err
	}
	b.checkWarnings(&result)
	result.Warnings = slices.Clone(b.warnings)
	b.printer.Log("white", "")
	return &result, nil
}

func (b *Benchmark) warmup(ctx context.Context) error {
	if b.options.Warmup == 0 {
		return nil
	}

	bar := b.printer.ProgressBar(b.options.Warmup, "Performing warmup runs")
	defer bar.Finish()
	for i := 0; i < b.options.Warmup; i++ {
		if _, err := b.runMeasured(ctx); err != nil {
			return err
		}
		bar.Add(1)
	}
	return nil
}

func (b *Benchmark) measure(ctx context.Context) ([]RawSample, error) {
	bar := b.printer.ProgressBar(b.initialRunEstimate(), "Performing benchmark runs")
	defer bar.Finish()

	var samples []RawSample
	var elapsed, sum float64
	for b.needsMoreRuns(len(samples), elapsed) {
		sample, err := b.runMeasured(ctx)
		if err != nil {
			return nil, err
		}

		corrected := sample.corrected(b.executor.Overhead())
		samples = append(samples, corrected)
		elapsed += sample.WallTime
		sum += corrected.WallTime

		if len(samples) == 1 && b.options.Runs == 0 {
			bar.ChangeMax(b.runEstimate(sample.WallTime))
		}
		bar.Add(1)
		b.printer.describeBar(bar, "Current estimate:", formatSeconds(sum/float64(len(samples)), 0))
	}
	return samples, nil
}

// needsMoreRuns implements the stopping rule: an explicit run count wins;
// otherwise run until both the minimum count and the minimum benchmarking
// time are reached, bounded by the optional maximum count. When no time at
// all has been measured the time criterion cannot make progress and is
// dropped.
func (b *Benchmark) needsMoreRuns(runs int, elapsed float64) bool {
	if b.options.Runs > 0 {
		return runs < b.options.Runs
	}
	if b.options.MaxRuns > 0 && runs >= b.options.MaxRuns {
		return false
	}
	if runs < b.options.MinRuns {
		return true
	}
	return elapsed > 0 && elapsed < b.options.MinBenchmarkingTime.Seconds()
}

func (b *Benchmark) initialRunEstimate() int {
	if b.options.Runs > 0 {
		return b.options.Runs
	}
	return b.options.MinRuns
}

// runEstimate predicts the number of runs from the duration of the first one.
func (b *Benchmark) runEstimate(first float64) int {
	estimate := b.options.MinRuns
	if first > 0 {
		needed := math.Ceil(b.options.MinBenchmarkingTime.Seconds() / first)
		if needed > float64(estimate) {
			estimate = int(min(needed, math.MaxInt32))
		}
	}
	if b.options.MaxRuns > 0 {
		estimate = min(estimate, b.options.MaxRuns)
	}
	return estimate
}

// runMeasured runs the prepare command, then the command itself, and checks
// its exit code.
func (b *Benchmark) runMeasured(ctx context.Context) (RawSample, error) {
	if err := ctx.Err(); err != nil {
		return RawSample{}, err
	}
	if b.options.Prepare != "" {
		if err := b.runAuxiliary(ctx, "prepare", b.options.Prepare); err != nil {
			return RawSample{}, err
		}
	}

	sample, err := b.executor.RunOnce(ctx, b.command.Executed())
	if err != nil {
		return RawSample{}, commandError(ctx, err)
	}
	if !sample.Succeeded() && !b.options.IgnoreFailure {
		return RawSample{}, fmt.Errorf(
			"%w: `%s` terminated with %s. Use the --ignore-failure option if you want to ignore this.",
			ErrCommandFailed, b.command.Executed(), describeExit(sample.ExitCode))
	}
	return sample, nil
}

func (b *Benchmark) runAuxiliary(ctx context.Context, kind, template string) error {
	command := b.command.Substitute(template)
	sample, err := b.executor.RunOnce(ctx, command)
	if err != nil {
		return commandError(ctx, fmt.Errorf("the %s command: %w", kind, err))
	}
	if !sample.Succeeded() {
		return fmt.Errorf("%w: the %s command `%s` terminated with %s", ErrCommandFailed, kind, command, describeExit(sample.ExitCode))
	}
	return nil
}

// commandError scopes a failure to spawn or interpret a command to that
// command, like a non-zero exit. Cancellation stays as it is.
func commandError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCommandFailed, err)
}

func describeExit(code *int) string {
	if code == nil {
		return "no exit code (killed by a signal?)"
	}
	return fmt.Sprintf("non-zero exit code %d", *code)
}

func (b *Benchmark) checkWarnings(result *BenchmarkResult) {
	if b.options.IgnoreFailure {
		for _, code := range result.ExitCodes {
			if code == nil || *code != 0 {
				b.warn(WarnNonZeroExit, "Ignoring non-zero exit code.")
				break
			}
		}
	}

	threshold := b.options.TooFastThreshold
	if result.Mean < threshold.Seconds() {
		b.warn(WarnTooFast, fmt.Sprintf(
			"Command took less than %s to complete. Note that the results might be inaccurate "+
				"because the spawning overhead cannot be calibrated much more precisely than this limit. "+
				"You can try to use the `--executor raw` option to benchmark commands without a shell.",
			threshold.Round(time.Microsecond)))
	}

	if TestOutliers(result.Times) {
		message := "Statistical outliers were detected. Consider re-running this benchmark on a quiet system, " +
			"devoid of any interferences from other programs."
		if b.options.Warmup == 0 {
			message += " It might help to use the --warmup flag."
		} else {
			message += " Since you're already using the --warmup flag, you can consider increasing the warmup count."
		}
		b.warn(WarnOutliers, message)
	}
}

func (b *Benchmark) warn(w Warning, message string) {
	b.warnings = append(b.warnings, w)
	b.printer.Warn(message)
}
