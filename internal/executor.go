package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"
)

var (
	ErrCalibration = errors.New("unable to calibrate the executor")
	ErrMockCommand = errors.New("mock executor cannot interpret command")
)

// RawSample holds the measurements of a single execution, in seconds.
// ExitCode is nil when the process could not report one (killed by a signal).
type RawSample struct {
	WallTime   float64
	UserTime   float64
	SystemTime float64
	ExitCode   *int
}

// Succeeded reports whether the process exited with code zero.
func (s RawSample) Succeeded() bool {
	return s.ExitCode != nil && *s.ExitCode == 0
}

// Overhead is the fixed cost an executor adds to every measurement.
type Overhead struct {
	WallTime   float64
	UserTime   float64
	SystemTime float64
}

// corrected removes the executor overhead, clamping every time at zero.
func (s RawSample) corrected(o Overhead) RawSample {
	s.WallTime = max(0, s.WallTime-o.WallTime)
	s.UserTime = max(0, s.UserTime-o.UserTime)
	s.SystemTime = max(0, s.SystemTime-o.SystemTime)
	return s
}

// Executor runs a command once and measures it. The set of executors is
// closed: RawExecutor, ShellExecutor and MockExecutor.
type Executor interface {
	// Calibrate estimates the overhead of the executor itself. It fails only
	// if the executor cannot spawn anything at all.
	Calibrate(ctx context.Context) error
	// RunOnce executes command exactly once. A non-zero exit code is not an
	// error, it is reported in the sample.
	RunOnce(ctx context.Context, command string) (RawSample, error)
	// Overhead returns what Calibrate measured.
	Overhead() Overhead
	Kind() ExecutorKind

	sealed()
}

// NewExecutor creates the executor selected by the options.
func NewExecutor(options *Options, printer *Printer) (Executor, error) {
	switch options.Executor {
	case RawExecutorKind:
		return &RawExecutor{showOutput: options.ShowOutput}, nil
	case ShellExecutorKind:
		return NewShellExecutor(options.Shell, options, printer)
	case MockExecutorKind:
		return NewMockExecutor(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidExecutor, options.Executor)
	}
}

// spawn starts argv, waits for it and measures wall, user and system time.
func spawn(ctx context.Context, argv []string, showOutput bool) (RawSample, error) {
	if len(argv) == 0 {
		return RawSample{}, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if showOutput {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return RawSample{}, fmt.Errorf("the command `%s` couldn't be called: %w", strings.Join(argv, " "), err)
	}
	err := cmd.Wait()
	duration := time.Since(start)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return RawSample{}, ctxErr
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return RawSample{}, fmt.Errorf("the command `%s` failed to execute: %w", strings.Join(argv, " "), err)
	}

	state := cmd.ProcessState
	sample := RawSample{
		WallTime:   duration.Seconds(),
		UserTime:   state.UserTime().Seconds(),
		SystemTime: state.SystemTime().Seconds(),
	}
	if code := state.ExitCode(); code >= 0 {
		sample.ExitCode = &code
	}
	return sample, nil
}

// RawExecutor spawns the program directly, without a shell in between.
type RawExecutor struct {
	showOutput bool
}

// Calibrate is a no-op: without an intermediate shell there is no spawning
// overhead to subtract beyond what the measured program pays itself.
func (e *RawExecutor) Calibrate(ctx context.Context) error {
	return ctx.Err()
}

func (e *RawExecutor) RunOnce(ctx context.Context, command string) (RawSample, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return RawSample{}, fmt.Errorf("unable to parse the command `%s`: %w", command, err)
	}
	return spawn(ctx, argv, e.showOutput)
}

func (e *RawExecutor) Overhead() Overhead { return Overhead{} }
func (e *RawExecutor) Kind() ExecutorKind { return RawExecutorKind }
func (e *RawExecutor) sealed()            {}

// ShellExecutor runs every command through a non-interactive shell.
type ShellExecutor struct {
	shell           []string
	showOutput      bool
	calibrationRuns int
	overhead        Overhead
	printer         *Printer
}

// NewShellExecutor creates a shell executor. shell may carry arguments, e.g.
// "bash --norc"; the flag that makes the shell read a command string is added.
func NewShellExecutor(shell string, options *Options, printer *Printer) (*ShellExecutor, error) {
	argv, err := shlex.Split(shell)
	if err != nil || len(argv) == 0 {
		return nil, fmt.Errorf("%w: unable to parse the shell `%s`", ErrInvalidOptions, shell)
	}

	base := strings.ToLower(filepath.Base(argv[0]))
	if base == "cmd" || base == "cmd.exe" {
		argv = append(argv, "/C")
	} else {
		argv = append(argv, "-c")
	}

	return &ShellExecutor{
		shell:           argv,
		showOutput:      options.ShowOutput,
		calibrationRuns: options.CalibrationRuns,
		printer:         printer,
	}, nil
}

// Calibrate runs the empty command through the shell and records the mean
// cost of spawning it.
func (e *ShellExecutor) Calibrate(ctx context.Context) error {
	bar := e.printer.ProgressBar(e.calibrationRuns, "Measuring shell spawn time")
	defer bar.Finish()

	var total Overhead
	for i := 0; i < e.calibrationRuns; i++ {
		sample, err := e.RunOnce(ctx, "")
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%w: %s: %v", ErrCalibration, strings.Join(e.shell[:len(e.shell)-1], " "), err)
		}
		if !sample.Succeeded() {
			return fmt.Errorf("%w: the shell `%s` cannot run an empty command", ErrCalibration, strings.Join(e.shell[:len(e.shell)-1], " "))
		}
		total.WallTime += sample.WallTime
		total.UserTime += sample.UserTime
		total.SystemTime += sample.SystemTime
		bar.Add(1)
	}

	n := float64(e.calibrationRuns)
	e.overhead = Overhead{
		WallTime:   total.WallTime / n,
		UserTime:   total.UserTime / n,
		SystemTime: total.SystemTime / n,
	}
	return nil
}

func (e *ShellExecutor) RunOnce(ctx context.Context, command string) (RawSample, error) {
	argv := append(append([]string(nil), e.shell...), command)
	return spawn(ctx, argv, e.showOutput)
}

func (e *ShellExecutor) Overhead() Overhead { return e.overhead }
func (e *ShellExecutor) Kind() ExecutorKind { return ShellExecutorKind }
func (e *ShellExecutor) sealed()            {}

// MockExecutor never spawns anything. Commands registered with Register
// replay their samples in a cycle; other commands are interpreted as a `;`
// separated list of `sleep <seconds>` and `exit <code>` statements, where
// sleep only adds to the reported wall time.
type MockExecutor struct {
	samples map[string][]RawSample
	calls   map[string]int
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		samples: make(map[string][]RawSample),
		calls:   make(map[string]int),
	}
}

// Register makes RunOnce(command) return the given samples in turn.
func (m *MockExecutor) Register(command string, samples ...RawSample) *MockExecutor {
	m.samples[command] = samples
	return m
}

func (m *MockExecutor) Calibrate(ctx context.Context) error {
	return ctx.Err()
}

func (m *MockExecutor) RunOnce(ctx context.Context, command string) (RawSample, error) {
	if err := ctx.Err(); err != nil {
		return RawSample{}, err
	}

	if samples, ok := m.samples[command]; ok && len(samples) > 0 {
		sample := samples[m.calls[command]%len(samples)]
		m.calls[command]++
		return sample, nil
	}
	m.calls[command]++
	return parseMockCommand(command)
}

// Calls returns how often command was run.
func (m *MockExecutor) Calls(command string) int {
	return m.calls[command]
}

func (m *MockExecutor) Overhead() Overhead { return Overhead{} }
func (m *MockExecutor) Kind() ExecutorKind { return MockExecutorKind }
func (m *MockExecutor) sealed()            {}

func parseMockCommand(command string) (RawSample, error) {
	exitCode := 0
	var sample RawSample
	for _, statement := range strings.Split(command, ";") {
		fields := strings.Fields(statement)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return RawSample{}, fmt.Errorf("%w: `%s`", ErrMockCommand, command)
		}

		switch fields[0] {
		case "sleep":
			seconds, err := strconv.ParseFloat(fields[1], 64)
			if err != nil || seconds < 0 {
				return RawSample{}, fmt.Errorf("%w: bad duration in `%s`", ErrMockCommand, command)
			}
			sample.WallTime += seconds
		case "exit":
			code, err := strconv.Atoi(fields[1])
			if err != nil {
				return RawSample{}, fmt.Errorf("%w: bad exit code in `%s`", ErrMockCommand, command)
			}
			exitCode = code
		default:
			return RawSample{}, fmt.Errorf("%w: `%s`", ErrMockCommand, command)
		}
	}
	sample.ExitCode = &exitCode
	return sample, nil
}
