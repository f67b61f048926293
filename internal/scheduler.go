package internal

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ResultWriter persists the results collected so far. It is called with a
// growing prefix of the same list after every command (partial) and once at
// the end of the run.
type ResultWriter interface {
	WriteResults(results []BenchmarkResult, sortOrder SortOrder, partial bool) error
}

// SchedulerState is the phase a Scheduler is in. Phases only move forward.
type SchedulerState int

const (
	StateInitializing SchedulerState = iota
	StateCalibrating
	StateRunning
	StateComparing
	StateExporting
	StateDone
)

func (s SchedulerState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateCalibrating:
		return "calibrating"
	case StateRunning:
		return "running"
	case StateComparing:
		return "comparing"
	case StateExporting:
		return "exporting"
	case StateDone:
		return "done"
	default:
		panic(fmt.Sprintf("unknown scheduler state: %d", int(s)))
	}
}

// Scheduler runs every command of a run in order, with a single executor.
type Scheduler struct {
	commands Commands
	options  *Options
	exporter ResultWriter
	printer  *Printer

	state   SchedulerState
	current int
	results []BenchmarkResult
}

func NewScheduler(commands Commands, options *Options, exporter ResultWriter, printer *Printer) *Scheduler {
	return &Scheduler{
		commands: commands,
		options:  options,
		exporter: exporter,
		printer:  printer,
		state:    StateInitializing,
	}
}

// State returns the current phase and, while running, the index of the
// command being benchmarked. Once every command has run the phase is still
// StateRunning with the index equal to the number of commands.
func (s *Scheduler) State() (SchedulerState, int) {
	return s.state, s.current
}

// Results returns the results collected so far, in command order.
func (s *Scheduler) Results() []BenchmarkResult {
	return slices.Clone(s.results)
}

// RunBenchmarks calibrates one executor and benchmarks every command with it.
// The results are exported after each command, so that a failure later in
// the run does not lose what was already measured.
func (s *Scheduler) RunBenchmarks(ctx context.Context) error {
	s.state = StateCalibrating
	executor, err := NewExecutor(s.options, s.printer)
	if err != nil {
		return err
	}
	if err := executor.Calibrate(ctx); err != nil {
		return err
	}

	s.state = StateRunning
	for number, cmd := range s.commands {
		s.current = number
		result, err := NewBenchmark(number, cmd, s.options, executor, s.printer).Run(ctx)
		if err != nil {
			if errors.Is(err, ErrCommandFailed) && s.options.FailurePolicy == SkipOnFailure {
				s.printer.Error(err.Error())
				s.printer.Warn(fmt.Sprintf("Skipping benchmark %d.", number+1))
				continue
			}
			return err
		}

		s.results = append(s.results, *result)
		if err := s.exporter.WriteResults(slices.Clone(s.results), s.options.SortOrderExports, true); err != nil {
			return fmt.Errorf("unable to export results: %w", err)
		}
	}

	s.current = len(s.commands)
	return nil
}

// PrintRelativeSpeedComparison prints how the commands compare to the
// fastest one. Nothing is printed for fewer than two results.
func (s *Scheduler) PrintRelativeSpeedComparison() {
	s.state = StateComparing
	if !s.printer.Enabled() || len(s.results) < 2 {
		return
	}

	annotated, ok := ComputeRelativeSpeeds(s.results, s.options.SortOrderSpeedComparison)
	if !ok {
		fmt.Fprintf(s.printer.errOut, "%s: The benchmark comparison could not be computed as some benchmark times are zero. "+
			"This could be caused by background interference during the initial calibration phase, "+
			"in combination with very fast commands (faster than a few milliseconds). "+
			"Try to re-run the benchmark on a quiet system. If you did not do so already, try the "+
			"--executor raw option. If it does not help either, your command is most likely too fast "+
			"to be accurately benchmarked.\n",
			s.printer.Colored("red", "Note"))
		return
	}

	p := s.printer
	switch s.options.SortOrderSpeedComparison {
	case SortByMeanTime:
		p.Log("bold", "Summary")

		fastest := annotated[0]
		fmt.Fprintf(p.out, "  %s ran\n", p.Colored("cyan", fastest.Result.CommandWithUnusedParameters))
		for _, item := range annotated[1:] {
			stddev := ""
			if item.RelativeSpeedStddev != nil {
				stddev = " ± " + p.Colored("green", fmt.Sprintf("%.2f", *item.RelativeSpeedStddev))
			}
			fmt.Fprintf(p.out, "%s%s times faster than %s\n",
				p.Colored("green", fmt.Sprintf("%8.2f", item.RelativeSpeed)),
				stddev,
				p.Colored("magenta", item.Result.CommandWithUnusedParameters))
		}

	case SortByCommand:
		p.Log("bold", "Relative speed comparison")

		for _, item := range annotated {
			stddev := "        "
			if !item.IsFastest && item.RelativeSpeedStddev != nil {
				stddev = " ± " + p.Colored("green", fmt.Sprintf("%5.2f", *item.RelativeSpeedStddev))
			}
			fmt.Fprintf(p.out, "  %s%s  %s\n",
				p.Colored("green", fmt.Sprintf("%10.2f", item.RelativeSpeed)),
				stddev,
				item.Result.CommandWithUnusedParameters)
		}

	default:
		panic(fmt.Sprintf("unknown sort order: %q", s.options.SortOrderSpeedComparison))
	}
}

// FinalExport writes the results one last time, in final mode.
func (s *Scheduler) FinalExport() error {
	s.state = StateExporting
	if err := s.exporter.WriteResults(slices.Clone(s.results), s.options.SortOrderExports, false); err != nil {
		return fmt.Errorf("unable to export results: %w", err)
	}
	s.state = StateDone
	return nil
}
