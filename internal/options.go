package internal

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidExecutor      = errors.New("invalid executor")
	ErrInvalidSortOrder     = errors.New("invalid sort order")
	ErrInvalidOutputStyle   = errors.New("invalid output style")
	ErrInvalidFailurePolicy = errors.New("invalid failure policy")
	ErrInvalidOptions       = errors.New("invalid options")
)

// ExecutorKind selects how commands are spawned for the whole run.
type ExecutorKind string

const (
	RawExecutorKind   ExecutorKind = "raw"
	ShellExecutorKind ExecutorKind = "shell"
	MockExecutorKind  ExecutorKind = "mock"
)

// SortOrder decides how results are ordered in exports and in the comparison.
type SortOrder string

const (
	SortByCommand  SortOrder = "command"
	SortByMeanTime SortOrder = "mean-time"
)

// OutputStyle controls colours and progress bars.
type OutputStyle string

const (
	StyleAuto    OutputStyle = "auto"
	StyleFull    OutputStyle = "full"
	StyleBasic   OutputStyle = "basic"
	StyleNoColor OutputStyle = "nocolor"
	StyleColor   OutputStyle = "color"
	StyleNone    OutputStyle = "none"
)

// FailurePolicy decides what happens to the run when a command fails.
type FailurePolicy string

const (
	AbortOnFailure FailurePolicy = "abort"
	SkipOnFailure  FailurePolicy = "skip"
)

// Options holds every knob of a benchmark run. It is built once at startup
// and never mutated while benchmarks are running.
type Options struct {
	Executor ExecutorKind `yaml:"executor"`
	Shell    string       `yaml:"shell"`

	Warmup int `yaml:"warmup"`
	// Runs, when positive, fixes the number of measured runs and disables
	// the adaptive stopping rule.
	Runs                int           `yaml:"runs"`
	MinRuns             int           `yaml:"min_runs"`
	MaxRuns             int           `yaml:"max_runs"`
	MinBenchmarkingTime time.Duration `yaml:"min_benchmarking_time"`
	TooFastThreshold    time.Duration `yaml:"too_fast_threshold"`
	CalibrationRuns     int           `yaml:"calibration_runs"`

	IgnoreFailure bool          `yaml:"ignore_failure"`
	FailurePolicy FailurePolicy `yaml:"failure_policy"`

	Prepare    string `yaml:"prepare"`
	Cleanup    string `yaml:"cleanup"`
	ShowOutput bool   `yaml:"show_output"`

	SortOrderExports         SortOrder   `yaml:"sort_exports"`
	SortOrderSpeedComparison SortOrder   `yaml:"sort_comparison"`
	OutputStyle              OutputStyle `yaml:"style"`

	TimeUnit      string   `yaml:"time_unit"`
	ExportFormats []string `yaml:"export"`
	ExportPrefix  string   `yaml:"export_prefix"`
	PlotFormats   []string `yaml:"plot"`
}

// DefaultShell returns the non-interactive shell used when none is configured.
func DefaultShell() string {
	if runtime.GOOS == "windows" {
		return "cmd.exe"
	}
	return "sh"
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Executor:                 ShellExecutorKind,
		Shell:                    DefaultShell(),
		MinRuns:                  10,
		MinBenchmarkingTime:      3 * time.Second,
		TooFastThreshold:         5 * time.Millisecond,
		CalibrationRuns:          50,
		FailurePolicy:            AbortOnFailure,
		SortOrderExports:         SortByCommand,
		SortOrderSpeedComparison: SortByMeanTime,
		OutputStyle:              StyleAuto,
		ExportPrefix:             "chrono-summary",
	}
}

// Validate checks the options for values the run cannot work with.
func (o *Options) Validate() error {
	switch o.Executor {
	case RawExecutorKind, MockExecutorKind:
	case ShellExecutorKind:
		if o.Shell == "" {
			return fmt.Errorf("%w: the shell executor needs a shell", ErrInvalidOptions)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidExecutor, o.Executor)
	}

	for _, order := range []SortOrder{o.SortOrderExports, o.SortOrderSpeedComparison} {
		if order != SortByCommand && order != SortByMeanTime {
			return fmt.Errorf("%w: %q", ErrInvalidSortOrder, order)
		}
	}

	switch o.OutputStyle {
	case StyleAuto, StyleFull, StyleBasic, StyleNoColor, StyleColor, StyleNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutputStyle, o.OutputStyle)
	}

	if o.FailurePolicy != AbortOnFailure && o.FailurePolicy != SkipOnFailure {
		return fmt.Errorf("%w: %q", ErrInvalidFailurePolicy, o.FailurePolicy)
	}

	if o.Warmup < 0 || o.Runs < 0 || o.MaxRuns < 0 {
		return fmt.Errorf("%w: run counts cannot be negative", ErrInvalidOptions)
	}
	if o.MinRuns < 1 {
		return fmt.Errorf("%w: at least one run is needed", ErrInvalidOptions)
	}
	if o.MaxRuns > 0 && o.MaxRuns < o.MinRuns {
		return fmt.Errorf("%w: max runs (%d) is smaller than min runs (%d)", ErrInvalidOptions, o.MaxRuns, o.MinRuns)
	}
	if o.MinBenchmarkingTime < 0 || o.TooFastThreshold < 0 {
		return fmt.Errorf("%w: durations cannot be negative", ErrInvalidOptions)
	}
	if o.CalibrationRuns < 1 {
		return fmt.Errorf("%w: at least one calibration run is needed", ErrInvalidOptions)
	}

	if o.TimeUnit != "" {
		if _, err := ParseTimeUnit(o.TimeUnit); err != nil {
			return fmt.Errorf("%w: %q", err, o.TimeUnit)
		}
	}
	if _, err := VerifyExportFormats(o.ExportFormats); err != nil {
		return err
	}
	if _, err := VerifyPlotFormats(o.PlotFormats); err != nil {
		return err
	}
	return nil
}

// ConfigFile is the on-disk form of a benchmark run.
type ConfigFile struct {
	Commands   []string        `yaml:"commands"`
	Parameters []ParameterList `yaml:"parameters"`
	Options    Options         `yaml:",inline"`
}

// LoadConfig reads a YAML config file. Keys missing from the file keep their
// default values.
func LoadConfig(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file %s: %w", path, err)
	}

	config := &ConfigFile{Options: DefaultOptions()}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %w", path, err)
	}
	return config, nil
}
