package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptionsAreValid(t *testing.T) {
	options := DefaultOptions()
	require.NoError(t, options.Validate())
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
		want   error
	}{
		{"unknown executor", func(o *Options) { o.Executor = "ssh" }, ErrInvalidExecutor},
		{"shell without shell", func(o *Options) { o.Shell = "" }, ErrInvalidOptions},
		{"raw without shell", func(o *Options) { o.Executor = RawExecutorKind; o.Shell = "" }, nil},
		{"sort order", func(o *Options) { o.SortOrderExports = "name" }, ErrInvalidSortOrder},
		{"comparison sort order", func(o *Options) { o.SortOrderSpeedComparison = "fastest" }, ErrInvalidSortOrder},
		{"output style", func(o *Options) { o.OutputStyle = "fancy" }, ErrInvalidOutputStyle},
		{"failure policy", func(o *Options) { o.FailurePolicy = "retry" }, ErrInvalidFailurePolicy},
		{"negative warmup", func(o *Options) { o.Warmup = -1 }, ErrInvalidOptions},
		{"no min runs", func(o *Options) { o.MinRuns = 0 }, ErrInvalidOptions},
		{"max below min", func(o *Options) { o.MinRuns = 5; o.MaxRuns = 2 }, ErrInvalidOptions},
		{"negative min time", func(o *Options) { o.MinBenchmarkingTime = -time.Second }, ErrInvalidOptions},
		{"no calibration runs", func(o *Options) { o.CalibrationRuns = 0 }, ErrInvalidOptions},
		{"time unit", func(o *Options) { o.TimeUnit = "days" }, ErrInvalidTimeUnit},
		{"export format", func(o *Options) { o.ExportFormats = []string{"xml"} }, ErrInvalidExportFormat},
		{"plot format", func(o *Options) { o.PlotFormats = []string{"pie"} }, ErrInvalidPlotFormat},
		{"explicit runs", func(o *Options) { o.Runs = 3; o.MaxRuns = 20 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := DefaultOptions()
			tt.modify(&options)
			err := options.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyPlotFormats(t *testing.T) {
	formats, err := VerifyPlotFormats([]string{"none"})
	require.NoError(t, err)
	assert.Empty(t, formats)

	formats, err = VerifyPlotFormats([]string{"bar", "all"})
	require.NoError(t, err)
	assert.Equal(t, []string{"histogram", "bar", "errorbar", "boxplot"}, formats)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chrono.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
commands:
  - sleep {t}
  - "echo a, b"
parameters:
  - name: t
    values: ["0.1", "0.2"]
executor: raw
warmup: 2
min_runs: 4
min_benchmarking_time: 500ms
failure_policy: skip
export: [json, markdown]
export_prefix: results/run
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"sleep {t}", "echo a, b"}, config.Commands)
	assert.Equal(t, []ParameterList{{Name: "t", Values: []string{"0.1", "0.2"}}}, config.Parameters)

	o := config.Options
	assert.Equal(t, RawExecutorKind, o.Executor)
	assert.Equal(t, 2, o.Warmup)
	assert.Equal(t, 4, o.MinRuns)
	assert.Equal(t, 500*time.Millisecond, o.MinBenchmarkingTime)
	assert.Equal(t, SkipOnFailure, o.FailurePolicy)
	assert.Equal(t, []string{"json", "markdown"}, o.ExportFormats)
	assert.Equal(t, "results/run", o.ExportPrefix)

	// untouched keys keep their defaults
	defaults := DefaultOptions()
	assert.Equal(t, defaults.CalibrationRuns, o.CalibrationRuns)
	assert.Equal(t, defaults.TooFastThreshold, o.TooFastThreshold)
	assert.Equal(t, defaults.SortOrderSpeedComparison, o.SortOrderSpeedComparison)
	assert.Equal(t, defaults.Shell, o.Shell)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "warmup: [1, 2"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "min_benchmarking_time: soon"))
	assert.Error(t, err)
}
