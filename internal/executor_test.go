package internal

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecutor(t *testing.T) {
	tests := []struct {
		kind    ExecutorKind
		want    ExecutorKind
		wantErr bool
	}{
		{RawExecutorKind, RawExecutorKind, false},
		{ShellExecutorKind, ShellExecutorKind, false},
		{MockExecutorKind, MockExecutorKind, false},
		{"docker", "", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			options := DefaultOptions()
			options.Executor = tt.kind
			executor, err := NewExecutor(&options, quietPrinter())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidExecutor)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, executor.Kind())
		})
	}
}

func TestMockExecutorParsesCommands(t *testing.T) {
	tests := []struct {
		command  string
		wall     float64
		exitCode int
		wantErr  bool
	}{
		{"sleep 0.25", 0.25, 0, false},
		{"exit 3", 0, 3, false},
		{"sleep 1; sleep 0.5; exit 1", 1.5, 1, false},
		{"", 0, 0, false},
		{"sleep", 0, 0, true},
		{"sleep -1", 0, 0, true},
		{"exit one", 0, 0, true},
		{"echo hello", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			sample, err := NewMockExecutor().RunOnce(context.Background(), tt.command)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMockCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wall, sample.WallTime)
			require.NotNil(t, sample.ExitCode)
			assert.Equal(t, tt.exitCode, *sample.ExitCode)
		})
	}
}

func TestMockExecutorReplaysRegisteredSamples(t *testing.T) {
	m := NewMockExecutor().Register("cmd", sample(1, 0), sample(2, 1))
	require.NoError(t, m.Calibrate(context.Background()))
	assert.Equal(t, Overhead{}, m.Overhead())

	var walls []float64
	for i := 0; i < 5; i++ {
		s, err := m.RunOnce(context.Background(), "cmd")
		require.NoError(t, err)
		walls = append(walls, s.WallTime)
	}
	assert.Equal(t, []float64{1, 2, 1, 2, 1}, walls)
	assert.Equal(t, 5, m.Calls("cmd"))
}

func TestRawSampleCorrected(t *testing.T) {
	s := RawSample{WallTime: 1, UserTime: 0.1, SystemTime: 0.5, ExitCode: exitCode(0)}
	got := s.corrected(Overhead{WallTime: 0.25, UserTime: 0.2, SystemTime: 0.5})
	assert.Equal(t, 0.75, got.WallTime)
	assert.Equal(t, 0.0, got.UserTime)
	assert.Equal(t, 0.0, got.SystemTime)
	assert.Equal(t, s.ExitCode, got.ExitCode)
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
}

func TestShellExecutor(t *testing.T) {
	skipOnWindows(t)

	options := DefaultOptions()
	options.CalibrationRuns = 3
	e, err := NewShellExecutor("sh", &options, quietPrinter())
	require.NoError(t, err)
	assert.Equal(t, []string{"sh", "-c"}, e.shell)

	require.NoError(t, e.Calibrate(context.Background()))
	assert.Greater(t, e.Overhead().WallTime, 0.0)

	s, err := e.RunOnce(context.Background(), "exit 3")
	require.NoError(t, err)
	require.NotNil(t, s.ExitCode)
	assert.Equal(t, 3, *s.ExitCode)
	assert.False(t, s.Succeeded())

	s, err = e.RunOnce(context.Background(), "true")
	require.NoError(t, err)
	assert.True(t, s.Succeeded())
	assert.Greater(t, s.WallTime, 0.0)
}

func TestShellExecutorKilledBySignal(t *testing.T) {
	skipOnWindows(t)

	options := DefaultOptions()
	e, err := NewShellExecutor("sh", &options, quietPrinter())
	require.NoError(t, err)

	s, err := e.RunOnce(context.Background(), "kill -9 $$")
	require.NoError(t, err)
	assert.Nil(t, s.ExitCode)
	assert.False(t, s.Succeeded())
}

func TestShellExecutorArguments(t *testing.T) {
	options := DefaultOptions()

	e, err := NewShellExecutor("bash --norc", &options, quietPrinter())
	require.NoError(t, err)
	assert.Equal(t, []string{"bash", "--norc", "-c"}, e.shell)

	e, err = NewShellExecutor("cmd.exe", &options, quietPrinter())
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd.exe", "/C"}, e.shell)

	_, err = NewShellExecutor("", &options, quietPrinter())
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestShellExecutorCalibrationFailure(t *testing.T) {
	options := DefaultOptions()
	options.CalibrationRuns = 2
	e, err := NewShellExecutor("/nonexistent/chrono-test-shell", &options, quietPrinter())
	require.NoError(t, err)

	assert.ErrorIs(t, e.Calibrate(context.Background()), ErrCalibration)
}

func TestRawExecutor(t *testing.T) {
	skipOnWindows(t)

	e := &RawExecutor{}
	require.NoError(t, e.Calibrate(context.Background()))
	assert.Equal(t, Overhead{}, e.Overhead())

	s, err := e.RunOnce(context.Background(), "sh -c 'exit 4'")
	require.NoError(t, err)
	require.NotNil(t, s.ExitCode)
	assert.Equal(t, 4, *s.ExitCode)

	_, err = e.RunOnce(context.Background(), "/nonexistent/chrono-test-binary")
	assert.Error(t, err)

	_, err = e.RunOnce(context.Background(), "echo 'unterminated")
	assert.Error(t, err)
}

func TestExecutorCancelled(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &RawExecutor{}
	_, err := e.RunOnce(ctx, "sleep 1")
	assert.Error(t, err)
}
