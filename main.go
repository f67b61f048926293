package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/shravanasati/chrono/internal"
	"github.com/shravanasati/commando"
)

const (
	// NAME is the executable name.
	NAME = "chrono"
	// VERSION is the executable version.
	VERSION = "v0.5.0"
)

var defaults = internal.DefaultOptions()

// run holds what the CLI resolved before benchmarking starts.
type run struct {
	templates  []string
	parameters []internal.ParameterList
	options    internal.Options
}

// parseDuration accepts Go durations ("500ms") as well as plain numbers of
// seconds ("0.5").
func parseDuration(value string) (time.Duration, error) {
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("negative duration %s", value)
		}
		return internal.DurationFromNumber(seconds, time.Second), nil
	}
	return time.ParseDuration(value)
}

// commandsHelp is the help text of the commands argument.
const commandsHelp = "The commands to benchmark, separated by commas. Commands that contain a comma go in a --config file."

// splitCommands splits the commands argument. commando joins the values of a
// variadic argument with commas, so a comma inside a command cannot be told
// apart from a separator.
func splitCommands(value string) []string {
	var commands []string
	for _, c := range strings.Split(value, ",") {
		if c = strings.TrimSpace(c); c != "" {
			commands = append(commands, c)
		}
	}
	return commands
}

// buildRun merges the config file (if any) with the flags. Flags left at their
// default values do not override the config file.
func buildRun(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) (*run, error) {
	r := &run{options: internal.DefaultOptions()}

	configPath, err := flags["config"].GetString()
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		config, err := internal.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		r.templates = config.Commands
		r.parameters = config.Parameters
		r.options = config.Options
	}

	r.templates = append(r.templates, splitCommands(args["commands"].Value)...)

	o := &r.options
	intFlags := []struct {
		name   string
		target *int
		def    int
	}{
		{"runs", &o.Runs, defaults.Runs},
		{"warmup", &o.Warmup, defaults.Warmup},
		{"min-runs", &o.MinRuns, defaults.MinRuns},
		{"max-runs", &o.MaxRuns, defaults.MaxRuns},
	}
	for _, f := range intFlags {
		v, err := flags[f.name].GetInt()
		if err != nil {
			return nil, fmt.Errorf("the value of --%s must be an integer: %w", f.name, err)
		}
		if v != f.def {
			*f.target = v
		}
	}

	stringFlags := []struct {
		name   string
		target *string
		def    string
	}{
		{"shell", &o.Shell, defaults.Shell},
		{"prepare", &o.Prepare, defaults.Prepare},
		{"cleanup", &o.Cleanup, defaults.Cleanup},
		{"time-unit", &o.TimeUnit, defaults.TimeUnit},
		{"export-prefix", &o.ExportPrefix, defaults.ExportPrefix},
		{"executor", (*string)(&o.Executor), string(defaults.Executor)},
		{"style", (*string)(&o.OutputStyle), string(defaults.OutputStyle)},
		{"on-failure", (*string)(&o.FailurePolicy), string(defaults.FailurePolicy)},
		{"sort", (*string)(&o.SortOrderSpeedComparison), string(defaults.SortOrderSpeedComparison)},
		{"sort-exports", (*string)(&o.SortOrderExports), string(defaults.SortOrderExports)},
	}
	for _, f := range stringFlags {
		v, err := flags[f.name].GetString()
		if err != nil {
			return nil, fmt.Errorf("application error: cannot parse --%s: %w", f.name, err)
		}
		if v != f.def {
			*f.target = v
		}
	}

	durationFlags := []struct {
		name   string
		target *time.Duration
		def    time.Duration
	}{
		{"min-time", &o.MinBenchmarkingTime, defaults.MinBenchmarkingTime},
		{"too-fast", &o.TooFastThreshold, defaults.TooFastThreshold},
	}
	for _, f := range durationFlags {
		v, err := flags[f.name].GetString()
		if err != nil {
			return nil, fmt.Errorf("application error: cannot parse --%s: %w", f.name, err)
		}
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("the value of --%s must be a duration like 3s, 500ms or a number of seconds: %w", f.name, err)
		}
		if d != f.def {
			*f.target = d
		}
	}

	boolFlags := []struct {
		name   string
		target *bool
	}{
		{"ignore-failure", &o.IgnoreFailure},
		{"show-output", &o.ShowOutput},
	}
	for _, f := range boolFlags {
		v, err := flags[f.name].GetBool()
		if err != nil {
			return nil, fmt.Errorf("application error: cannot parse --%s: %w", f.name, err)
		}
		if v {
			*f.target = true
		}
	}

	color, err := flags["color"].GetBool()
	if err != nil {
		return nil, fmt.Errorf("application error: cannot parse --no-color: %w", err)
	}
	if !color {
		switch o.OutputStyle {
		case internal.StyleFull, internal.StyleAuto:
			o.OutputStyle = internal.StyleNoColor
		case internal.StyleColor:
			o.OutputStyle = internal.StyleBasic
		}
	}

	listFlags := []struct {
		name   string
		target *[]string
	}{
		{"export", &o.ExportFormats},
		{"plot", &o.PlotFormats},
	}
	for _, f := range listFlags {
		v, err := flags[f.name].GetString()
		if err != nil {
			return nil, fmt.Errorf("application error: cannot parse --%s: %w", f.name, err)
		}
		if v != "none" && v != "" {
			*f.target = strings.Split(v, ",")
		}
	}

	parameterList, err := flags["parameter-list"].GetString()
	if err != nil {
		return nil, fmt.Errorf("application error: cannot parse --parameter-list: %w", err)
	}
	if parameterList != "" {
		lists, err := internal.ParseParameterLists(parameterList)
		if err != nil {
			return nil, err
		}
		r.parameters = append(r.parameters, lists...)
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// benchmark runs the whole pipeline: benchmarks, comparison, final export.
func benchmark(ctx context.Context, r *run) error {
	printer := internal.NewPrinter(os.Stdout, os.Stderr, r.options.OutputStyle)

	commands, err := internal.BuildCommands(r.templates, r.parameters)
	if err != nil {
		return err
	}

	exportManager, err := internal.NewExportManager(&r.options, printer)
	if err != nil {
		return err
	}

	scheduler := internal.NewScheduler(commands, &r.options, exportManager, printer)
	if err := scheduler.RunBenchmarks(ctx); err != nil {
		if errors.Is(err, context.Canceled) && len(scheduler.Results()) > 0 {
			printer.Error("Benchmark interrupted. The results of the completed benchmarks were exported.")
		}
		return err
	}

	scheduler.PrintRelativeSpeedComparison()
	return scheduler.FinalExport()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// * basic configuration
	commando.
		SetExecutableName(NAME).
		SetVersion(VERSION).
		SetDescription("chrono is a command-line benchmarking tool. It runs commands repeatedly and compares them with statistical rigour.\nFor more info visit https://github.com/shravanasati/chrono.")

	// * root command
	commando.
		Register(nil).
		SetShortDescription("Benchmark one or more commands.").
		SetDescription("Benchmark one or more commands and compare their speed.").
		AddArgument("commands...", commandsHelp, "").
		AddFlag("runs,r", "Perform exactly this many runs per command (0 = adaptive).", commando.Int, defaults.Runs).
		AddFlag("warmup,w", "The number of warmup runs to perform.", commando.Int, defaults.Warmup).
		AddFlag("min-runs,m", "The minimum number of runs per command.", commando.Int, defaults.MinRuns).
		AddFlag("max-runs,M", "The maximum number of runs per command (0 = no limit).", commando.Int, defaults.MaxRuns).
		AddFlag("min-time", "Keep running a command until this much time was measured.", commando.String, defaults.MinBenchmarkingTime.String()).
		AddFlag("too-fast", "Warn when a command's mean time is below this threshold.", commando.String, defaults.TooFastThreshold.String()).
		AddFlag("prepare,p", "A command to run before every run of the benchmarked command.", commando.String, defaults.Prepare).
		AddFlag("cleanup,c", "A command to run after all runs of a benchmarked command.", commando.String, defaults.Cleanup).
		AddFlag("ignore-failure,i", "Ignore if the process returns a non-zero return code.", commando.Bool, false).
		AddFlag("on-failure", "What to do when a command fails: abort or skip.", commando.String, string(defaults.FailurePolicy)).
		AddFlag("executor,x", "How to spawn commands: shell, raw or mock.", commando.String, string(defaults.Executor)).
		AddFlag("shell,S", "The shell used by the shell executor.", commando.String, defaults.Shell).
		AddFlag("show-output", "Print the output of the benchmarked commands.", commando.Bool, false).
		AddFlag("style,s", "Output style: auto, full, basic, nocolor, color or none.", commando.String, string(defaults.OutputStyle)).
		AddFlag("sort", "Sort order of the speed comparison: mean-time or command.", commando.String, string(defaults.SortOrderSpeedComparison)).
		AddFlag("sort-exports", "Sort order of the exports: command or mean-time.", commando.String, string(defaults.SortOrderExports)).
		AddFlag("time-unit,u", "Time unit of the exports: ns, us, ms, s, m or h.", commando.String, defaults.TimeUnit).
		AddFlag("export,e", "Comma separated list of export formats: json, csv, markdown, asciidoc and text.", commando.String, "none").
		AddFlag("export-prefix", "Path prefix of the exported files.", commando.String, defaults.ExportPrefix).
		AddFlag("plot", "Comma separated list of plots: histogram, bar, errorbar, boxplot or all.", commando.String, "none").
		AddFlag("parameter-list,L", "Parameter values substituted for {name}: name=a,b,c[;other=x,y].", commando.String, "").
		AddFlag("config", "A YAML file with commands and options.", commando.String, "").
		AddFlag("no-color", "Disable colored output.", commando.Bool, false).
		SetAction(func(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
			r, err := buildRun(args, flags)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Error: "+err.Error())
				os.Exit(1)
			}
			if len(r.templates) == 0 {
				fmt.Fprintln(os.Stderr, "Error: not enough arguments.")
				os.Exit(1)
			}

			if err := benchmark(ctx, r); err != nil {
				fmt.Fprintln(os.Stderr, "Error: "+err.Error())
				os.Exit(1)
			}
		})

	// * the update check
	commando.
		Register("up").
		SetShortDescription("Check for a newer version of chrono.").
		SetAction(func(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
			updateCh := make(chan string, 1)
			go internal.CheckForUpdates(VERSION, &updateCh)
			if message := <-updateCh; message != "" {
				fmt.Println(message)
				return
			}
			fmt.Println("chrono is up to date.")
		})

	commando.Parse(nil)
}
