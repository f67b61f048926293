package internal

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidExportFormat = errors.New("invalid export format")

var exportExtensions = map[string]string{
	"json":     "json",
	"csv":      "csv",
	"markdown": "md",
	"asciidoc": "adoc",
	"text":     "txt",
}

// VerifyExportFormats normalises the export formats; "none" is dropped.
func VerifyExportFormats(formats []string) ([]string, error) {
	var verified []string
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || f == "none" {
			continue
		}
		if _, ok := exportExtensions[f]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidExportFormat, f)
		}
		if !slices.Contains(verified, f) {
			verified = append(verified, f)
		}
	}
	return verified, nil
}

// Exporter serializes a list of results. unit is the unit for formats that
// print times in a single unit; formats with a fixed unit ignore it.
type Exporter interface {
	Serialize(results []BenchmarkResult, unit time.Duration, sortOrder SortOrder) ([]byte, error)
}

func newExporter(format string) Exporter {
	switch format {
	case "json":
		return jsonExporter{}
	case "csv":
		return csvExporter{}
	case "markdown":
		return MarkupExporter{markup: markdownMarkup{}}
	case "asciidoc":
		return MarkupExporter{markup: asciidocMarkup{}}
	case "text":
		return textExporter{}
	default:
		panic("newExporter: unknown export format: " + format)
	}
}

type exportTarget struct {
	exporter Exporter
	filename string
}

// ExportManager writes the results into every configured file. Every write
// replaces the whole file, so writing a growing list of results again and
// again is safe.
type ExportManager struct {
	targets     []exportTarget
	timeUnit    time.Duration
	plotFormats []string
	plotPrefix  string
	printer     *Printer
}

// NewExportManager creates an export manager from the export options.
func NewExportManager(options *Options, printer *Printer) (*ExportManager, error) {
	formats, err := VerifyExportFormats(options.ExportFormats)
	if err != nil {
		return nil, err
	}
	plotFormats, err := VerifyPlotFormats(options.PlotFormats)
	if err != nil {
		return nil, err
	}

	m := &ExportManager{
		plotFormats: plotFormats,
		plotPrefix:  options.ExportPrefix,
		printer:     printer,
	}
	if options.TimeUnit != "" {
		if m.timeUnit, err = ParseTimeUnit(options.TimeUnit); err != nil {
			return nil, err
		}
	}

	if dir := filepath.Dir(options.ExportPrefix); (len(formats) > 0 || len(plotFormats) > 0) && !checkPathExists(dir) {
		return nil, fmt.Errorf("export directory %s does not exist", dir)
	}
	for _, format := range formats {
		m.Add(newExporter(format), addExtension(options.ExportPrefix, exportExtensions[format]))
	}
	return m, nil
}

// Add registers an additional export target.
func (m *ExportManager) Add(exporter Exporter, filename string) {
	m.targets = append(m.targets, exportTarget{exporter: exporter, filename: filename})
}

func (m *ExportManager) unitFor(results []BenchmarkResult) time.Duration {
	if m.timeUnit != 0 {
		return m.timeUnit
	}
	if len(results) == 0 {
		return time.Second
	}
	return autoTimeUnit(results[0].Mean)
}

// WriteResults writes every export target. Plots are only rendered for the
// final write.
func (m *ExportManager) WriteResults(results []BenchmarkResult, sortOrder SortOrder, partial bool) error {
	unit := m.unitFor(results)
	for _, target := range m.targets {
		data, err := target.exporter.Serialize(results, unit, sortOrder)
		if err != nil {
			return fmt.Errorf("unable to serialize results for %s: %w", target.filename, err)
		}
		if err := writeToFile(data, target.filename); err != nil {
			return fmt.Errorf("unable to write %s: %w", target.filename, err)
		}
		if !partial {
			m.logWritten(target.filename)
		}
	}

	if partial || len(m.plotFormats) == 0 || len(results) == 0 {
		return nil
	}
	written, err := Plot(m.plotFormats, sortResults(results, sortOrder), unit, m.plotPrefix)
	for _, filename := range written {
		m.logWritten(filename)
	}
	return err
}

func (m *ExportManager) logWritten(filename string) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		absPath = filename
	}
	m.printer.Log("green", "Successfully wrote benchmark summary to `"+absPath+"`.")
}

type jsonExporter struct{}

// Serialize writes times in seconds, whatever the unit.
func (jsonExporter) Serialize(results []BenchmarkResult, _ time.Duration, sortOrder SortOrder) ([]byte, error) {
	return json.MarshalIndent(struct {
		Results []BenchmarkResult `json:"results"`
	}{sortResults(results, sortOrder)}, "", "  ")
}

type csvExporter struct{}

// Serialize writes times in seconds, one row per command, with one column per
// parameter name.
func (csvExporter) Serialize(results []BenchmarkResult, _ time.Duration, sortOrder SortOrder) ([]byte, error) {
	var names []string
	for _, r := range results {
		for name := range r.Parameters {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)

	header := []string{"command", "mean", "stddev", "median", "user", "system", "min", "max"}
	for _, name := range names {
		header = append(header, "parameter_"+name)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	formatFloat := func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
	for _, r := range sortResults(results, sortOrder) {
		stddev := ""
		if r.Stddev != nil {
			stddev = formatFloat(*r.Stddev)
		}
		row := []string{
			r.Command,
			formatFloat(r.Mean), stddev, formatFloat(r.Median),
			formatFloat(r.User), formatFloat(r.System),
			formatFloat(r.Min), formatFloat(r.Max),
		}
		for _, name := range names {
			row = append(row, r.Parameters[name])
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

type textExporter struct{}

func (textExporter) Serialize(results []BenchmarkResult, unit time.Duration, sortOrder SortOrder) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("Benchmarking Summary\n--------------------\n\n")
	for _, r := range sortResults(results, sortOrder) {
		if err := r.textify(&buf, unit); err != nil {
			return nil, err
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
