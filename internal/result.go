package internal

import (
	"io"
	"text/template"
	"time"
)

// BenchmarkResult is the reduced outcome of benchmarking one command. All
// times are in seconds. Stddev is nil when only one run was measured.
type BenchmarkResult struct {
	Command                     string            `json:"command"`
	CommandWithUnusedParameters string            `json:"-"`
	Mean                        float64           `json:"mean"`
	Stddev                      *float64          `json:"stddev"`
	Median                      float64           `json:"median"`
	User                        float64           `json:"user"`
	System                      float64           `json:"system"`
	Min                         float64           `json:"min"`
	Max                         float64           `json:"max"`
	Times                       []float64         `json:"times,omitempty"`
	ExitCodes                   []*int            `json:"exit_codes"`
	Parameters                  map[string]string `json:"parameters,omitempty"`
	Warnings                    []Warning         `json:"warnings,omitempty"`
}

// Runs returns the number of measured runs.
func (r *BenchmarkResult) Runs() int {
	return len(r.ExitCodes)
}

type summaryData struct {
	Command string
	Mean    string
	Stddev  string
	User    string
	System  string
	Min     string
	Max     string
	Runs    int
}

func (r *BenchmarkResult) summaryData(unit time.Duration) summaryData {
	if unit == 0 {
		unit = autoTimeUnit(r.Mean)
	}
	data := summaryData{
		Command: r.CommandWithUnusedParameters,
		Mean:    formatSeconds(r.Mean, unit),
		User:    formatSeconds(r.User, unit),
		System:  formatSeconds(r.System, unit),
		Min:     formatSeconds(r.Min, unit),
		Max:     formatSeconds(r.Max, unit),
		Runs:    r.Runs(),
	}
	if r.Stddev != nil {
		data.Stddev = formatSeconds(*r.Stddev, unit)
	}
	return data
}

var summaryNoColor = `  Time (mean{{ if .Stddev }} ± σ{{ end }}):     {{ .Mean }}{{ if .Stddev }} ± {{ .Stddev }}{{ end }}    [User: {{ .User }}, System: {{ .System }}]
  Range (min … max):   {{ .Min }} … {{ .Max }}    {{ .Runs }} runs
`

var summaryColor = `  Time (${green}mean${reset}{{ if .Stddev }} ± ${green}σ${reset}{{ end }}):     ${green}{{ .Mean }}${reset}{{ if .Stddev }} ± ${green}{{ .Stddev }}${reset}{{ end }}    [User: ${blue}{{ .User }}${reset}, System: ${blue}{{ .System }}${reset}]
  Range (${cyan}min${reset} … ${purple}max${reset}):   ${cyan}{{ .Min }}${reset} … ${purple}{{ .Max }}${reset}    ${dim}{{ .Runs }} runs${reset}
`

var (
	summaryTemplate      = template.Must(template.New("summary").Parse(summaryNoColor))
	summaryColorTemplate = template.Must(template.New("summary-color").Parse(format(summaryColor,
		map[string]string{
			"green":  "\033[32m",
			"blue":   "\033[34m",
			"cyan":   "\033[36m",
			"purple": "\033[35m",
			"dim":    "\033[2m",
			"reset":  "\033[0m",
		})))
)

// Consolify prints the summary of the result to the console.
func (r *BenchmarkResult) Consolify(p *Printer) error {
	if !p.Enabled() {
		return nil
	}
	tmpl := summaryTemplate
	if !p.colorize.Disable {
		tmpl = summaryColorTemplate
	}
	return tmpl.Execute(p.out, r.summaryData(0))
}

// textify writes the uncoloured summary of the result.
func (r *BenchmarkResult) textify(w io.Writer, unit time.Duration) error {
	if _, err := io.WriteString(w, "Benchmark: "+r.CommandWithUnusedParameters+"\n"); err != nil {
		return err
	}
	return summaryTemplate.Execute(w, r.summaryData(unit))
}
