package internal

import (
	"fmt"
	"strings"
	"time"
)

type alignment int

const (
	alignLeft alignment = iota
	alignRight
)

// markup is a table dialect.
type markup interface {
	tableHeader(alignments []alignment) string
	tableFooter(alignments []alignment) string
	tableRow(cells []string) string
	tableDivider(alignments []alignment) string
	command(cmd string) string
}

// MarkupExporter writes the results as a table: command, mean ± stddev, min,
// max and the speed relative to the fastest command.
type MarkupExporter struct {
	markup markup
}

func (e MarkupExporter) Serialize(results []BenchmarkResult, unit time.Duration, sortOrder SortOrder) ([]byte, error) {
	short := unitShortName(unit)
	alignments := []alignment{alignLeft, alignRight, alignRight, alignRight, alignRight}

	var b strings.Builder
	b.WriteString(e.markup.tableHeader(alignments))
	b.WriteString(e.markup.tableRow([]string{
		"Command",
		fmt.Sprintf("Mean [%s]", short),
		fmt.Sprintf("Min [%s]", short),
		fmt.Sprintf("Max [%s]", short),
		"Relative",
	}))
	b.WriteString(e.markup.tableDivider(alignments))

	annotated, ok := ComputeRelativeSpeeds(results, sortOrder)
	if !ok {
		for _, r := range sortResults(results, sortOrder) {
			r := r
			annotated = append(annotated, AnnotatedResult{Result: &r})
		}
	}

	for _, item := range annotated {
		r := item.Result
		mean := formatInUnit(r.Mean, unit)
		if r.Stddev != nil {
			mean += " ± " + formatInUnit(*r.Stddev, unit)
		}

		relative := "n/a"
		if ok {
			relative = fmt.Sprintf("%.2f", item.RelativeSpeed)
			if item.RelativeSpeedStddev != nil {
				relative += fmt.Sprintf(" ± %.2f", *item.RelativeSpeedStddev)
			}
		}

		b.WriteString(e.markup.tableRow([]string{
			e.markup.command(strings.ReplaceAll(r.CommandWithUnusedParameters, "|", `\|`)),
			mean,
			formatInUnit(r.Min, unit),
			formatInUnit(r.Max, unit),
			relative,
		}))
	}
	b.WriteString(e.markup.tableFooter(alignments))
	return []byte(b.String()), nil
}

type markdownMarkup struct{}

func (markdownMarkup) tableHeader([]alignment) string { return "" }
func (markdownMarkup) tableFooter([]alignment) string { return "" }

func (markdownMarkup) tableRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |\n"
}

func (markdownMarkup) tableDivider(alignments []alignment) string {
	cells := MapFunc[[]alignment, []string](func(a alignment) string {
		if a == alignLeft {
			return ":---"
		}
		return "---:"
	}, alignments)
	return "|" + strings.Join(cells, "|") + "|\n"
}

func (markdownMarkup) command(cmd string) string { return "`" + cmd + "`" }

type asciidocMarkup struct{}

func (asciidocMarkup) tableHeader(alignments []alignment) string {
	cols := MapFunc[[]alignment, []string](func(a alignment) string {
		if a == alignLeft {
			return "<"
		}
		return ">"
	}, alignments)
	return fmt.Sprintf("[cols=\"%s\"]\n|===", strings.Join(cols, ","))
}

func (asciidocMarkup) tableFooter([]alignment) string { return "|===\n" }

func (asciidocMarkup) tableRow(cells []string) string {
	return "\n| " + strings.Join(cells, " \n| ") + " \n"
}

func (asciidocMarkup) tableDivider([]alignment) string { return "" }

func (asciidocMarkup) command(cmd string) string { return "`" + cmd + "`" }
