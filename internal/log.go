package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/mitchellh/colorstring"
	"github.com/schollz/progressbar/v3"
)

// Printer writes everything the user sees on the console. Colours and
// progress bars depend on the output style it was created with.
type Printer struct {
	out      io.Writer
	errOut   io.Writer
	style    OutputStyle
	colorize colorstring.Colorize
}

// NewPrinter creates a Printer. StyleAuto resolves to StyleFull when out is a
// terminal and to StyleBasic otherwise.
func NewPrinter(out, errOut io.Writer, style OutputStyle) *Printer {
	if style == StyleAuto || style == "" {
		style = StyleBasic
		if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			style = StyleFull
		}
	}

	return &Printer{
		out:    out,
		errOut: errOut,
		style:  style,
		colorize: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: style != StyleFull && style != StyleColor,
			Reset:   false,
		},
	}
}

// Style returns the resolved output style.
func (p *Printer) Style() OutputStyle {
	return p.style
}

// Enabled reports whether benchmark output should be printed at all.
func (p *Printer) Enabled() bool {
	return p.style != StyleNone
}

func (p *Printer) progressEnabled() bool {
	return p.style == StyleFull || p.style == StyleNoColor
}

// Colored wraps text in the given colour, if colours are enabled.
func (p *Printer) Colored(color, text string) string {
	if color == "purple" {
		color = "magenta"
	}
	if color == "" || color == "white" {
		return text
	}
	// only the markers go through colorstring, text may contain brackets
	return p.colorize.Color("["+color+"]") + text + p.colorize.Color("[reset]")
}

// Log prints a message in the given colour on its own line.
func (p *Printer) Log(color, message string) {
	if !p.Enabled() {
		return
	}
	fmt.Fprintln(p.out, p.Colored(color, message))
}

// Warn prints a warning to the error stream. Warnings are printed even with
// StyleNone because they qualify the exported numbers.
func (p *Printer) Warn(message string) {
	fmt.Fprintf(p.errOut, "  %s %s\n", p.Colored("yellow", "Warning:"), message)
}

// Error prints an error message to the error stream.
func (p *Printer) Error(message string) {
	fmt.Fprintln(p.errOut, p.Colored("red", message))
}

// ProgressBar returns a bar for total steps. When progress bars are disabled
// the bar writes nowhere, so callers never need to check.
func (p *Printer) ProgressBar(total int, description string) *progressbar.ProgressBar {
	theme := progressbar.Theme{
		Saucer:        "=",
		SaucerHead:    ">",
		SaucerPadding: " ",
		BarStart:      "|",
		BarEnd:        "|",
	}
	pbarOptions := []progressbar.Option{
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetPredictTime(true),
	}

	if p.style == StyleFull {
		description = "[magenta]" + description + "[reset]"
		theme.Saucer = "[green]=[reset]"
		theme.SaucerHead = "[green]>[reset]"
		pbarOptions = append(pbarOptions, progressbar.OptionEnableColorCodes(true))
	}

	writer := p.errOut
	if !p.progressEnabled() {
		writer = io.Discard
	}

	pbarOptions = append(pbarOptions,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(theme),
		progressbar.OptionSetWriter(writer),
	)
	return progressbar.NewOptions(total, pbarOptions...)
}

// describeBar sets the bar description, colouring the label like the
// description passed to ProgressBar.
func (p *Printer) describeBar(bar *progressbar.ProgressBar, label, value string) {
	if p.style == StyleFull {
		bar.Describe(fmt.Sprintf("[magenta]%s[reset] [green]%s[reset]", label, value))
		return
	}
	bar.Describe(label + " " + value)
}
