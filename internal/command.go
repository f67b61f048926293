package internal

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoCommands       = errors.New("no commands to benchmark")
	ErrInvalidParameter = errors.New("invalid parameter list")
)

// Parameter is a single name/value binding substituted into a command.
type Parameter struct {
	Name  string
	Value string
}

// ParameterList is a named list of values; one command is generated per value.
type ParameterList struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// Command is one unit of work to benchmark: a command template together with
// the parameter values bound to it.
type Command struct {
	template   string
	parameters []Parameter
}

// NewCommand creates a command from a template and its parameter bindings.
func NewCommand(template string, parameters ...Parameter) *Command {
	return &Command{
		template:   template,
		parameters: append([]Parameter(nil), parameters...),
	}
}

func placeholder(name string) string {
	return "{" + name + "}"
}

// Substitute replaces every `{name}` placeholder in text by its bound value.
func (c *Command) Substitute(text string) string {
	for _, p := range c.parameters {
		text = strings.ReplaceAll(text, placeholder(p.Name), p.Value)
	}
	return text
}

// Executed returns the command as it is handed to the executor.
func (c *Command) Executed() string {
	return c.Substitute(c.template)
}

// WithUnusedParameters returns the executed command, followed by the bindings
// that do not appear in the template. Commands differing only in such
// bindings stay distinguishable in the output.
func (c *Command) WithUnusedParameters() string {
	var unused []string
	for _, p := range c.parameters {
		if !strings.Contains(c.template, placeholder(p.Name)) {
			unused = append(unused, fmt.Sprintf("%s = %s", p.Name, p.Value))
		}
	}

	if len(unused) == 0 {
		return c.Executed()
	}
	return fmt.Sprintf("%s (%s)", c.Executed(), strings.Join(unused, ", "))
}

// Parameters returns the parameter bindings keyed by name.
func (c *Command) Parameters() map[string]string {
	params := make(map[string]string, len(c.parameters))
	for _, p := range c.parameters {
		params[p.Name] = p.Value
	}
	return params
}

func (c *Command) String() string {
	return c.WithUnusedParameters()
}

// Commands is the ordered list of commands of a run.
type Commands []*Command

// BuildCommands expands every template over the cartesian product of the
// parameter lists. Commands keep the template order; within a template the
// last list varies fastest.
func BuildCommands(templates []string, lists []ParameterList) (Commands, error) {
	if len(templates) == 0 {
		return nil, ErrNoCommands
	}

	seen := make(map[string]bool, len(lists))
	for _, list := range lists {
		if err := validateParameterName(list.Name); err != nil {
			return nil, err
		}
		if seen[list.Name] {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidParameter, list.Name)
		}
		if len(list.Values) == 0 {
			return nil, fmt.Errorf("%w: parameter %q has no values", ErrInvalidParameter, list.Name)
		}
		seen[list.Name] = true
	}

	combinations := [][]Parameter{nil}
	for _, list := range lists {
		var next [][]Parameter
		for _, combination := range combinations {
			for _, value := range list.Values {
				extended := append(append([]Parameter(nil), combination...), Parameter{list.Name, value})
				next = append(next, extended)
			}
		}
		combinations = next
	}

	commands := make(Commands, 0, len(templates)*len(combinations))
	for _, template := range templates {
		if strings.TrimSpace(template) == "" {
			return nil, fmt.Errorf("%w: empty command", ErrNoCommands)
		}
		for _, combination := range combinations {
			commands = append(commands, NewCommand(template, combination...))
		}
	}
	return commands, nil
}

func validateParameterName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty parameter name", ErrInvalidParameter)
	}
	if strings.ContainsAny(name, "{}=;, \t") {
		return fmt.Errorf("%w: parameter name %q contains reserved characters", ErrInvalidParameter, name)
	}
	return nil
}

// ParseParameterLists parses `name=a,b,c` lists, several lists separated by `;`.
func ParseParameterLists(text string) ([]ParameterList, error) {
	var lists []ParameterList
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, values, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: expected name=value1,value2 but got %q", ErrInvalidParameter, part)
		}
		list := ParameterList{Name: strings.TrimSpace(name)}
		for _, v := range strings.Split(values, ",") {
			list.Values = append(list.Values, strings.TrimSpace(v))
		}
		if err := validateParameterName(list.Name); err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, nil
}
