package action

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/courtpilot/api/schemas"
)

// Arg is one named argument of a tool.
type Arg struct {
	Name        string
	Type        string
	Description string
	Enum        []string
	// Optional arguments only appear in tool-call schemas; the text grammar
	// carries a single positional payload.
	Optional bool
}

// Tool describes an action for the actor prompt and for tool-call schemas.
type Tool struct {
	Name        Kind
	Args        []Arg
	Description string
	Examples    []string
}

// String renders the tool as a prompt line:
// NAME(arg: type, ...): description. Examples: ex1; ex2.
func (t Tool) String() string {
	args := make([]string, 0, len(t.Args))
	for _, a := range t.Args {
		if a.Optional {
			continue
		}
		args = append(args, fmt.Sprintf("%s: %s", a.Name, a.Type))
	}
	return fmt.Sprintf("%s(%s): %s. Examples: %s.", t.Name, strings.Join(args, ", "), t.Description, strings.Join(t.Examples, "; "))
}

// Spec returns the JSON schema description of the tool.
func (t Tool) Spec() schemas.ToolSpec {
	properties := make(map[string]any, len(t.Args))
	required := []string{}
	for _, a := range t.Args {
		prop := map[string]any{"type": a.Type}
		if a.Description != "" {
			prop["description"] = a.Description
		}
		if len(a.Enum) > 0 {
			prop["enum"] = a.Enum
		}
		properties[a.Name] = prop
		if !a.Optional {
			required = append(required, a.Name)
		}
	}
	return schemas.ToolSpec{
		Name:        string(t.Name),
		Description: t.Description,
		Parameters: map[string]any{
			"type":                 "object",
			"properties":           properties,
			"required":             required,
			"additionalProperties": false,
		},
	}
}

func (t Tool) arg(name string) (Arg, bool) {
	for _, a := range t.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}

// The built-in tools, in the wording the actor prompt uses.
var (
	// AnswerTool ends the run with the final answer.
	AnswerTool = Tool{
		Name:        KindAnswer,
		Args:        []Arg{{Name: "answer", Type: "string", Description: "The detailed answer to the task."}},
		Description: "Use this action if you think you can provide a detailed answer to the task. Write the answer within quotation marks",
		Examples:    []string{`ANSWER("The answer to the task.")`},
	}
	// ClickTool presses the hint letters of an element.
	ClickTool = Tool{
		Name:        KindClick,
		Args:        []Arg{{Name: "letters", Type: "string", Description: "The letters in the yellow box over the element."}},
		Description: "Use this action to navigate to a different page by clicking on a UI element. Specify the letters corresponding to the element",
		Examples:    []string{`CLICK("a")`, `CLICK("yy")`},
	}
	// InputTool types into the focused field.
	InputTool = Tool{
		Name: KindInput,
		Args: []Arg{
			{Name: "text", Type: "string", Description: "The text to type."},
			{Name: "letters", Type: "string", Description: "Letters of the text field to focus before typing.", Optional: true},
		},
		Description: "Use this action to type text into e.g. a form or search bar. Specify the text you want to type",
		Examples:    []string{`INPUT("my_username")`, `INPUT("my_password")`},
	}
	// ScrollTool scrolls the page up or down.
	ScrollTool = Tool{
		Name:        KindScroll,
		Args:        []Arg{{Name: "direction", Type: "string", Description: "Either up or down.", Enum: []string{"up", "down"}}},
		Description: "Use this action to scroll the current webpage up or down to find relevant information",
		Examples:    []string{`SCROLL("down")`, `SCROLL("up")`},
	}
	// AnalyzeTableTool is the ANALYZE_TABLE variant of table extraction.
	AnalyzeTableTool = Tool{
		Name:        KindAnalyzeTable,
		Args:        []Arg{{Name: "description", Type: "string", Description: "The data and the information you seek."}},
		Description: "Use this action to analyze structured data such as tables, timetables, or grids. Describe the data and information you seek",
		Examples:    []string{`ANALYZE_TABLE("Extract the price information from the table that contains information about the product.")`},
	}
	// ParseTableDataTool is the PARSE_TABLE_DATA variant of table extraction.
	ParseTableDataTool = Tool{
		Name:        KindParseTableData,
		Args:        []Arg{{Name: "description", Type: "string", Description: "The data and the information you seek."}},
		Description: "Use this action to reliably extract information from structured data such as tables, timetables, or booking schedules. Describe the data and information you seek",
		Examples:    []string{`PARSE_TABLE_DATA("Extract the free time slots for each court between 17:00 and 19:00.")`},
	}
)

// targetArg is added to CLICK when elements without hint letters can be located.
var targetArg = Arg{
	Name:        "target",
	Type:        "string",
	Description: "Describe the element to click if it has no yellow letter box.",
	Optional:    true,
}

// CatalogOptions selects one of the alternative tool sets.
type CatalogOptions struct {
	Table   Kind
	Input   bool
	Locator bool
}

// Catalog is the ordered set of tools offered to the actor.
type Catalog struct {
	tools []Tool
	table Kind
}

// NewCatalog builds the tool set: scroll, click, [input], table, answer.
func NewCatalog(opts CatalogOptions) (*Catalog, error) {
	if !opts.Table.IsTable() {
		return nil, fmt.Errorf("%w: %q is not a table extraction action", ErrUnknownKind, opts.Table)
	}

	click := ClickTool
	if opts.Locator {
		letters := click.Args[0]
		letters.Optional = true
		click.Args = []Arg{letters, targetArg}
	}

	tools := []Tool{ScrollTool, click}
	if opts.Input {
		tools = append(tools, InputTool)
	}
	if opts.Table == KindAnalyzeTable {
		tools = append(tools, AnalyzeTableTool)
	} else {
		tools = append(tools, ParseTableDataTool)
	}
	tools = append(tools, AnswerTool)

	return &Catalog{tools: tools, table: opts.Table}, nil
}

// Tools returns a copy of the catalog's tools in prompt order.
func (c *Catalog) Tools() []Tool {
	return append([]Tool(nil), c.tools...)
}

// TableKind returns the table extraction kind offered by this catalog.
func (c *Catalog) TableKind() Kind { return c.table }

// Names lists tool names in prompt order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.tools))
	for i, t := range c.tools {
		names[i] = string(t.Name)
	}
	return names
}

// Render returns one prompt line per tool.
func (c *Catalog) Render() string {
	lines := make([]string, len(c.tools))
	for i, t := range c.tools {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}

// Specs returns the JSON schema of every tool.
func (c *Catalog) Specs() []schemas.ToolSpec {
	specs := make([]schemas.ToolSpec, len(c.tools))
	for i, t := range c.tools {
		specs[i] = t.Spec()
	}
	return specs
}

// Lookup finds a tool by name, ignoring case.
func (c *Catalog) Lookup(name string) (Tool, bool) {
	for _, t := range c.tools {
		if strings.EqualFold(string(t.Name), strings.TrimSpace(name)) {
			return t, true
		}
	}
	return Tool{}, false
}

// Has reports whether the catalog offers kind k.
func (c *Catalog) Has(k Kind) bool {
	_, ok := c.Lookup(string(k))
	return ok
}
