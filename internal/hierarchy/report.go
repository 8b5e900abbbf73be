package hierarchy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NoElementsMessage is the report for a dump with nothing worth showing.
const NoElementsMessage = "No meaningful elements found."

// Meaningful reports whether an element carries text, a content description
// or a resource id. Clickability alone does not qualify.
func Meaningful(el Element) bool {
	return el.Text != "" || el.ContentDescription != "" || el.ResourceID != ""
}

// Filter returns the meaningful elements in order.
func Filter(elements []Element) []Element {
	out := make([]Element, 0, len(elements))
	for _, el := range elements {
		if Meaningful(el) {
			out = append(out, el)
		}
	}
	return out
}

// Block renders a single element.
func Block(el Element) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Element (Clickable: %s):", titleBool(el.Clickable))
	if el.Text != "" {
		fmt.Fprintf(&sb, "\n  Text: '%s'", el.Text)
	}
	if el.ContentDescription != "" {
		fmt.Fprintf(&sb, "\n  Description: '%s'", el.ContentDescription)
	}
	if el.ResourceID != "" {
		fmt.Fprintf(&sb, "\n  Resource ID: '%s'", el.ResourceID)
	}
	fmt.Fprintf(&sb, "\n  Bounds: %s", el.Bounds)
	if el.Center != nil {
		fmt.Fprintf(&sb, "\n  Center: %s", el.Center)
	}
	return sb.String()
}

// Report renders every meaningful element as a block, separated by blank lines.
func Report(elements []Element) string {
	blocks := make([]string, 0, len(elements))
	for _, el := range Filter(elements) {
		blocks = append(blocks, Block(el))
	}
	if len(blocks) == 0 {
		return NoElementsMessage
	}
	return strings.Join(blocks, "\n\n")
}

// ReportJSON renders elements as an indented JSON array. Unless all is set
// only meaningful elements are included.
func ReportJSON(elements []Element, all bool) (string, error) {
	if !all {
		elements = Filter(elements)
	}
	if elements == nil {
		elements = []Element{}
	}
	data, err := json.MarshalIndent(elements, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode elements: %w", err)
	}
	return string(data), nil
}

// Describe parses a raw dump and renders its report.
func Describe(raw string) (string, error) {
	res := Parse(raw)
	if res.Err != nil {
		return "", res.Err
	}
	return Report(res.Elements), nil
}

func titleBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
