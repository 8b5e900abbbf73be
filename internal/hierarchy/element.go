// Package hierarchy turns uiautomator XML dumps into flat element records and
// renders the subset an agent can act on.
//
// A dump is parsed once per request and discarded; records carry no identity
// beyond their position in document order.
package hierarchy

import "fmt"

// Point is a screen coordinate in device pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String renders the point as "(x, y)".
func (p Point) String() string {
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Element is one <node> of a UI dump.
type Element struct {
	Text               string `json:"text"`
	ContentDescription string `json:"content_desc"`
	ResourceID         string `json:"resource_id"`
	ClassName          string `json:"class"`
	Package            string `json:"package"`
	Clickable          bool   `json:"clickable"`

	// Bounds is the raw "[x1,y1][x2,y2]" attribute, untrimmed.
	Bounds string `json:"bounds"`

	// Center is nil unless Bounds held exactly two integer corners.
	Center *Point `json:"center,omitempty"`
}

// Result is the outcome of Parse. Err is non-nil only when the document could
// not be parsed; an empty Elements with a nil Err means there were no nodes.
type Result struct {
	Elements []Element
	Err      error
}

// OK reports whether the dump parsed.
func (r Result) OK() bool {
	return r.Err == nil
}
