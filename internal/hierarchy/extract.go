package hierarchy

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dracxi/adbmcpserver/internal/logging"
)

const (
	xmlDeclaration = "<?xml"
	hierarchyClose = "</hierarchy>"
	byteOrderMark  = "\uFEFF"
	xmlNamespace   = "http://www.w3.org/XML/1998/namespace"
)

// ErrMalformed is wrapped by every parse failure.
var ErrMalformed = errors.New("malformed UI hierarchy")

// Isolate returns the span from the first "<?xml" through the last
// "</hierarchy>", inclusive. Shell banners and trailing noise around a dump
// are dropped. Without such a span the input is returned unchanged apart from
// a leading byte order mark.
func Isolate(raw string) string {
	raw = strings.TrimPrefix(raw, byteOrderMark)
	start := strings.Index(raw, xmlDeclaration)
	end := strings.LastIndex(raw, hierarchyClose)
	if start < 0 || end < 0 || end < start+len(xmlDeclaration) {
		return raw
	}
	return raw[start : end+len(hierarchyClose)]
}

// Parse isolates the dump and collects every <node> below the document root
// in pre-order.
func Parse(raw string) Result {
	doc := Isolate(raw)

	elements, err := decode(doc)
	if err != nil {
		logging.HierarchyWarn("Discarding UI dump (%d bytes): %v", len(doc), err)
		return Result{Elements: []Element{}, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	logging.HierarchyDebug("Parsed %d nodes from UI dump", len(elements))
	return Result{Elements: elements}
}

// Extract returns the elements of a dump, or an empty slice if it does not parse.
func Extract(raw string) []Element {
	return Parse(raw).Elements
}

func decode(doc string) ([]Element, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))

	elements := []Element{}
	var scopes []nsScope
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			var parent nsScope
			if len(scopes) > 0 {
				parent = scopes[len(scopes)-1]
			}
			scope, err := parent.enter(t)
			if err != nil {
				return nil, err
			}

			if len(scopes) == 0 {
				if sawRoot {
					return nil, fmt.Errorf("unexpected second root element <%s>", t.Name.Local)
				}
				sawRoot = true
			} else if t.Name.Local == "node" && t.Name.Space == "" {
				elements = append(elements, newElement(t.Attr))
			}
			scopes = append(scopes, scope)
		case xml.EndElement:
			scopes = scopes[:len(scopes)-1]
		case xml.CharData:
			if len(scopes) == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("text outside the root element")
			}
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("no root element")
	}
	return elements, nil
}

// nsScope maps the namespace prefixes in effect to their URIs. The empty
// prefix holds the default namespace.
type nsScope map[string]string

// enter returns the scope inside start and checks the element for duplicate
// attributes and unbound prefixes. The decoder resolves a bound prefix to its
// URI and leaves an unbound one as written, so any name space that is not an
// in-scope URI came from an undeclared prefix.
func (s nsScope) enter(start xml.StartElement) (nsScope, error) {
	inner := make(nsScope, len(s))
	for p, uri := range s {
		inner[p] = uri
	}

	seen := make(map[xml.Name]bool, len(start.Attr))
	for _, a := range start.Attr {
		if seen[a.Name] {
			return nil, fmt.Errorf("duplicate attribute %s on <%s>", attrName(a.Name), start.Name.Local)
		}
		seen[a.Name] = true

		switch {
		case a.Name.Space == "xmlns":
			inner[a.Name.Local] = a.Value
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			inner[""] = a.Value
		}
	}

	if !inner.binds(start.Name.Space) {
		return nil, fmt.Errorf("unbound prefix %q on element <%s>", start.Name.Space, start.Name.Local)
	}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" {
			continue
		}
		if !inner.binds(a.Name.Space) {
			return nil, fmt.Errorf("unbound prefix %q on attribute %s", a.Name.Space, a.Name.Local)
		}
	}
	return inner, nil
}

func (s nsScope) binds(space string) bool {
	if space == "" || space == xmlNamespace || space == "xml" {
		return true
	}
	for _, uri := range s {
		if uri == space {
			return true
		}
	}
	return false
}

func attrName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

func newElement(attrs []xml.Attr) Element {
	get := func(name string) string {
		for _, a := range attrs {
			if a.Name.Local == name && a.Name.Space == "" {
				return a.Value
			}
		}
		return ""
	}

	bounds := get("bounds")
	return Element{
		Text:               strings.TrimSpace(get("text")),
		ContentDescription: strings.TrimSpace(get("content-desc")),
		ResourceID:         strings.TrimSpace(get("resource-id")),
		ClassName:          strings.TrimSpace(get("class")),
		Package:            strings.TrimSpace(get("package")),
		Clickable:          get("clickable") == "true",
		Bounds:             bounds,
		Center:             ParseCenter(bounds),
	}
}
