package indicator

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// disallowedElements are elements outside the SVG Tiny PS profile.
// Scripting and animation are prohibited outright; foreignObject and
// image pull in external content.
var disallowedElements = map[string]bool{
	"script":           true,
	"animate":          true,
	"animateColor":     true,
	"animateMotion":    true,
	"animateTransform": true,
	"set":              true,
	"foreignObject":    true,
	"image":            true,
}

// Scan applies the structural SVG Tiny PS checks that do not need the
// full schema: the document must be well-formed XML rooted at an svg
// element declaring baseProfile "tiny-ps", must contain a title element,
// and must not use scripting, animation or external-content elements.
func Scan(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))

	sawRoot := false
	sawTitle := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNotSVG, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		if !sawRoot {
			if start.Name.Local != "svg" {
				return fmt.Errorf("%w: root element is %q", ErrNotSVG, start.Name.Local)
			}
			if !hasAttr(start, "baseProfile", "tiny-ps") {
				return ErrMissingBaseProfile
			}
			sawRoot = true
			continue
		}

		if disallowedElements[start.Name.Local] {
			return fmt.Errorf("%w: %q", ErrDisallowedElement, start.Name.Local)
		}
		if start.Name.Local == "title" {
			sawTitle = true
		}
	}

	if !sawRoot {
		return ErrNotSVG
	}
	if !sawTitle {
		return ErrMissingTitle
	}
	return nil
}

func hasAttr(e xml.StartElement, name, value string) bool {
	for _, a := range e.Attr {
		if a.Name.Local == name && a.Value == value {
			return true
		}
	}
	return false
}
