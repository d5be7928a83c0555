package codec

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// trixElement is a generic XML element. TriX documents are walked by local
// name so both the namespaced and bare forms are accepted.
type trixElement struct {
	XMLName  xml.Name
	Attrs    []xml.Attr    `xml:",any,attr"`
	Text     string        `xml:",chardata"`
	Children []trixElement `xml:",any"`
}

func (e trixElement) attr(space, local string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == local && (space == "" || a.Name.Space == space) {
			return a.Value
		}
	}
	return ""
}

// trixDecoder reads TriX, flattening all graphs.
type trixDecoder struct{}

// NewTriXDecoder returns the TriX decoder.
func NewTriXDecoder() Decoder {
	return trixDecoder{}
}

func (trixDecoder) Format() format.Format { return format.TriX }

func (trixDecoder) Decode(content []byte, b *rdfgraph.Builder) error {
	var root trixElement
	if err := xml.NewDecoder(bytes.NewReader(content)).Decode(&root); err != nil {
		return fmt.Errorf("read trix: %w", err)
	}
	if !strings.EqualFold(root.XMLName.Local, "trix") {
		return fmt.Errorf("unexpected root element %q", root.XMLName.Local)
	}

	for p, ns := range xmlPrefixes(content) {
		if p != "" {
			b.SetPrefix(p, ns)
		}
	}

	for _, child := range root.Children {
		switch child.XMLName.Local {
		case "graph":
			for _, el := range child.Children {
				switch el.XMLName.Local {
				case "triple":
					if err := addTriXTriple(b, el); err != nil {
						return err
					}
				case "uri", "id":
					// graph name
				default:
					return fmt.Errorf("unexpected element %q in graph", el.XMLName.Local)
				}
			}
		case "triple":
			if err := addTriXTriple(b, child); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected element %q in TriX", child.XMLName.Local)
		}
	}
	return nil
}

func addTriXTriple(b *rdfgraph.Builder, el trixElement) error {
	if len(el.Children) != 3 {
		return fmt.Errorf("triple has %d terms, want 3", len(el.Children))
	}
	var terms [3]rdfgraph.Term
	for i, c := range el.Children {
		t, err := trixTerm(c)
		if err != nil {
			return err
		}
		terms[i] = t
	}
	_, err := b.AddTriple(terms[0], terms[1], terms[2])
	return err
}

func trixTerm(el trixElement) (rdfgraph.Term, error) {
	switch el.XMLName.Local {
	case "uri":
		return rdfgraph.NewIRI(strings.TrimSpace(el.Text)), nil
	case "id":
		return rdfgraph.NewBlank(strings.TrimSpace(el.Text)), nil
	case "plainLiteral":
		return rdfgraph.NewLangLiteral(el.Text, el.attr(xmlNamespace, "lang")), nil
	case "typedLiteral":
		dt := el.attr("", "datatype")
		if dt == "" {
			return rdfgraph.Term{}, fmt.Errorf("typedLiteral without datatype")
		}
		return rdfgraph.NewTypedLiteral(el.Text, dt), nil
	default:
		return rdfgraph.Term{}, fmt.Errorf("unexpected term element %q", el.XMLName.Local)
	}
}
