package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

// rdfjsonDecoder reads the subject-keyed RDF/JSON encoding:
//
//	{ "S": { "P": [ { "type": "uri", "value": "O" } ] } }
type rdfjsonDecoder struct{}

// NewRDFJSONDecoder returns the RDF/JSON decoder.
func NewRDFJSONDecoder() Decoder {
	return rdfjsonDecoder{}
}

func (rdfjsonDecoder) Format() format.Format { return format.RDFJSON }

func (rdfjsonDecoder) Decode(content []byte, b *rdfgraph.Builder) error {
	if !gjson.ValidBytes(content) {
		return errors.New("invalid json")
	}
	root := gjson.ParseBytes(content)
	if !root.IsObject() {
		return errors.New("rdf/json document must be an object")
	}

	var err error
	root.ForEach(func(subj, preds gjson.Result) bool {
		s := resourceTerm(subj.String())
		if !preds.IsObject() {
			err = fmt.Errorf("subject %s: predicates must be an object", subj.String())
			return false
		}
		preds.ForEach(func(pred, objs gjson.Result) bool {
			if !objs.IsArray() {
				err = fmt.Errorf("subject %s predicate %s: objects must be an array", subj.String(), pred.String())
				return false
			}
			p := rdfgraph.NewIRI(pred.String())
			for _, obj := range objs.Array() {
				var o rdfgraph.Term
				if o, err = rdfjsonObject(obj); err != nil {
					return false
				}
				if _, err = b.AddTriple(s, p, o); err != nil {
					return false
				}
			}
			return true
		})
		return err == nil
	})
	return err
}

func resourceTerm(v string) rdfgraph.Term {
	if strings.HasPrefix(v, "_:") {
		return rdfgraph.NewBlank(v)
	}
	return rdfgraph.NewIRI(v)
}

func rdfjsonObject(obj gjson.Result) (rdfgraph.Term, error) {
	value := obj.Get("value")
	if !value.Exists() {
		return rdfgraph.Term{}, errors.New("object without value")
	}
	switch typ := obj.Get("type").String(); typ {
	case "uri":
		return rdfgraph.NewIRI(value.String()), nil
	case "bnode":
		return rdfgraph.NewBlank(value.String()), nil
	case "literal":
		if lang := obj.Get("lang").String(); lang != "" {
			return rdfgraph.NewLangLiteral(value.String(), lang), nil
		}
		return rdfgraph.NewTypedLiteral(value.String(), obj.Get("datatype").String()), nil
	default:
		return rdfgraph.Term{}, fmt.Errorf("unknown object type %q", typ)
	}
}
