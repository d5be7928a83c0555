package codec

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"sort"
	"strconv"

	"github.com/apache/thrift/lib/go/thrift"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
	"github.com/c360studio/semkb/vocabulary"
)

// RDF Thrift field identifiers (BinRDF.thrift).
const (
	rowPrefixDecl = 1
	rowTriple     = 2
	rowQuad       = 3

	termIRI        = 1
	termBNode      = 2
	termLiteral    = 3
	termPrefixName = 4
	termInteger    = 10
	termDouble     = 11
	termDecimal    = 12
)

// thriftDecoder reads an RDF Thrift stream: a sequence of RDF_StreamRow
// unions in the compact protocol.
type thriftDecoder struct{}

// NewThriftDecoder returns the RDF Thrift decoder.
func NewThriftDecoder() Decoder {
	return thriftDecoder{}
}

func (thriftDecoder) Format() format.Format { return format.RDFThrift }

func (thriftDecoder) Decode(content []byte, b *rdfgraph.Builder) error {
	buf := thrift.NewTMemoryBufferLen(len(content))
	if _, err := buf.Write(content); err != nil {
		return err
	}
	r := &thriftReader{
		ctx:      context.Background(),
		p:        thrift.NewTCompactProtocolConf(buf, &thrift.TConfiguration{}),
		prefixes: make(map[string]string),
		b:        b,
	}
	for buf.Len() > 0 {
		if err := r.readRow(); err != nil {
			return fmt.Errorf("read stream row: %w", err)
		}
	}
	return nil
}

type thriftReader struct {
	ctx      context.Context
	p        thrift.TProtocol
	prefixes map[string]string
	b        *rdfgraph.Builder
}

// readStruct reads one struct or union, handing each field to fn. fn must
// consume or skip the field value.
func (r *thriftReader) readStruct(fn func(id int16, typ thrift.TType) error) error {
	if _, err := r.p.ReadStructBegin(r.ctx); err != nil {
		return err
	}
	for {
		_, typ, id, err := r.p.ReadFieldBegin(r.ctx)
		if err != nil {
			return err
		}
		if typ == thrift.STOP {
			break
		}
		if err := fn(id, typ); err != nil {
			return err
		}
		if err := r.p.ReadFieldEnd(r.ctx); err != nil {
			return err
		}
	}
	return r.p.ReadStructEnd(r.ctx)
}

func (r *thriftReader) skip(typ thrift.TType) error {
	return r.p.Skip(r.ctx, typ)
}

// readStrings reads a struct whose fields are all strings, keyed by id.
func (r *thriftReader) readStrings() (map[int16]string, error) {
	out := make(map[int16]string)
	err := r.readStruct(func(id int16, typ thrift.TType) error {
		if typ != thrift.STRING {
			return r.skip(typ)
		}
		s, err := r.p.ReadString(r.ctx)
		out[id] = s
		return err
	})
	return out, err
}

func (r *thriftReader) readRow() error {
	return r.readStruct(func(id int16, typ thrift.TType) error {
		switch {
		case id == rowPrefixDecl && typ == thrift.STRUCT:
			decl, err := r.readStrings()
			if err != nil {
				return err
			}
			r.prefixes[decl[1]] = decl[2]
			r.b.SetPrefix(decl[1], decl[2])
			return nil
		case (id == rowTriple || id == rowQuad) && typ == thrift.STRUCT:
			return r.readStatement()
		default:
			return r.skip(typ)
		}
	})
}

// readStatement reads RDF_Triple or RDF_Quad; a quad's graph field is ignored.
func (r *thriftReader) readStatement() error {
	var terms [3]rdfgraph.Term
	err := r.readStruct(func(id int16, typ thrift.TType) error {
		if id < 1 || id > 3 || typ != thrift.STRUCT {
			return r.skip(typ)
		}
		t, err := r.readTerm()
		terms[id-1] = t
		return err
	})
	if err != nil {
		return err
	}
	_, err = r.b.AddTriple(terms[0], terms[1], terms[2])
	return err
}

func (r *thriftReader) readTerm() (rdfgraph.Term, error) {
	var term rdfgraph.Term
	err := r.readStruct(func(id int16, typ thrift.TType) error {
		switch {
		case id == termIRI && typ == thrift.STRUCT:
			f, err := r.readStrings()
			term = rdfgraph.NewIRI(f[1])
			return err
		case id == termBNode && typ == thrift.STRUCT:
			f, err := r.readStrings()
			term = rdfgraph.NewBlank(f[1])
			return err
		case id == termLiteral && typ == thrift.STRUCT:
			return r.readLiteral(&term)
		case id == termPrefixName && typ == thrift.STRUCT:
			f, err := r.readStrings()
			if err != nil {
				return err
			}
			ns, ok := r.prefixes[f[1]]
			if !ok {
				return fmt.Errorf("undeclared prefix %q", f[1])
			}
			term = rdfgraph.NewIRI(ns + f[2])
			return nil
		case id == termInteger && typ == thrift.I64:
			v, err := r.p.ReadI64(r.ctx)
			term = rdfgraph.NewTypedLiteral(strconv.FormatInt(v, 10), vocabulary.XSDInteger)
			return err
		case id == termDouble && typ == thrift.DOUBLE:
			v, err := r.p.ReadDouble(r.ctx)
			term = rdfgraph.NewTypedLiteral(strconv.FormatFloat(v, 'E', -1, 64), vocabulary.XSDDouble)
			return err
		case id == termDecimal && typ == thrift.STRUCT:
			return r.readDecimal(&term)
		default:
			return fmt.Errorf("unsupported term field %d", id)
		}
	})
	if err == nil && term.IsZero() {
		err = fmt.Errorf("empty term")
	}
	return term, err
}

func (r *thriftReader) readLiteral(term *rdfgraph.Term) error {
	var lex, lang, datatype string
	err := r.readStruct(func(id int16, typ thrift.TType) error {
		switch {
		case id <= 3 && typ == thrift.STRING:
			s, err := r.p.ReadString(r.ctx)
			switch id {
			case 1:
				lex = s
			case 2:
				lang = s
			case 3:
				datatype = s
			}
			return err
		case id == 4 && typ == thrift.STRUCT:
			f, err := r.readStrings()
			if err != nil {
				return err
			}
			datatype = r.prefixes[f[1]] + f[2]
			return nil
		default:
			return r.skip(typ)
		}
	})
	if lang != "" {
		*term = rdfgraph.NewLangLiteral(lex, lang)
	} else {
		*term = rdfgraph.NewTypedLiteral(lex, datatype)
	}
	return err
}

func (r *thriftReader) readDecimal(term *rdfgraph.Term) error {
	var value int64
	var scale int32
	err := r.readStruct(func(id int16, typ thrift.TType) error {
		var err error
		switch {
		case id == 1 && typ == thrift.I64:
			value, err = r.p.ReadI64(r.ctx)
		case id == 2 && typ == thrift.I32:
			scale, err = r.p.ReadI32(r.ctx)
		default:
			err = r.skip(typ)
		}
		return err
	})
	*term = rdfgraph.NewTypedLiteral(formatDecimal(value, scale), vocabulary.XSDDecimal)
	return err
}

// formatDecimal renders value * 10^-scale.
func formatDecimal(value int64, scale int32) string {
	if scale <= 0 {
		v := new(big.Int).Mul(big.NewInt(value), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-scale)), nil))
		return v.String() + ".0"
	}
	return new(big.Rat).SetFrac(big.NewInt(value), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)).
		FloatString(int(scale))
}

// EncodeThrift writes g as an RDF Thrift stream: prefix declarations first,
// then one triple row per statement.
func EncodeThrift(w io.Writer, g *rdfgraph.Graph) error {
	buf := thrift.NewTMemoryBuffer()
	tw := &thriftWriter{
		ctx: context.Background(),
		p:   thrift.NewTCompactProtocolConf(buf, &thrift.TConfiguration{}),
	}

	prefixes := g.NamespacePrefixes()
	names := make([]string, 0, len(prefixes))
	for p := range prefixes {
		names = append(names, p)
	}
	sort.Strings(names)

	for _, p := range names {
		ns := prefixes[p]
		err := tw.structure("RDF_StreamRow", func() error {
			return tw.field("prefixDecl", rowPrefixDecl, func() error {
				return tw.structure("RDF_PrefixDecl", func() error {
					if err := tw.str("prefix", 1, p); err != nil {
						return err
					}
					return tw.str("uri", 2, ns)
				})
			})
		})
		if err != nil {
			return err
		}
	}

	for _, t := range g.Triples() {
		if err := tw.triple(t); err != nil {
			return err
		}
	}
	if err := tw.p.Flush(tw.ctx); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

type thriftWriter struct {
	ctx context.Context
	p   thrift.TProtocol
}

func (w *thriftWriter) structure(name string, fields func() error) error {
	if err := w.p.WriteStructBegin(w.ctx, name); err != nil {
		return err
	}
	if err := fields(); err != nil {
		return err
	}
	if err := w.p.WriteFieldStop(w.ctx); err != nil {
		return err
	}
	return w.p.WriteStructEnd(w.ctx)
}

func (w *thriftWriter) field(name string, id int16, value func() error) error {
	if err := w.p.WriteFieldBegin(w.ctx, name, thrift.STRUCT, id); err != nil {
		return err
	}
	if err := value(); err != nil {
		return err
	}
	return w.p.WriteFieldEnd(w.ctx)
}

func (w *thriftWriter) str(name string, id int16, v string) error {
	if err := w.p.WriteFieldBegin(w.ctx, name, thrift.STRING, id); err != nil {
		return err
	}
	if err := w.p.WriteString(w.ctx, v); err != nil {
		return err
	}
	return w.p.WriteFieldEnd(w.ctx)
}

func (w *thriftWriter) triple(t rdfgraph.Triple) error {
	return w.structure("RDF_StreamRow", func() error {
		return w.field("triple", rowTriple, func() error {
			return w.structure("RDF_Triple", func() error {
				for i, term := range []rdfgraph.Term{t.S, t.P, t.O} {
					term := term
					err := w.field("term", int16(i+1), func() error { return w.term(term) })
					if err != nil {
						return err
					}
				}
				return nil
			})
		})
	})
}

func (w *thriftWriter) term(t rdfgraph.Term) error {
	return w.structure("RDF_Term", func() error {
		switch t.Kind {
		case rdfgraph.KindIRI:
			return w.field("iri", termIRI, func() error {
				return w.structure("RDF_IRI", func() error { return w.str("iri", 1, t.Value) })
			})
		case rdfgraph.KindBlank:
			return w.field("bnode", termBNode, func() error {
				return w.structure("RDF_BNode", func() error { return w.str("label", 1, t.Value) })
			})
		case rdfgraph.KindLiteral:
			return w.field("literal", termLiteral, func() error {
				return w.structure("RDF_Literal", func() error {
					if err := w.str("lex", 1, t.Value); err != nil {
						return err
					}
					if t.Lang != "" {
						return w.str("langtag", 2, t.Lang)
					}
					if t.Datatype != "" {
						return w.str("datatype", 3, t.Datatype)
					}
					return nil
				})
			})
		default:
			return fmt.Errorf("cannot encode term kind %s", t.Kind)
		}
	})
}
