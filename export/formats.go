package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/c360studio/semkb/rdfgraph"
	"github.com/c360studio/semkb/vocabulary"
)

// localName matches the local parts that may be written as prefixed names.
var localName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// TurtleWriter writes statements in Turtle, grouped by subject.
type TurtleWriter struct {
	prefixes map[string]string
}

// NewTurtleWriter creates a new Turtle writer with the standard prefixes.
func NewTurtleWriter() *TurtleWriter {
	return &TurtleWriter{prefixes: vocabulary.DefaultPrefixes()}
}

// SetPrefix sets a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// Write serialises triples to out. Subjects appear in first-seen order and
// each subject's predicates in first-seen order.
func (w *TurtleWriter) Write(out io.Writer, triples []rdfgraph.Triple) error {
	bw := bufio.NewWriter(out)

	keys := make([]string, 0, len(w.prefixes))
	for k := range w.prefixes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, prefix := range keys {
		fmt.Fprintf(bw, "@prefix %s: <%s> .\n", prefix, w.prefixes[prefix])
	}

	for _, block := range groupBySubject(triples) {
		bw.WriteString("\n")
		bw.WriteString(w.term(block.subject))
		for i, pred := range block.predicates {
			if i == 0 {
				bw.WriteString(" ")
			} else {
				bw.WriteString(" ;\n    ")
			}
			if pred.predicate.Value == vocabulary.RDFType {
				bw.WriteString("a")
			} else {
				bw.WriteString(w.term(pred.predicate))
			}
			for j, o := range pred.objects {
				if j > 0 {
					bw.WriteString(" ,")
				}
				bw.WriteString(" ")
				bw.WriteString(w.term(o))
			}
		}
		bw.WriteString(" .\n")
	}
	return bw.Flush()
}

// term formats t, compacting IRIs against the declared prefixes.
func (w *TurtleWriter) term(t rdfgraph.Term) string {
	switch t.Kind {
	case rdfgraph.KindIRI:
		return w.iri(t.Value)
	case rdfgraph.KindLiteral:
		s := `"` + rdfgraph.EscapeLiteral(t.Value) + `"`
		switch {
		case t.Lang != "":
			s += "@" + t.Lang
		case t.Datatype != "":
			s += "^^" + w.iri(t.Datatype)
		}
		return s
	default:
		return t.String()
	}
}

func (w *TurtleWriter) iri(iri string) string {
	best, bestNS := "", ""
	for prefix, ns := range w.prefixes {
		if ns == "" || !strings.HasPrefix(iri, ns) || len(ns) <= len(bestNS) {
			continue
		}
		local := iri[len(ns):]
		if local != "" && !localName.MatchString(local) {
			continue
		}
		best, bestNS = prefix, ns
	}
	if bestNS == "" {
		return "<" + iri + ">"
	}
	return best + ":" + iri[len(bestNS):]
}

type predicateGroup struct {
	predicate rdfgraph.Term
	objects   []rdfgraph.Term
}

type subjectBlock struct {
	subject    rdfgraph.Term
	predicates []*predicateGroup
}

func groupBySubject(triples []rdfgraph.Triple) []*subjectBlock {
	var blocks []*subjectBlock
	subjects := make(map[rdfgraph.Term]*subjectBlock)
	preds := make(map[[2]rdfgraph.Term]*predicateGroup)
	for _, t := range triples {
		block, ok := subjects[t.S]
		if !ok {
			block = &subjectBlock{subject: t.S}
			subjects[t.S] = block
			blocks = append(blocks, block)
		}
		key := [2]rdfgraph.Term{t.S, t.P}
		group, ok := preds[key]
		if !ok {
			group = &predicateGroup{predicate: t.P}
			preds[key] = group
			block.predicates = append(block.predicates, group)
		}
		group.objects = append(group.objects, t.O)
	}
	return blocks
}

// NTriplesWriter writes one statement per line.
type NTriplesWriter struct{}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter() *NTriplesWriter {
	return &NTriplesWriter{}
}

// Write serialises triples to out in order.
func (w *NTriplesWriter) Write(out io.Writer, triples []rdfgraph.Triple) error {
	bw := bufio.NewWriter(out)
	for _, t := range triples {
		bw.WriteString(t.String())
		bw.WriteString("\n")
	}
	return bw.Flush()
}

// JSONLDWriter writes a compacted JSON-LD document through json-gold.
type JSONLDWriter struct {
	prefixes map[string]string
	proc     *ld.JsonLdProcessor
}

// NewJSONLDWriter creates a new JSON-LD writer with the standard prefixes.
func NewJSONLDWriter() *JSONLDWriter {
	return &JSONLDWriter{
		prefixes: vocabulary.DefaultPrefixes(),
		proc:     ld.NewJsonLdProcessor(),
	}
}

// SetPrefix sets a term in the output @context.
func (w *JSONLDWriter) SetPrefix(prefix, iri string) {
	w.prefixes[prefix] = iri
}

// Write converts triples to expanded JSON-LD, compacts them against the
// prefix context and writes indented JSON.
func (w *JSONLDWriter) Write(out io.Writer, triples []rdfgraph.Triple) error {
	var nq bytes.Buffer
	if err := NewNTriplesWriter().Write(&nq, triples); err != nil {
		return err
	}

	opts := ld.NewJsonLdOptions("")
	opts.Format = "application/n-quads"
	expanded, err := w.proc.FromRDF(nq.String(), opts)
	if err != nil {
		return fmt.Errorf("convert rdf to json-ld: %w", err)
	}

	ctx := make(map[string]any, len(w.prefixes))
	for k, v := range w.prefixes {
		ctx[k] = v
	}
	compacted, err := w.proc.Compact(expanded, map[string]any{"@context": ctx}, ld.NewJsonLdOptions(""))
	if err != nil {
		return fmt.Errorf("compact json-ld: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(compacted); err != nil {
		return fmt.Errorf("write json-ld: %w", err)
	}
	return nil
}
