package codec

import (
	"bytes"
	"strings"

	"github.com/knakk/rdf"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

// trigDecoder reads TriG by rewriting it into plain Turtle: graph labels and
// braces are removed so every block contributes to the one graph.
type trigDecoder struct{}

// NewTriGDecoder returns the TriG decoder.
func NewTriGDecoder() Decoder {
	return trigDecoder{}
}

func (trigDecoder) Format() format.Format { return format.TriG }

func (trigDecoder) Decode(content []byte, b *rdfgraph.Builder) error {
	for p, ns := range turtlePrefixes(content) {
		b.SetPrefix(p, ns)
	}
	return decodeTriples(flattenTriG(content), rdf.Turtle, b)
}

// flattenTriG removes graph blocks from a TriG document. Strings, IRIs and
// comments are copied untouched so braces inside them are not mistaken for
// block delimiters.
func flattenTriG(src []byte) []byte {
	out := make([]byte, 0, len(src)+16)
	depth := 0
	blockStart := 0

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '<':
			end := bytes.IndexByte(src[i:], '>')
			if end < 0 {
				return append(out, src[i:]...)
			}
			out = append(out, src[i:i+end+1]...)
			i += end

		case c == '"' || c == '\'':
			n := stringLen(src[i:])
			out = append(out, src[i:i+n]...)
			i += n - 1

		case c == '#':
			end := bytes.IndexByte(src[i:], '\n')
			if end < 0 {
				return out
			}
			i += end - 1

		case c == '{' && depth == 0:
			out = dropGraphLabel(out)
			out = append(out, ' ')
			blockStart = len(out)
			depth++

		case c == '{':
			depth++
			out = append(out, c)

		case c == '}' && depth == 1:
			depth--
			body := bytes.TrimSpace(out[blockStart:])
			if len(body) > 0 && body[len(body)-1] != '.' {
				out = append(out, " ."...)
			}
			out = append(out, '\n')

		case c == '}' && depth > 1:
			depth--
			out = append(out, c)

		default:
			out = append(out, c)
		}
	}
	return out
}

// stringLen returns the length of the quoted literal at the start of s,
// including its delimiters. Long (triple-quoted) forms are supported.
func stringLen(s []byte) int {
	q := s[0]
	long := len(s) >= 3 && s[1] == q && s[2] == q
	i := 1
	if long {
		i = 3
	}
	for i < len(s) {
		switch {
		case s[i] == '\\':
			i += 2
			continue
		case long && s[i] == q && i+2 < len(s) && s[i+1] == q && s[i+2] == q:
			return i + 3
		case !long && s[i] == q:
			return i + 1
		}
		i++
	}
	return len(s)
}

// dropGraphLabel removes an optional graph name and GRAPH keyword from the end
// of out.
func dropGraphLabel(out []byte) []byte {
	trimmed := bytes.TrimRight(out, " \t\r\n")
	label := labelStart(trimmed)
	if label < 0 || isDirectiveLine(trimmed[:label]) {
		return out
	}
	trimmed = bytes.TrimRight(trimmed[:label], " \t\r\n")

	if n := len(trimmed); n >= 5 && strings.EqualFold(string(trimmed[n-5:]), "GRAPH") &&
		(n == 5 || isSpace(trimmed[n-6]) || trimmed[n-6] == '.' || trimmed[n-6] == '}') {
		trimmed = trimmed[:n-5]
	}
	return trimmed
}

// labelStart returns the index where a trailing graph label begins, or -1 when
// out does not end with one.
func labelStart(out []byte) int {
	n := len(out)
	if n == 0 {
		return -1
	}
	switch out[n-1] {
	case '>':
		return bytes.LastIndexByte(out, '<')
	case ']':
		open := bytes.LastIndexByte(out, '[')
		if open < 0 || len(bytes.TrimSpace(out[open+1:n-1])) > 0 {
			return -1
		}
		return open
	case '.', ';', ',', '}', ')':
		return -1
	}
	i := n
	for i > 0 && !isSpace(out[i-1]) && !strings.ContainsRune(".;,{}()[]", rune(out[i-1])) {
		i--
	}
	// A bare GRAPH keyword is not a label.
	if strings.EqualFold(string(out[i:]), "GRAPH") {
		return -1
	}
	return i
}

// isDirectiveLine reports whether the text before a candidate label belongs to
// a SPARQL-style PREFIX or BASE directive, whose IRI must be kept.
func isDirectiveLine(before []byte) bool {
	line := before
	if nl := bytes.LastIndexByte(before, '\n'); nl >= 0 {
		line = before[nl+1:]
	}
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return false
	}
	kw := strings.ToUpper(fields[0])
	return kw == "PREFIX" || kw == "BASE" || kw == "@PREFIX" || kw == "@BASE"
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
