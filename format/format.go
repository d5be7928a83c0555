// Package format maps file-extension tokens onto the RDF serialisation formats
// understood by the codec package.
//
// The registry is fixed at compile time. Unknown tokens are rejected here, at the
// boundary, rather than being handed to a decoder.
package format

import (
	"path/filepath"
	"sort"
	"strings"
)

// Format is a canonical serialisation format name.
type Format string

// Supported serialisation formats.
const (
	Turtle    Format = "Turtle"
	NTriples  Format = "N-TRIPLES"
	NQuads    Format = "N-Quads"
	TriG      Format = "TriG"
	RDFXML    Format = "RDF/XML"
	JSONLD    Format = "JSON-LD"
	RDFThrift Format = "RDF Thrift"
	RDFJSON   Format = "RDF/JSON"
	TriX      Format = "TriX"
)

// String returns the canonical format name.
func (f Format) String() string {
	return string(f)
}

// Info provides metadata about a serialisation format.
type Info struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extensions lists every token that resolves to this format (with dot).
	Extensions []string

	// Quads reports whether the syntax can carry named graphs.
	Quads bool

	// Binary reports whether the syntax is not text.
	Binary bool

	// Description describes the format.
	Description string
}

// registry contains metadata for all supported formats.
var registry = map[Format]Info{
	Turtle: {
		Name:        Turtle,
		MIMEType:    "text/turtle",
		Extensions:  []string{".ttl"},
		Description: "Turtle - Terse RDF Triple Language",
	},
	NTriples: {
		Name:        NTriples,
		MIMEType:    "application/n-triples",
		Extensions:  []string{".nt"},
		Description: "N-Triples - Line-based RDF format",
	},
	NQuads: {
		Name:        NQuads,
		MIMEType:    "application/n-quads",
		Extensions:  []string{".nq"},
		Quads:       true,
		Description: "N-Quads - Line-based RDF dataset format",
	},
	TriG: {
		Name:        TriG,
		MIMEType:    "application/trig",
		Extensions:  []string{".trig"},
		Quads:       true,
		Description: "TriG - Turtle with named graphs",
	},
	RDFXML: {
		Name:        RDFXML,
		MIMEType:    "application/rdf+xml",
		Extensions:  []string{".rdf", ".rdfs", ".owl"},
		Description: "RDF/XML - XML syntax for RDF",
	},
	JSONLD: {
		Name:        JSONLD,
		MIMEType:    "application/ld+json",
		Extensions:  []string{".jsonld"},
		Quads:       true,
		Description: "JSON-LD - JSON for Linked Data",
	},
	RDFThrift: {
		Name:        RDFThrift,
		MIMEType:    "application/rdf+thrift",
		Extensions:  []string{".trdf", ".rt"},
		Quads:       true,
		Binary:      true,
		Description: "RDF Thrift - Binary encoding using Apache Thrift",
	},
	RDFJSON: {
		Name:        RDFJSON,
		MIMEType:    "application/rdf+json",
		Extensions:  []string{".rj"},
		Description: "RDF/JSON - Subject-keyed JSON encoding",
	},
	TriX: {
		Name:        TriX,
		MIMEType:    "application/trix+xml",
		Extensions:  []string{".trix"},
		Quads:       true,
		Description: "TriX - Triples in XML",
	},
}

// tokens is the token -> format lookup table derived from registry.
var tokens = buildTokens()

func buildTokens() map[string]Format {
	m := make(map[string]Format)
	for name, info := range registry {
		for _, ext := range info.Extensions {
			m[ext] = name
		}
	}
	return m
}

// ResolveFormat returns the serialisation format for an extension token.
// Matching is case-insensitive; an unknown token yields *UnsupportedFormatError.
func ResolveFormat(token string) (Format, error) {
	f, ok := tokens[strings.ToLower(token)]
	if !ok {
		return "", &UnsupportedFormatError{Token: token, Supported: Tokens()}
	}
	return f, nil
}

// IsSupported reports whether token is in the registry.
func IsSupported(token string) bool {
	_, ok := tokens[strings.ToLower(token)]
	return ok
}

// FromPath resolves the format of a file path or URI from its extension and
// returns the lower-cased token alongside it.
func FromPath(path string) (Format, string, error) {
	if i := strings.IndexAny(path, "?#"); i >= 0 && strings.Contains(path, "://") {
		path = path[:i]
	}
	token := strings.ToLower(filepath.Ext(path))
	f, err := ResolveFormat(token)
	if err != nil {
		return "", token, err
	}
	return f, token, nil
}

// FromMIMEType returns the format registered for a MIME type. Parameters such as
// charset are ignored.
func FromMIMEType(mimeType string) (Format, bool) {
	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	for name, info := range registry {
		if info.MIMEType == mimeType {
			return name, true
		}
	}
	return "", false
}

// Lookup returns metadata for a format.
func Lookup(f Format) (Info, bool) {
	info, ok := registry[f]
	return info, ok
}

// Tokens returns every supported token in sorted order.
func Tokens() []string {
	out := make([]string, 0, len(tokens))
	for t := range tokens {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Formats returns every supported format in sorted order.
func Formats() []Format {
	out := make([]Format, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
