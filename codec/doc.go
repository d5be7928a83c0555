// Package codec turns serialised RDF documents into rdfgraph graphs.
//
// Each supported format has a Decoder registered in a Registry. The Engine
// looks up the decoder for a format, runs it into a fresh rdfgraph.Builder and
// sorts failures into the rdfgraph.ParseError kinds: a decoder error is
// MalformedSyntax, a format without a decoder is EngineError.
//
// Quad formats are flattened: statements from every named graph land in the
// one resulting graph.
package codec
