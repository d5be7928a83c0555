// Package vocabulary provides the RDF, RDFS, OWL and XSD terms the knowledge-base
// packages reason about.
//
// IRIs are plain strings so they can be compared directly against term values
// produced by the codec package. The schema vocabulary used for document
// classification lives in SchemaTypes.
package vocabulary
