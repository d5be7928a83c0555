// Package export re-serialises knowledge-base graphs and projects them into
// external stores.
package export

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/c360studio/semkb/rdfgraph"
	"github.com/c360studio/semkb/vocabulary"
)

// Profile determines which statements of a graph are exported.
type Profile string

const (
	// ProfileFull exports every statement of the union.
	ProfileFull Profile = "full"

	// ProfileSchema exports statements about classes and properties.
	ProfileSchema Profile = "schema"

	// ProfileInstances exports everything ProfileSchema leaves out.
	ProfileInstances Profile = "instances"
)

// ProfileConfig contains configuration for an export profile.
type ProfileConfig struct {
	// Name is the profile identifier.
	Name Profile

	// Description describes the profile.
	Description string

	// IncludeSchema keeps statements whose subject is a class or property.
	IncludeSchema bool

	// IncludeInstances keeps every other statement.
	IncludeInstances bool
}

// Profiles contains the configuration for all available export profiles.
var Profiles = map[Profile]ProfileConfig{
	ProfileFull: {
		Name:             ProfileFull,
		Description:      "Every statement of the accumulated graph",
		IncludeSchema:    true,
		IncludeInstances: true,
	},
	ProfileSchema: {
		Name:          ProfileSchema,
		Description:   "Class and property declarations only",
		IncludeSchema: true,
	},
	ProfileInstances: {
		Name:             ProfileInstances,
		Description:      "Instance data without the vocabulary",
		IncludeInstances: true,
	},
}

// ParseProfile resolves a profile name. Empty means ProfileFull.
func ParseProfile(s string) (Profile, error) {
	if s == "" {
		return ProfileFull, nil
	}
	p := Profile(s)
	if _, ok := Profiles[p]; !ok {
		names := make([]string, 0, len(Profiles))
		for name := range Profiles {
			names = append(names, string(name))
		}
		sort.Strings(names)
		return "", fmt.Errorf("unknown export profile %q (supported: %v)", s, names)
	}
	return p, nil
}

// GetProfileConfig returns the configuration for a profile.
// Returns ProfileFull config if the profile is not found.
func GetProfileConfig(profile Profile) ProfileConfig {
	if cfg, ok := Profiles[profile]; ok {
		return cfg
	}
	return Profiles[ProfileFull]
}

// Select returns the graph restricted to the statements the profile keeps.
// ProfileFull returns g itself.
func Select(g *rdfgraph.Graph, profile Profile) *rdfgraph.Graph {
	cfg := GetProfileConfig(profile)
	if cfg.IncludeSchema && cfg.IncludeInstances {
		return g
	}

	schema := schemaSubjects(g)
	b := rdfgraph.NewBuilder()
	for p, ns := range g.NamespacePrefixes() {
		b.SetPrefix(p, ns)
	}
	for _, t := range g.Triples() {
		isSchema := schema.Contains(t.S)
		if (isSchema && cfg.IncludeSchema) || (!isSchema && cfg.IncludeInstances) {
			// Statements from a built graph are always valid.
			_, _ = b.Add(t)
		}
	}
	return b.Build()
}

// schemaSubjects collects the subjects the schema profile keeps: classes,
// properties and anything typed with a schema vocabulary term.
func schemaSubjects(g *rdfgraph.Graph) mapset.Set[rdfgraph.Term] {
	out := mapset.NewThreadUnsafeSet[rdfgraph.Term]()
	for _, c := range g.Classes() {
		out.Add(rdfgraph.NewIRI(c))
	}
	for _, p := range g.Properties() {
		out.Add(rdfgraph.NewIRI(p))
	}
	typ := rdfgraph.NewIRI(vocabulary.RDFType)
	for _, t := range g.Find(nil, &typ, nil) {
		if iri, ok := t.O.URI(); ok && vocabulary.SchemaTypes.Contains(iri) {
			out.Add(t.S)
		}
	}
	return out
}
