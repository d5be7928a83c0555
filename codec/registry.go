package codec

import (
	"sort"
	"sync"

	"github.com/c360studio/semkb/format"
	"github.com/c360studio/semkb/rdfgraph"
)

// Decoder reads one serialisation format into a graph builder.
type Decoder interface {
	// Format returns the serialisation format handled by this decoder.
	Format() format.Format

	// Decode adds every statement and prefix binding found in content to b.
	Decode(content []byte, b *rdfgraph.Builder) error
}

// Registry manages decoders keyed by format.
type Registry struct {
	mu       sync.RWMutex
	decoders map[format.Format]Decoder
}

// DefaultRegistry is the global registry with every built-in decoder.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a registry with the built-in decoders.
func NewRegistry() *Registry {
	r := &Registry{
		decoders: make(map[format.Format]Decoder),
	}

	r.Register(NewTurtleDecoder())
	r.Register(NewNTriplesDecoder())
	r.Register(NewNQuadsDecoder())
	r.Register(NewTriGDecoder())
	r.Register(NewRDFXMLDecoder())
	r.Register(NewJSONLDDecoder())
	r.Register(NewRDFJSONDecoder())
	r.Register(NewTriXDecoder())
	r.Register(NewThriftDecoder())

	return r
}

// NewEmptyRegistry creates a registry without decoders.
func NewEmptyRegistry() *Registry {
	return &Registry{decoders: make(map[format.Format]Decoder)}
}

// Register adds a decoder, replacing any decoder for the same format.
func (r *Registry) Register(d Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[d.Format()] = d
}

// Get returns the decoder for f.
func (r *Registry) Get(f format.Format) (Decoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[f]
	return d, ok
}

// Formats returns the registered formats in sorted order.
func (r *Registry) Formats() []format.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]format.Format, 0, len(r.decoders))
	for f := range r.decoders {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
