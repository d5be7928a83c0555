package graph

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "semkb",
		Category:    "resource",
		Version:     "v1",
		Description: "RDF resource payload for graph ingestion with triples",
		Factory:     func() any { return &ResourcePayload{} },
	})
	if err != nil {
		panic("failed to register ResourcePayload: " + err.Error())
	}
}

// ResourceType is the message type for RDF resource payloads.
var ResourceType = message.Type{Domain: "semkb", Category: "resource", Version: "v1"}

// ResourcePayload carries every statement about one RDF subject.
type ResourcePayload struct {
	EntityID_  string           `json:"id"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// EntityID returns the entity identifier for Graphable interface.
func (p *ResourcePayload) EntityID() string { return p.EntityID_ }

// Triples returns the entity triples for Graphable interface.
func (p *ResourcePayload) Triples() []message.Triple { return p.TripleData }

// Schema returns the message type for Payload interface.
func (p *ResourcePayload) Schema() message.Type { return ResourceType }

// Validate validates the payload for Payload interface.
func (p *ResourcePayload) Validate() error {
	if p.EntityID_ == "" {
		return errors.New("entity ID is required")
	}
	if len(p.TripleData) == 0 {
		return errors.New("resource has no triples")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *ResourcePayload) MarshalJSON() ([]byte, error) {
	type Alias ResourcePayload
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ResourcePayload) UnmarshalJSON(data []byte) error {
	type Alias ResourcePayload
	return json.Unmarshal(data, (*Alias)(p))
}
