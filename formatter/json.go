package formatter

import (
	"encoding/json"
	"io"
)

type responseBuilder struct{}

func newResponseBuilder() *responseBuilder { return &responseBuilder{} }

// NewResponseBuilder creates a new response builder for formatting itinerary documents
func NewResponseBuilder() *responseBuilder {
	return newResponseBuilder()
}

// BuildJSON serializes an itinerary document to JSON
func (rb *responseBuilder) BuildJSON(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// WriteBatchJSON writes an indented batch document to w
func (rb *responseBuilder) WriteBatchJSON(w io.Writer, b Batch) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}
