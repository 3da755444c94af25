// Package provider contains the clients for the upstream AI model
// providers and the aggregator that routes tasks across them.
package provider

import (
	"context"
	"encoding/json"
	"time"

	"github.com/MKhiriev/go-agent-platform/models"
)

// Request is one generation call. Payload carries the task payload
// verbatim; clients pick the fields they understand.
type Request struct {
	// Type selects the kind of generation.
	Type models.ServiceType

	// Model is the upstream model identifier. Empty selects the client's
	// default.
	Model string

	// Payload is the task payload as submitted.
	Payload json.RawMessage
}

// Result is the outcome of one generation call.
type Result struct {
	// Provider names the client that served the call.
	Provider string

	// Model is the model that actually ran.
	Model string

	// Output is the provider response reduced to the platform shape.
	Output json.RawMessage

	// Units is the billable quantity: tokens for text, images for image
	// generation, characters for speech.
	Units int64

	// Latency is the wall-clock duration of the upstream call.
	Latency time.Duration
}

// Client is one upstream provider.
type Client interface {
	// Name identifies the provider in logs, usage rows and health output.
	Name() string

	// Supports reports whether the provider can serve the service type.
	Supports(t models.ServiceType) bool

	// Generate executes one call. The context carries the task deadline.
	Generate(ctx context.Context, req Request) (Result, error)

	// Status probes the provider's reachability.
	Status(ctx context.Context) error
}

// Runner is the provider surface the task pipeline consumes.
type Runner interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// payloadFields is the superset of payload keys the clients understand.
// Unknown keys are ignored.
type payloadFields struct {
	Prompt      string    `json:"prompt"`
	Messages    []message `json:"messages"`
	System      string    `json:"system"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature"`

	Text  string `json:"text"`
	Voice string `json:"voice"`

	Size    string `json:"size"`
	Samples int    `json:"samples"`

	Input string `json:"input"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func parsePayload(raw json.RawMessage) (payloadFields, error) {
	var fields payloadFields
	if len(raw) == 0 {
		return fields, ErrEmptyPayload
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fields, err
	}
	return fields, nil
}

// prompt returns the text prompt of the payload regardless of which field
// carried it.
func (p payloadFields) prompt() string {
	switch {
	case p.Prompt != "":
		return p.Prompt
	case p.Text != "":
		return p.Text
	case p.Input != "":
		return p.Input
	case len(p.Messages) > 0:
		return p.Messages[len(p.Messages)-1].Content
	}
	return ""
}
