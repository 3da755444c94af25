package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-agent-platform/models"
)

// simClient is a local stand-in provider. It answers every service type
// with deterministic canned output so development installs and tests can
// run the full task pipeline without upstream credentials.
type simClient struct{}

// NewSimClient constructs the sim provider.
func NewSimClient() Client {
	return &simClient{}
}

func (s *simClient) Name() string { return "sim" }

func (s *simClient) Supports(models.ServiceType) bool { return true }

func (s *simClient) Generate(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	fields, err := parsePayload(req.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("sim payload: %w", err)
	}
	prompt := fields.prompt()
	if prompt == "" {
		return Result{}, fmt.Errorf("sim payload: %w", ErrEmptyPayload)
	}

	var (
		output map[string]any
		units  int64
	)

	switch req.Type {
	case models.ServiceText2Image:
		output = map[string]any{"images": []map[string]string{{"b64": ""}}}
		units = 1
	case models.ServiceText2Speech:
		output = map[string]any{"audio": "", "content_type": "audio/mpeg"}
		units = int64(len(prompt))
	default:
		output = map[string]any{"text": "sim: " + prompt}
		// Rough token estimate, same granularity real providers bill at.
		units = int64(len(prompt)/4) + 1
	}

	encoded, err := json.Marshal(output)
	if err != nil {
		return Result{}, fmt.Errorf("encode sim output: %w", err)
	}

	return Result{
		Provider: s.Name(),
		Model:    modelOrDefault(req.Model, "sim-1"),
		Output:   encoded,
		Units:    units,
		Latency:  time.Millisecond,
	}, nil
}

func (s *simClient) Status(context.Context) error { return nil }
