package provider

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-agent-platform/models"
)

func TestSimClient_ServesEveryType(t *testing.T) {
	sim := NewSimClient()

	for _, serviceType := range []models.ServiceType{
		models.ServiceText2Text,
		models.ServiceText2Image,
		models.ServiceText2Speech,
		models.ServiceSpeech2Text,
		models.ServiceEmbedding,
	} {
		assert.True(t, sim.Supports(serviceType), string(serviceType))
	}
}

func TestSimClient_TextGeneration(t *testing.T) {
	sim := NewSimClient()

	result, err := sim.Generate(context.Background(), Request{
		Type:    models.ServiceText2Text,
		Payload: json.RawMessage(`{"prompt":"four word test prompt"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, "sim", result.Provider)
	assert.Equal(t, "sim-1", result.Model)
	assert.JSONEq(t, `{"text":"sim: four word test prompt"}`, string(result.Output))
	// len("four word test prompt")/4 + 1
	assert.Equal(t, int64(6), result.Units)
}

func TestSimClient_ImageGeneration(t *testing.T) {
	sim := NewSimClient()

	result, err := sim.Generate(context.Background(), Request{
		Type:    models.ServiceText2Image,
		Model:   "stable-diffusion-v1-5",
		Payload: json.RawMessage(`{"prompt":"a lighthouse"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, "stable-diffusion-v1-5", result.Model)
	assert.Equal(t, int64(1), result.Units)

	var output struct {
		Images []map[string]string `json:"images"`
	}
	require.NoError(t, json.Unmarshal(result.Output, &output))
	assert.Len(t, output.Images, 1)
}

func TestSimClient_SpeechBillsPerCharacter(t *testing.T) {
	sim := NewSimClient()

	result, err := sim.Generate(context.Background(), Request{
		Type:    models.ServiceText2Speech,
		Payload: json.RawMessage(`{"text":"read me aloud"}`),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(len("read me aloud")), result.Units)
}

func TestSimClient_EmptyPrompt(t *testing.T) {
	sim := NewSimClient()

	_, err := sim.Generate(context.Background(), Request{
		Type:    models.ServiceText2Text,
		Payload: json.RawMessage(`{}`),
	})

	require.ErrorIs(t, err, ErrEmptyPayload)
}

func TestSimClient_CancelledContext(t *testing.T) {
	sim := NewSimClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Generate(ctx, Request{
		Type:    models.ServiceText2Text,
		Payload: json.RawMessage(`{"prompt":"hello"}`),
	})

	require.ErrorIs(t, err, context.Canceled)
}
