package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

const (
	elevenLabsBaseURL      = "https://api.elevenlabs.io/v1"
	elevenLabsDefaultModel = "eleven_multilingual_v2"

	// elevenLabsDefaultVoice is the stock "Rachel" voice, used when the
	// payload names none.
	elevenLabsDefaultVoice = "21m00Tcw3ZfngrxWBBjn"

	// elevenLabsMaxTextLen bounds one synthesis request.
	elevenLabsMaxTextLen = 5000
)

// elevenLabsClient serves speech synthesis through the text-to-speech API.
type elevenLabsClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewElevenLabsClient constructs a [Client] backed by the ElevenLabs API.
func NewElevenLabsClient(apiKey string, timeout time.Duration, log *logger.Logger) Client {
	cli := resty.New().
		SetBaseURL(elevenLabsBaseURL).
		SetTimeout(timeout).
		SetHeader("xi-api-key", apiKey).
		SetHeader("Content-Type", "application/json")

	return &elevenLabsClient{client: cli, logger: log}
}

func (e *elevenLabsClient) Name() string { return "elevenlabs" }

func (e *elevenLabsClient) Supports(t models.ServiceType) bool {
	return t == models.ServiceText2Speech
}

type elevenLabsRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	VoiceSettings elevenLabsSettings `json:"voice_settings"`
}

type elevenLabsSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (e *elevenLabsClient) Generate(ctx context.Context, req Request) (Result, error) {
	if req.Type != models.ServiceText2Speech {
		return Result{}, fmt.Errorf("%w: elevenlabs cannot serve %q", ErrUnsupportedType, req.Type)
	}

	fields, err := parsePayload(req.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("elevenlabs payload: %w", err)
	}
	text := fields.prompt()
	if text == "" {
		return Result{}, fmt.Errorf("elevenlabs payload: %w", ErrEmptyPayload)
	}
	if len(text) > elevenLabsMaxTextLen {
		return Result{}, fmt.Errorf("%w: elevenlabs text exceeds %d characters", ErrUpstream, elevenLabsMaxTextLen)
	}

	voice := fields.Voice
	if voice == "" {
		voice = elevenLabsDefaultVoice
	}

	body := elevenLabsRequest{
		Text:    text,
		ModelID: modelOrDefault(req.Model, elevenLabsDefaultModel),
		VoiceSettings: elevenLabsSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}

	started := time.Now()
	resp, err := e.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/text-to-speech/" + voice)
	if err != nil {
		return Result{}, fmt.Errorf("elevenlabs text-to-speech request: %w", err)
	}
	if err = upstreamError("elevenlabs", resp); err != nil {
		return Result{}, err
	}

	// The response body is raw audio; the platform stores results as JSON.
	output, err := json.Marshal(map[string]string{
		"audio":        base64.StdEncoding.EncodeToString(resp.Body()),
		"content_type": resp.Header().Get("Content-Type"),
	})
	if err != nil {
		return Result{}, fmt.Errorf("encode elevenlabs output: %w", err)
	}

	return Result{
		Provider: e.Name(),
		Model:    body.ModelID,
		Output:   output,
		Units:    int64(len(text)),
		Latency:  time.Since(started),
	}, nil
}

// Status reads the subscription endpoint, which answers for any valid key.
func (e *elevenLabsClient) Status(ctx context.Context) error {
	resp, err := e.client.R().SetContext(ctx).Get("/user/subscription")
	if err != nil {
		return fmt.Errorf("elevenlabs status: %w", err)
	}
	return upstreamError("elevenlabs", resp)
}
