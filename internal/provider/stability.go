package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-agent-platform/internal/logger"
	"github.com/MKhiriev/go-agent-platform/models"
)

const (
	stabilityBaseURL       = "https://api.stability.ai/v1"
	stabilityDefaultEngine = "stable-diffusion-xl"
	stabilityDefaultSize   = 512
)

// stabilityClient serves image generation through the text-to-image API.
type stabilityClient struct {
	client *resty.Client
	logger *logger.Logger
}

// NewStabilityClient constructs a [Client] backed by the Stability AI API.
func NewStabilityClient(apiKey string, timeout time.Duration, log *logger.Logger) Client {
	cli := resty.New().
		SetBaseURL(stabilityBaseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &stabilityClient{client: cli, logger: log}
}

func (s *stabilityClient) Name() string { return "stability" }

func (s *stabilityClient) Supports(t models.ServiceType) bool {
	return t == models.ServiceText2Image
}

type stabilityRequest struct {
	TextPrompts []stabilityPrompt `json:"text_prompts"`
	Height      int               `json:"height"`
	Width       int               `json:"width"`
	Samples     int               `json:"samples"`
}

type stabilityPrompt struct {
	Text string `json:"text"`
}

type stabilityResponse struct {
	Artifacts []struct {
		Base64       string `json:"base64"`
		Seed         int64  `json:"seed"`
		FinishReason string `json:"finishReason"`
	} `json:"artifacts"`
}

func (s *stabilityClient) Generate(ctx context.Context, req Request) (Result, error) {
	if req.Type != models.ServiceText2Image {
		return Result{}, fmt.Errorf("%w: stability cannot serve %q", ErrUnsupportedType, req.Type)
	}

	fields, err := parsePayload(req.Payload)
	if err != nil {
		return Result{}, fmt.Errorf("stability payload: %w", err)
	}
	prompt := fields.prompt()
	if prompt == "" {
		return Result{}, fmt.Errorf("stability payload: %w", ErrEmptyPayload)
	}

	width, height := parseSize(fields.Size)
	samples := fields.Samples
	if samples <= 0 {
		samples = 1
	}

	body := stabilityRequest{
		TextPrompts: []stabilityPrompt{{Text: prompt}},
		Height:      height,
		Width:       width,
		Samples:     samples,
	}

	engine := modelOrDefault(req.Model, stabilityDefaultEngine)

	started := time.Now()
	var out stabilityResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		Post("/generation/" + engine + "/text-to-image")
	if err != nil {
		return Result{}, fmt.Errorf("stability text-to-image request: %w", err)
	}
	if err = upstreamError("stability", resp); err != nil {
		return Result{}, err
	}
	if len(out.Artifacts) == 0 {
		return Result{}, fmt.Errorf("%w: stability returned no artifacts", ErrUpstream)
	}

	images := make([]map[string]string, 0, len(out.Artifacts))
	for _, artifact := range out.Artifacts {
		images = append(images, map[string]string{"b64": artifact.Base64})
	}
	output, err := json.Marshal(map[string]any{"images": images})
	if err != nil {
		return Result{}, fmt.Errorf("encode stability output: %w", err)
	}

	return Result{
		Provider: s.Name(),
		Model:    engine,
		Output:   output,
		Units:    int64(len(out.Artifacts)),
		Latency:  time.Since(started),
	}, nil
}

// Status lists the available engines.
func (s *stabilityClient) Status(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).Get("/engines/list")
	if err != nil {
		return fmt.Errorf("stability status: %w", err)
	}
	return upstreamError("stability", resp)
}

// parseSize turns "512x512" into its dimensions; malformed or missing
// values fall back to the default square.
func parseSize(size string) (width, height int) {
	parts := strings.SplitN(size, "x", 2)
	if len(parts) != 2 {
		return stabilityDefaultSize, stabilityDefaultSize
	}

	w, errW := strconv.Atoi(parts[0])
	h, errH := strconv.Atoi(parts[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return stabilityDefaultSize, stabilityDefaultSize
	}
	return w, h
}
