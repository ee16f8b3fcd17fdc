package genimage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"devai-server/internal/domain"
)

const maxResponseBytes = 32 << 20

// Config carries the provider credential and wire contract. Secrets arrive
// here explicitly instead of being read from the process environment.
type Config struct {
	Endpoint string
	APIKey   string
	Contract string
	Timeout  time.Duration
}

// HTTPClient calls an inference provider over HTTPS. One attempt per call,
// bounded by the configured timeout.
type HTTPClient struct {
	cfg      Config
	contract contract
	http     *http.Client
	logger   *logrus.Logger
}

func NewHTTPClient(cfg Config, logger *logrus.Logger) (*HTTPClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("generate endpoint is required")
	}
	c, err := contractFor(cfg.Contract)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	return &HTTPClient{
		cfg:      cfg,
		contract: c,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

func (c *HTTPClient) Generate(ctx context.Context, prompt string) (*domain.GeneratedImage, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}

	c.logger.Infof("generating image for prompt: %s", prompt)

	body, err := c.contract.payload(prompt)
	if err != nil {
		return nil, fmt.Errorf("encode provider payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warnf("provider call failed: %v", err)
		return nil, &UpstreamError{Message: "Failed to generate image: " + err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &UpstreamError{Message: "Failed to generate image: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, upstreamFromResponse(resp, data)
	}

	raw, err := c.contract.image(data)
	if err != nil {
		return nil, &UpstreamError{Message: "Failed to generate image: " + err.Error()}
	}
	if len(raw) == 0 {
		return nil, &UpstreamError{Message: "Failed to generate image. No output received."}
	}

	mt := mimetype.Detect(raw)
	img := &domain.GeneratedImage{
		Prompt:    prompt,
		DataURI:   fmt.Sprintf("data:%s;base64,%s", mt.String(), base64.StdEncoding.EncodeToString(raw)),
		CreatedAt: time.Now().UTC(),
	}

	c.logger.Info("successfully generated image")
	return img, nil
}

// upstreamFromResponse surfaces the provider's own error text when the
// failure body is textual, and a generic message otherwise.
func upstreamFromResponse(resp *http.Response, body []byte) error {
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text") || strings.Contains(contentType, "json") {
		text := strings.TrimSpace(string(body))
		if text != "" {
			return &UpstreamError{Message: "API Error: " + text}
		}
	}
	return &UpstreamError{Message: fmt.Sprintf("Failed to generate image: provider returned status %d", resp.StatusCode)}
}

var _ Client = (*HTTPClient)(nil)
