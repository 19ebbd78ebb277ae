// Package googletts implements the synthesis.Provider interface against the
// Google Cloud Text-to-Speech REST API (text:synthesize). It performs a
// single HTTP call per item and classifies provider responses into the
// synthesis error taxonomy; retries and circuit breaking are the caller's
// concern.
package googletts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/batchvox/batchvox/internal/config"
	"github.com/batchvox/batchvox/internal/synthesis"
)

const (
	providerName    = "google-tts"
	defaultEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"
)

// Client calls the Google Cloud TTS REST API. Safe for concurrent use.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     *slog.Logger
}

// New creates a Client from provider configuration.
func New(cfg config.ProviderConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("provider API key cannot be empty")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return providerName
}

// synthesizeRequest is the text:synthesize request body.
type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding   string `json:"audioEncoding"`
		SampleRateHertz int    `json:"sampleRateHertz"`
	} `json:"audioConfig"`
}

// synthesizeResponse is the text:synthesize response body.
type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize converts text to audio bytes.
func (c *Client) Synthesize(ctx context.Context, text string, params synthesis.Params) ([]byte, error) {
	if text == "" {
		return nil, synthesis.ErrEmptyText
	}
	if !params.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", synthesis.ErrInvalidFormat, params.Format)
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = params.LanguageCode
	reqBody.Voice.Name = params.VoiceID
	reqBody.AudioConfig.AudioEncoding = audioEncoding(params.Format)
	reqBody.AudioConfig.SampleRateHertz = params.SampleRate

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal synthesize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failures and timeouts are transient from this layer's view.
		return nil, &synthesis.ProviderError{
			Provider:  providerName,
			Code:      "transport",
			Message:   "synthesize request failed",
			Cause:     errors.Join(synthesis.ErrServiceUnavailable, err),
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyStatus(resp)
	}

	var body synthesizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &synthesis.ProviderError{
			Provider:  providerName,
			Code:      "decode",
			Message:   "malformed synthesize response",
			Cause:     err,
			Retryable: false,
		}
	}

	audio, err := base64.StdEncoding.DecodeString(body.AudioContent)
	if err != nil {
		return nil, &synthesis.ProviderError{
			Provider:  providerName,
			Code:      "decode",
			Message:   "malformed audio content",
			Cause:     err,
			Retryable: false,
		}
	}
	if len(audio) == 0 {
		return nil, &synthesis.ProviderError{
			Provider:  providerName,
			Code:      "empty",
			Message:   "provider returned no audio",
			Retryable: false,
		}
	}

	return audio, nil
}

// classifyStatus maps a non-200 response to the synthesis error taxonomy.
func (c *Client) classifyStatus(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	code := fmt.Sprintf("%d", resp.StatusCode)
	c.logger.Debug("provider returned error status",
		"status", resp.StatusCode,
		"body", string(snippet))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &synthesis.ProviderError{
			Provider:  providerName,
			Code:      code,
			Message:   "rate limited",
			Cause:     synthesis.ErrRateLimited,
			Retryable: true,
		}
	case resp.StatusCode == http.StatusForbidden && bytes.Contains(snippet, []byte("quota")):
		return &synthesis.ProviderError{
			Provider:  providerName,
			Code:      code,
			Message:   "quota exhausted",
			Cause:     synthesis.ErrQuotaExceeded,
			Retryable: true,
		}
	case resp.StatusCode >= 500:
		return &synthesis.ProviderError{
			Provider:  providerName,
			Code:      code,
			Message:   "server error",
			Cause:     synthesis.ErrServiceUnavailable,
			Retryable: true,
		}
	default:
		return &synthesis.ProviderError{
			Provider:  providerName,
			Code:      code,
			Message:   fmt.Sprintf("request rejected: %s", string(snippet)),
			Retryable: false,
		}
	}
}

// audioEncoding maps the engine's format to the API's encoding name.
func audioEncoding(format synthesis.AudioFormat) string {
	switch format {
	case synthesis.FormatWAV:
		return "LINEAR16"
	case synthesis.FormatOGG:
		return "OGG_OPUS"
	default:
		return "MP3"
	}
}
