// Package tts provides the Fish Audio text-to-speech client.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/voice-clone/internal/core"
)

// DefaultBaseURL is the public Fish Audio API.
const DefaultBaseURL = "https://api.fish.audio"

// API endpoints and paths.
const (
	apiTTS = "/v1/tts"
)

// HTTP headers.
const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerModel         = "model"
	contentTypeJSON     = "application/json"
	bearerPrefix        = "Bearer "
)

// Format is the audio container requested from the provider.
type Format string

// Output formats.
const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// Error messages.
const (
	errTextCannotBeEmpty   = "text cannot be empty"
	errAPIKeyCannotBeEmpty = "api key cannot be empty"
	errReceivedEmptyAudio  = "received empty audio data"
	errFmtAPIError         = "Fish Audio API error %d: %s"
)

// Static errors.
var (
	ErrTextEmpty   = errors.New(errTextCannotBeEmpty)
	ErrAPIKeyEmpty = errors.New(errAPIKeyCannotBeEmpty)
	ErrEmptyAudio  = errors.New(errReceivedEmptyAudio)
)

// APIError is returned when the provider answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf(errFmtAPIError, e.StatusCode, e.Body)
}

// Reference is an inline reference clip and its transcript.
type Reference struct {
	Audio string `json:"audio"`
	Text  string `json:"text"`
}

// Request defines the JSON payload of POST /v1/tts.
type Request struct {
	Text        string      `json:"text"`
	Format      Format      `json:"format"`
	References  []Reference `json:"references,omitempty"`
	ReferenceID string      `json:"reference_id,omitempty"`
}

// Client talks to the Fish Audio HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	format     Format
}

// NewClient creates a client for baseURL. A zero timeout means no timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		format:  FormatMP3,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize sends one synthesis request and returns the raw audio bytes.
// A saved provider model (ReferenceID) takes precedence over inline reference audio.
func (c *Client) Synthesize(ctx context.Context, apiKey string, req core.SynthesisRequest) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	if apiKey == "" {
		return nil, ErrAPIKeyEmpty
	}

	model := req.Model
	if model == "" {
		model = core.DefaultModel
	}

	requestBody, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiTTS, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerAuthorization, bearerPrefix+apiKey)
	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerModel, string(model))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Fish Audio at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, parseErrorResponse(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

func (c *Client) buildRequest(req core.SynthesisRequest) Request {
	payload := Request{
		Text:        req.Text,
		Format:      c.format,
		References:  nil,
		ReferenceID: "",
	}

	switch {
	case req.ReferenceID != "":
		payload.ReferenceID = req.ReferenceID
	case len(req.ReferenceAudio) > 0:
		payload.References = []Reference{{
			Audio: base64.StdEncoding.EncodeToString(req.ReferenceAudio),
			Text:  req.ReferenceText,
		}}
	}

	return payload
}

// parseErrorResponse keeps the raw body so the caller sees the provider's own message.
func parseErrorResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		body = []byte(resp.Status)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
