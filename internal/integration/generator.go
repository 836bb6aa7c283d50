package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GeneratePath is the endpoint path appended to the service base URL.
const GeneratePath = "/api/generate-letter"

// GenericGenerationMessage is reported when the service gives no usable reason.
const GenericGenerationMessage = "Erreur lors de la génération du courrier"

// ErrGenerationFailed is wrapped by every error returned from Generate.
var ErrGenerationFailed = errors.New("generation failed")

// GenerationError carries the user-facing reason of a failed generation.
type GenerationError struct {
	// Message is the service's "error" text when present, otherwise the generic message.
	Message string
	// StatusCode is 0 when no response was obtained.
	StatusCode int
	Err        error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGenerationFailed}
	}
	return []error{ErrGenerationFailed, e.Err}
}

// Generator turns a prompt into letter body text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type httpGenerator struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGenerator creates a Generator posting to baseURL + GeneratePath. A
// nil client means a client without timeout; the caller's context is the only
// deadline.
func NewHTTPGenerator(baseURL string, client *http.Client) Generator {
	if client == nil {
		client = &http.Client{}
	}
	return &httpGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Content *string `json:"content"`
	Error   any     `json:"error"`
}

// Generate sends one request. There is no retry.
func (g *httpGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", &GenerationError{Message: GenericGenerationMessage, Err: fmt.Errorf("encoding request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+GeneratePath, bytes.NewReader(body))
	if err != nil {
		return "", &GenerationError{Message: GenericGenerationMessage, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &GenerationError{Message: GenericGenerationMessage, Err: fmt.Errorf("posting to generation service: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &GenerationError{Message: GenericGenerationMessage, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	var decoded generateResponse
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := GenericGenerationMessage
		if decodeErr == nil {
			if s, ok := decoded.Error.(string); ok && s != "" {
				msg = s
			}
		}
		return "", &GenerationError{
			Message:    msg,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("generation service returned status %d", resp.StatusCode),
		}
	}

	if decodeErr != nil {
		return "", &GenerationError{Message: GenericGenerationMessage, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", decodeErr)}
	}
	if decoded.Content == nil {
		return "", &GenerationError{Message: GenericGenerationMessage, StatusCode: resp.StatusCode, Err: errors.New("response has no content")}
	}
	return *decoded.Content, nil
}
