// Package session establishes the backend session from an identity token.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// InitPath is the backend session bootstrap endpoint
const InitPath = "/auth/init"

// ErrTokenRequired is returned when Init is called without a token
var ErrTokenRequired = errors.New("token is required to initialize a session")

// Info is the backend's session metadata, returned as-is
type Info json.RawMessage

// Decode unmarshals the metadata into v
func (i Info) Decode(v any) error {
	if len(i) == 0 {
		return errors.New("empty session info")
	}
	return json.Unmarshal(i, v)
}

// RejectedError is returned when the backend answers with a non-2xx status
type RejectedError struct {
	StatusCode int
	Message    string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("Server error: %s", e.Message)
}

// InitRequest is the body sent to the bootstrap endpoint
type InitRequest struct {
	IDToken string `json:"idToken"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Initializer calls the backend session bootstrap endpoint
type Initializer struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewInitializer creates an initializer for the backend at baseURL
func NewInitializer(baseURL string, httpClient *http.Client, log zerolog.Logger) *Initializer {
	return &Initializer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log.With().Str("component", "session").Logger(),
	}
}

// Init sends token to the backend, in the Authorization header and in the body
func (i *Initializer) Init(ctx context.Context, token string) (Info, error) {
	if token == "" {
		i.log.Error().Msg("No token provided to initialize session")
		return nil, ErrTokenRequired
	}

	jsonData, err := json.Marshal(InitRequest{IDToken: token})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+InitPath, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		i.log.Error().Err(err).Msg("Failed to initialize session")
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rejected := &RejectedError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		if rejected.Message == "" {
			rejected.Message = resp.Status
		}
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err == nil && eb.Error != "" {
			rejected.Message = eb.Error
		}
		i.log.Error().Int("status", resp.StatusCode).Str("error", rejected.Message).Msg("Failed to initialize session")
		return nil, rejected
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("failed to decode response: empty body")
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON")
	}
	info := Info(body)

	i.log.Debug().Msg("Session initialized")
	return info, nil
}
