package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go-document-verifier/verify"
)

// OcrConfig configures the external text recognition service. Language and
// whitelist restrict recognition to the document's script.
type OcrConfig struct {
	BaseUrl       string `json:"base_url"`
	Language      string `json:"language,omitempty"`
	CharWhitelist string `json:"char_whitelist,omitempty"`
}

const (
	DefaultOcrLanguage  = "ron+eng"
	DefaultOcrWhitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyzăâîșțĂÂÎȘȚ <>-."
)

// OcrClient talks to the text recognition service. One client serves the
// whole process; each verification call opens its own session.
type OcrClient struct {
	config     OcrConfig
	httpClient *http.Client
}

// NewOcrClient creates a new instance of OcrClient
func NewOcrClient(config OcrConfig) *OcrClient {
	if config.Language == "" {
		config.Language = DefaultOcrLanguage
	}
	if config.CharWhitelist == "" {
		config.CharWhitelist = DefaultOcrWhitelist
	}
	return &OcrClient{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewSession opens a recognition session configured for this client's
// language and whitelist. The caller owns the session and must Close it.
func (c *OcrClient) NewSession(ctx context.Context) (*OcrSession, error) {
	url := fmt.Sprintf("%s/api/sessions", c.config.BaseUrl)

	requestBody := map[string]string{
		"language":       c.config.Language,
		"char_whitelist": c.config.CharWhitelist,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open ocr session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ocr session creation failed with status %d: %s", resp.StatusCode, string(body))
	}

	var sessionResponse struct {
		SessionId string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sessionResponse); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}
	if sessionResponse.SessionId == "" {
		return nil, fmt.Errorf("ocr service returned an empty session id")
	}

	slog.Debug("ocr session opened", "session_id", sessionResponse.SessionId)
	return &OcrSession{client: c, sessionId: sessionResponse.SessionId}, nil
}

// ExtractorFactory adapts the client to the orchestrator's factory contract.
func (c *OcrClient) ExtractorFactory() verify.ExtractorFactory {
	return func(ctx context.Context) (verify.TextExtractor, error) {
		return c.NewSession(ctx)
	}
}

// HealthCheck verifies the text recognition service is available.
func (c *OcrClient) HealthCheck() error {
	url := fmt.Sprintf("%s/api/healthz", c.config.BaseUrl)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute health check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ocr service unhealthy, status %d", resp.StatusCode)
	}
	return nil
}

// OcrSession is one recognition session. It implements verify.TextExtractor.
type OcrSession struct {
	client    *OcrClient
	sessionId string
}

// Recognize submits an image to the session and returns the recognized text.
func (s *OcrSession) Recognize(ctx context.Context, image []byte, mime string) (string, error) {
	url := fmt.Sprintf("%s/api/sessions/%s/recognize", s.client.config.BaseUrl, s.sessionId)

	requestBody := map[string]string{
		"image": base64.StdEncoding.EncodeToString(image),
		"mime":  mime,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal recognize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute recognize request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("recognition failed with status %d: %s", resp.StatusCode, string(body))
	}

	var recognizeResponse struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&recognizeResponse); err != nil {
		return "", fmt.Errorf("failed to decode recognize response: %w", err)
	}

	slog.Debug("recognition completed", "session_id", s.sessionId, "text_length", len(recognizeResponse.Text))
	return recognizeResponse.Text, nil
}

// Close releases the session's recognition worker on the service side.
func (s *OcrSession) Close() error {
	url := fmt.Sprintf("%s/api/sessions/%s", s.client.config.BaseUrl, s.sessionId)

	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create close request: %w", err)
	}

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to close ocr session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("ocr session close failed with status %d", resp.StatusCode)
	}
	return nil
}
