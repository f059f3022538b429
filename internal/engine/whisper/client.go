// Package whisper transcribes learner speech with a whisper.cpp server.
// The server must run with --convert to accept Telegram's OGG/Opus notes.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds one transcription request
const DefaultTimeout = 2 * time.Minute

// Client implements engine.Transcriber
type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// New creates a client for the server at baseURL. An empty language lets
// the server detect it.
func New(baseURL, language string) *Client {
	if language == "" {
		language = "auto"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Transcribe returns the text spoken in audio
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "speech.ogg")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	fields := map[string]string{
		"response_format": "json",
		"temperature":     "0.0",
		"language":        c.language,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("failed to write %s field: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inference", body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("transcription failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("transcription failed: %s", result.Error)
	}

	return strings.TrimSpace(result.Text), nil
}
