// Package remote calls an external segmentation service over HTTP.
//
// The service accepts POST {"text": "..."} and answers
// {"tokens": [{"text": "...", "category": "..."}]} or {"error": "..."}.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cognicore/termrank/pkg/termrank/segment"
)

// Client is a segment.Segmenter backed by a segmentation service.
type Client struct {
	URL    string
	APIKey string

	HTTPClient *http.Client
}

type segmentRequest struct {
	Text string `json:"text"`
}

type segmentResponse struct {
	Tokens []segment.Token `json:"tokens"`
	Error  *string         `json:"error"`
}

// Segment implements segment.Segmenter.
func (c *Client) Segment(ctx context.Context, text string) ([]segment.Token, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("segment service: URL required")
	}
	body, err := json.Marshal(segmentRequest{Text: text})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("segment service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("segment service: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var payload segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("segment service: decode response: %w", err)
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("segment service error: %s", *payload.Error)
	}
	return payload.Tokens, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}
