// Package fal wraps the FAL platform: file storage, queued model inference
// (video render, image composition).
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// APIError carries a FAL status code and body.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fal api error %d: %s", e.StatusCode, e.Body)
}

// Client talks to the FAL REST and queue APIs.
type Client struct {
	key          string
	restBase     string
	queueBase    string
	pollInterval time.Duration
	http         *http.Client
}

// Config configures a FAL client.
type Config struct {
	Key          string
	RESTBase     string
	QueueBase    string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// NewClient creates a FAL API client.
func NewClient(cfg Config) *Client {
	c := &Client{
		key:          cfg.Key,
		restBase:     cfg.RESTBase,
		queueBase:    cfg.QueueBase,
		pollInterval: cfg.PollInterval,
		http:         cfg.HTTPClient,
	}
	if c.restBase == "" {
		c.restBase = "https://rest.alpha.fal.ai"
	}
	if c.queueBase == "" {
		c.queueBase = "https://queue.fal.run"
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 2 * time.Second
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 120 * time.Second}
	}
	return c
}

// HasKey reports whether the client can authenticate.
func (c *Client) HasKey() bool { return c.key != "" }

type initiateUploadRequest struct {
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

type initiateUploadResponse struct {
	FileURL   string `json:"file_url"`
	UploadURL string `json:"upload_url"`
}

// UploadBytes uploads data to FAL storage and returns its public URL.
func (c *Client) UploadBytes(ctx context.Context, fileName string, data []byte) (string, error) {
	contentType := mime.TypeByExtension(filepath.Ext(fileName))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	initBody, err := json.Marshal(initiateUploadRequest{ContentType: contentType, FileName: fileName})
	if err != nil {
		return "", fmt.Errorf("marshal initiate-upload: %w", err)
	}

	initURL := c.restBase + "/storage/upload/initiate?storage_type=fal-cdn-v3"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, initURL, bytes.NewReader(initBody))
	if err != nil {
		return "", fmt.Errorf("create initiate-upload request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("initiate upload: %w", err)
	}
	body, err := drainBody(resp)
	if err != nil {
		return "", err
	}

	var initResp initiateUploadResponse
	if err := json.Unmarshal(body, &initResp); err != nil {
		return "", fmt.Errorf("decode initiate-upload response: %w", err)
	}
	if initResp.UploadURL == "" || initResp.FileURL == "" {
		return "", fmt.Errorf("initiate-upload response missing urls: %s", string(body))
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, initResp.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	putReq.Header.Set("Content-Type", contentType)

	putResp, err := c.http.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("upload bytes: %w", err)
	}
	if _, err := drainBody(putResp); err != nil {
		return "", err
	}

	return initResp.FileURL, nil
}

// UploadFile uploads a local file to FAL storage and returns its public URL.
func (c *Client) UploadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	url, err := c.UploadBytes(ctx, filepath.Base(path), data)
	if err != nil {
		return "", err
	}
	if url == "" {
		return "", fmt.Errorf("file upload returned empty URL")
	}
	return url, nil
}

// drainBody reads and closes the response body, converting non-2xx statuses
// into *APIError.
func drainBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
