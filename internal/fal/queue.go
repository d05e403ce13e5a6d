package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// Queue status values.
const (
	statusInQueue    = "IN_QUEUE"
	statusInProgress = "IN_PROGRESS"
	statusCompleted  = "COMPLETED"
)

type submitResponse struct {
	RequestID   string `json:"request_id"`
	StatusURL   string `json:"status_url"`
	ResponseURL string `json:"response_url"`
}

type statusResponse struct {
	Status string `json:"status"`
	Logs   []struct {
		Message string `json:"message"`
	} `json:"logs"`
}

// Submit enqueues a model run and returns the request ID without waiting.
func (c *Client) Submit(ctx context.Context, model string, arguments map[string]interface{}) (string, error) {
	sub, err := c.submit(ctx, model, arguments)
	if err != nil {
		return "", err
	}
	return sub.RequestID, nil
}

// Subscribe enqueues a model run and blocks until it completes, returning the
// decoded result payload. Queue logs are forwarded to the process log.
func (c *Client) Subscribe(ctx context.Context, model string, arguments map[string]interface{}) (map[string]interface{}, error) {
	sub, err := c.submit(ctx, model, arguments)
	if err != nil {
		return nil, err
	}

	slog.Info("fal job submitted", "model", model, "request_id", sub.RequestID)

	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		st, err := c.status(ctx, model, sub.RequestID)
		if err != nil {
			return nil, err
		}
		for _, l := range st.Logs {
			if l.Message != "" {
				slog.Debug("fal job log", "request_id", sub.RequestID, "message", l.Message)
			}
		}

		switch st.Status {
		case statusCompleted:
			return c.result(ctx, model, sub.RequestID)
		case statusInQueue, statusInProgress:
			// keep polling
		default:
			return nil, fmt.Errorf("fal job %s in unexpected state %q", sub.RequestID, st.Status)
		}
	}
}

// RunFabric renders a narrated video from an image and an audio track.
// With wait=true it blocks until the job resolves and returns the final
// result; with wait=false it returns {"request_id": id} immediately and
// performs no polling.
func (c *Client) RunFabric(ctx context.Context, model, imageURL, audioURL, resolution string, wait bool) (map[string]interface{}, error) {
	arguments := map[string]interface{}{
		"image_url":  imageURL,
		"audio_url":  audioURL,
		"resolution": resolution,
	}

	if !wait {
		requestID, err := c.Submit(ctx, model, arguments)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"request_id": requestID}, nil
	}

	return c.Subscribe(ctx, model, arguments)
}

func (c *Client) submit(ctx context.Context, model string, arguments map[string]interface{}) (*submitResponse, error) {
	body, err := json.Marshal(arguments)
	if err != nil {
		return nil, fmt.Errorf("marshal arguments: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.queueBase+"/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create submit request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submit %s: %w", model, err)
	}
	respBody, err := drainBody(resp)
	if err != nil {
		return nil, err
	}

	var sub submitResponse
	if err := json.Unmarshal(respBody, &sub); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	if sub.RequestID == "" {
		return nil, fmt.Errorf("submit response missing request_id: %s", string(respBody))
	}
	return &sub, nil
}

func (c *Client) status(ctx context.Context, model, requestID string) (*statusResponse, error) {
	url := fmt.Sprintf("%s/%s/requests/%s/status?logs=1", c.queueBase, model, requestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create status request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll status: %w", err)
	}
	body, err := drainBody(resp)
	if err != nil {
		return nil, err
	}

	var st statusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &st, nil
}

func (c *Client) result(ctx context.Context, model, requestID string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/%s/requests/%s", c.queueBase, model, requestID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create result request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+c.key)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch result: %w", err)
	}
	body, err := drainBody(resp)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	return result, nil
}
