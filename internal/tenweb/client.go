// Package tenweb wraps the 10Web site-hosting API.
package tenweb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRegion is where sites land when the mention doesn't say.
	DefaultRegion = "us-central1-c"
	// DefaultAdminUsername for provisioned WordPress sites.
	DefaultAdminUsername = "admin"
)

// ErrStillProvisioning is returned when the poll cap is reached before the
// site URL appears. The site keeps provisioning on the vendor side.
var ErrStillProvisioning = errors.New("site is still provisioning")

// HTTPError carries the vendor's status code and raw body for surfacing
// verbatim in tool results.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("10web api error %d: %s", e.StatusCode, e.Body)
}

// Client talks to the 10Web REST API using a static API key header.
type Client struct {
	apiKey          string
	baseURL         string
	http            *http.Client
	pollInterval    time.Duration
	maxPollAttempts int // 0 = poll without a cap
}

// Config configures a 10Web client.
type Config struct {
	APIKey          string
	BaseURL         string
	PollInterval    time.Duration
	MaxPollAttempts int
	HTTPClient      *http.Client
}

// NewClient creates a 10Web API client.
func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:          cfg.APIKey,
		baseURL:         cfg.BaseURL,
		http:            cfg.HTTPClient,
		pollInterval:    cfg.PollInterval,
		maxPollAttempts: cfg.MaxPollAttempts,
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.10web.io"
	}
	if c.pollInterval <= 0 {
		c.pollInterval = 5 * time.Second
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 60 * time.Second}
	}
	return c
}

// HasAPIKey reports whether the client can make authenticated calls.
func (c *Client) HasAPIKey() bool { return c.apiKey != "" }

// CreateSiteRequest is the payload for the ai-website creation endpoint.
type CreateSiteRequest struct {
	Subdomain           string `json:"subdomain"`
	Region              string `json:"region"`
	SiteTitle           string `json:"site_title"`
	AdminUsername       string `json:"admin_username"`
	AdminPassword       string `json:"admin_password"`
	BusinessType        string `json:"business_type"`
	BusinessName        string `json:"business_name"`
	BusinessDescription string `json:"business_description"`
	IsDemo              int    `json:"is_demo"`
	DemoDeleteAfterDays int    `json:"demo_domain_delete_after_days,omitempty"`
}

// CreateSiteResponse is the creation result. The URL may lag behind the ID
// while the site provisions.
type CreateSiteResponse struct {
	WebsiteID  json.Number            `json:"website_id"`
	WebsiteURL string                 `json:"website_url"`
	Raw        map[string]interface{} `json:"-"`
}

// CreateSite issues one creation request.
func (c *Client) CreateSite(ctx context.Context, req CreateSiteRequest) (*CreateSiteResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/v1/hosting/ai-website", req)
	if err != nil {
		return nil, err
	}

	var resp CreateSiteResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode create-site response: %w", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err == nil {
		resp.Raw = raw
	}
	return &resp, nil
}

// websiteItem is one entry in the account websites listing.
type websiteItem struct {
	ID      json.Number `json:"id"`
	SiteURL string      `json:"site_url"`
	URL     string      `json:"url"`
}

// listing tolerates both response shapes the vendor has used.
type listing struct {
	Data     []websiteItem `json:"data"`
	Websites []websiteItem `json:"websites"`
}

func (l listing) items() []websiteItem {
	if len(l.Data) > 0 {
		return l.Data
	}
	return l.Websites
}

// ListWebsites returns the raw account websites listing.
func (c *Client) ListWebsites(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/account/websites", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PollSiteURL polls the account listing until the given website ID has a URL
// or the attempt cap is reached. A cap of 0 keeps the legacy behavior and
// polls until the context dies. Listing failures are logged and retried, not fatal.
func (c *Client) PollSiteURL(ctx context.Context, websiteID string) (string, error) {
	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)

	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return "", err
		}

		body, err := c.do(ctx, http.MethodGet, "/v1/account/websites", nil)
		if err != nil {
			slog.Warn("site listing poll failed", "website_id", websiteID, "attempt", attempt, "error", err)
		} else {
			var l listing
			if err := json.Unmarshal(body, &l); err == nil {
				for _, item := range l.items() {
					if item.ID.String() != websiteID {
						continue
					}
					if item.SiteURL != "" {
						return item.SiteURL, nil
					}
					if item.URL != "" {
						return item.URL, nil
					}
				}
			}
		}

		if c.maxPollAttempts > 0 && attempt >= c.maxPollAttempts {
			return "", fmt.Errorf("%w after %d polls", ErrStillProvisioning, attempt)
		}
	}
}

// UserInfo returns user/db/sftp info for a website, raw.
func (c *Client) UserInfo(ctx context.Context, websiteID string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/hosting/websites/%s/user_info", websiteID), nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// InstanceInfo returns instance info (IP, region) for a website, raw.
func (c *Client) InstanceInfo(ctx context.Context, websiteID string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/hosting/websites/%s/instance-info", websiteID), nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// CheckSubdomain checks subdomain availability, raw.
func (c *Client) CheckSubdomain(ctx context.Context, subdomain string) (string, error) {
	path := "/v1/hosting/websites/subdomain/check?subdomain=" + url.QueryEscape(subdomain)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GenerateSubdomain asks the vendor for a random available subdomain, raw.
func (c *Client) GenerateSubdomain(ctx context.Context) (string, error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/hosting/websites/subdomain/generate", nil)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
