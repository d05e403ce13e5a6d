package tenweb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// AutologinResult is a minted one-click admin login link. The token is
// single-use and expires in roughly five minutes on the vendor side.
type AutologinResult struct {
	Token string
	URL   string
	Raw   string // raw vendor payload, kept for diagnostics
}

// tokenDecoder extracts the login token from one known response shape.
// Decoders run in priority order; the first hit wins.
type tokenDecoder func(data []byte) (string, bool)

var tokenDecoders = []tokenDecoder{
	decodeTopLevelToken,
	decodeNestedToken,
}

func decodeTopLevelToken(data []byte) (string, bool) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Token == "" {
		return "", false
	}
	return payload.Token, true
}

func decodeNestedToken(data []byte) (string, bool) {
	var payload struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.Data.Token == "" {
		return "", false
	}
	return payload.Data.Token, true
}

// MintAutologin mints a short-lived login token for a site's wp-admin and
// composes the final login URL for the given email.
func (c *Client) MintAutologin(ctx context.Context, websiteID, siteURL, email string) (*AutologinResult, error) {
	adminURL := AdminURL(siteURL)
	path := fmt.Sprintf("/v1/account/websites/%s/single?admin_url=%s", websiteID, url.QueryEscape(adminURL))

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	for _, decode := range tokenDecoders {
		if token, ok := decode(body); ok {
			loginURL := fmt.Sprintf("%s/?twb_wp_login_token=%s&email=%s",
				adminURL, token, url.QueryEscape(email))
			return &AutologinResult{Token: token, URL: loginURL, Raw: string(body)}, nil
		}
	}

	return nil, fmt.Errorf("token not found in response: %s", string(body))
}
