package tenweb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nextlevelbuilder/coralcrew/internal/tools"
)

const missingKeyMsg = "ERROR: TENWEB_API_KEY not set"

// summaryRaw is the machine-readable blob appended to the create-site
// summary so downstream agents can parse the result.
type summaryRaw struct {
	Status  string                 `json:"status"`
	Request map[string]string      `json:"request"`
	Result  map[string]interface{} `json:"result"`
	Derived map[string]string      `json:"derived"`
}

// CreateSiteTool provisions an AI-generated WordPress site.
type CreateSiteTool struct {
	client         *Client
	autologinEmail string // optional; appends a one-click login link when set
}

// NewCreateSiteTool creates the create_ai_website tool.
func NewCreateSiteTool(client *Client, autologinEmail string) *CreateSiteTool {
	return &CreateSiteTool{client: client, autologinEmail: autologinEmail}
}

func (t *CreateSiteTool) Name() string { return "create_ai_website" }

func (t *CreateSiteTool) Description() string {
	return "Create an AI-generated WordPress website on 10Web. " +
		"Required: business_name, business_description. Optional: business_type, subdomain, " +
		"region (defaults to 'us-central1-c'), admin_username (default 'admin'), admin_password (auto-generated), " +
		"is_demo (0 or 1), demo_domain_delete_after_days (1-30 when is_demo=1)."
}

func (t *CreateSiteTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"business_name": map[string]interface{}{
				"type":        "string",
				"description": "Name of the business/website",
			},
			"business_description": map[string]interface{}{
				"type":        "string",
				"description": "Description of the business for AI content",
			},
			"business_type": map[string]interface{}{
				"type":        "string",
				"description": "Type of business (e.g., restaurant, agency, blog, ecommerce)",
			},
			"subdomain": map[string]interface{}{
				"type":        "string",
				"description": "Subdomain to use; auto-generated if not provided",
			},
			"region": map[string]interface{}{
				"type":        "string",
				"description": "Deployment region; defaults to us-central1-c",
			},
			"admin_username": map[string]interface{}{
				"type":        "string",
				"description": "Admin username for the WP site",
			},
			"admin_password": map[string]interface{}{
				"type":        "string",
				"description": "Admin password; if omitted a secure password is generated",
			},
			"is_demo": map[string]interface{}{
				"type":        "integer",
				"description": "1 to create a demo site that auto-expires; else 0",
			},
			"demo_domain_delete_after_days": map[string]interface{}{
				"type":        "integer",
				"description": "If is_demo=1, number of days before deletion (1-30)",
			},
		},
		"required": []string{"business_name", "business_description"},
	}
}

func (t *CreateSiteTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	if !t.client.HasAPIKey() {
		return tools.ErrorResult(missingKeyMsg)
	}

	businessName := stringArg(args, "business_name")
	businessDescription := stringArg(args, "business_description")
	if businessName == "" || businessDescription == "" {
		return tools.ErrorResult("ERROR: business_name and business_description are required")
	}

	req := CreateSiteRequest{
		Subdomain:           stringArg(args, "subdomain"),
		Region:              stringArg(args, "region"),
		SiteTitle:           businessName,
		AdminUsername:       stringArg(args, "admin_username"),
		AdminPassword:       stringArg(args, "admin_password"),
		BusinessType:        stringArg(args, "business_type"),
		BusinessName:        businessName,
		BusinessDescription: businessDescription,
		IsDemo:              intArg(args, "is_demo"),
	}
	if req.Subdomain == "" {
		req.Subdomain = RandomSubdomain()
	}
	if req.AdminPassword == "" {
		req.AdminPassword = RandomPassword()
	}
	if req.Region == "" {
		req.Region = DefaultRegion
	}
	if req.AdminUsername == "" {
		req.AdminUsername = DefaultAdminUsername
	}
	if req.BusinessType == "" {
		req.BusinessType = "business"
	}
	// demo_domain_delete_after_days is only meaningful for demo sites.
	if req.IsDemo == 1 {
		req.DemoDeleteAfterDays = intArg(args, "demo_domain_delete_after_days")
	}

	resp, err := t.client.CreateSite(ctx, req)
	if err != nil {
		return createErrorResult(err)
	}

	websiteID := resp.WebsiteID.String()
	websiteURL := resp.WebsiteURL
	status := "ok"

	if websiteURL == "" && websiteID != "" {
		slog.Info("site URL not ready, polling listing", "website_id", websiteID)
		polled, pollErr := t.client.PollSiteURL(ctx, websiteID)
		switch {
		case pollErr == nil:
			websiteURL = polled
		case errors.Is(pollErr, ErrStillProvisioning):
			status = "provisioning"
		default:
			return createErrorResult(pollErr)
		}
	}

	adminURL := ""
	if websiteURL != "" {
		adminURL = AdminURL(websiteURL)
	}

	summary := []string{"Website created via 10Web:", "- Website ID: " + websiteID}
	if websiteURL != "" {
		summary = append(summary, "- Website URL: "+websiteURL, "- Admin URL: "+adminURL)
	} else {
		summary = append(summary, "- Website URL: (still provisioning)", "- Admin URL: (still provisioning)")
	}
	summary = append(summary,
		"- Username: "+req.AdminUsername,
		"- Password: "+req.AdminPassword,
	)

	raw := summaryRaw{
		Status: status,
		Request: map[string]string{
			"subdomain":      req.Subdomain,
			"region":         req.Region,
			"admin_username": req.AdminUsername,
		},
		Result:  resp.Raw,
		Derived: map[string]string{"website_url": websiteURL, "admin_url": adminURL},
	}

	if t.autologinEmail != "" && websiteID != "" && websiteURL != "" {
		auto, err := t.client.MintAutologin(ctx, websiteID, websiteURL, t.autologinEmail)
		if err != nil {
			slog.Warn("autologin mint failed", "website_id", websiteID, "error", err)
		} else {
			summary = append(summary, "- Autologin URL (5 min valid): "+auto.URL)
			raw.Derived["autologin_url"] = auto.URL
		}
	}

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		rawJSON = []byte("{}")
	}
	return tools.NewResult(strings.Join(summary, "\n") + "\n\nraw=" + string(rawJSON))
}

func createErrorResult(err error) *tools.Result {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return tools.ErrorResult(fmt.Sprintf(
			"ERROR creating website via 10Web.\n- HTTP: %d\n- Details: %s",
			httpErr.StatusCode, httpErr.Body,
		)).WithError(err)
	}
	return tools.ErrorResult(fmt.Sprintf("ERROR creating website via 10Web: %v", err)).WithError(err)
}

// AutologinTool mints a one-click admin login URL.
type AutologinTool struct {
	client *Client
}

func NewAutologinTool(client *Client) *AutologinTool {
	return &AutologinTool{client: client}
}

func (t *AutologinTool) Name() string { return "generate_autologin_url" }

func (t *AutologinTool) Description() string {
	return "Generate a one-click admin autologin URL for a website (no password needed). " +
		"Required: website_id, website_url, email."
}

func (t *AutologinTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"website_id": map[string]interface{}{
				"type":        "string",
				"description": "10Web website ID",
			},
			"website_url": map[string]interface{}{
				"type":        "string",
				"description": "Base website URL (e.g., https://mysite.10web.club)",
			},
			"email": map[string]interface{}{
				"type":        "string",
				"description": "Email to use for autologin (existing admin or will create one)",
			},
		},
		"required": []string{"website_id", "website_url", "email"},
	}
}

func (t *AutologinTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	if !t.client.HasAPIKey() {
		return tools.ErrorResult(missingKeyMsg)
	}

	websiteID := stringArg(args, "website_id")
	websiteURL := stringArg(args, "website_url")
	email := stringArg(args, "email")
	if websiteID == "" || websiteURL == "" || email == "" {
		return tools.ErrorResult("ERROR: website_id, website_url and email are required")
	}

	auto, err := t.client.MintAutologin(ctx, websiteID, websiteURL, email)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			payload, _ := json.Marshal(map[string]interface{}{
				"status":  "error",
				"http":    httpErr.StatusCode,
				"details": httpErr.Body,
			})
			return tools.ErrorResult(string(payload)).WithError(err)
		}
		payload, _ := json.Marshal(map[string]interface{}{
			"status":  "error",
			"message": err.Error(),
		})
		return tools.ErrorResult(string(payload)).WithError(err)
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"status":        "ok",
		"autologin_url": auto.URL,
		"note":          "Token is single-use and expires in ~5 minutes",
	})
	return tools.NewResult(string(payload))
}

// rawTool wraps a client call that returns the vendor payload unchanged.
type rawTool struct {
	client      *Client
	name        string
	description string
	params      map[string]interface{}
	call        func(ctx context.Context, c *Client, args map[string]interface{}) (string, error)
}

func (t *rawTool) Name() string                       { return t.name }
func (t *rawTool) Description() string                { return t.description }
func (t *rawTool) Parameters() map[string]interface{} { return t.params }

func (t *rawTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	if !t.client.HasAPIKey() {
		return tools.ErrorResult(missingKeyMsg)
	}
	out, err := t.call(ctx, t.client, args)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("ERROR %s: %v", t.name, err)).WithError(err)
	}
	return tools.NewResult(out)
}

var noArgParams = map[string]interface{}{
	"type":       "object",
	"properties": map[string]interface{}{},
}

var websiteIDParams = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"website_id": map[string]interface{}{
			"type":        "string",
			"description": "10Web website ID",
		},
	},
	"required": []string{"website_id"},
}

// RegisterTools adds all 10Web tools to the registry.
func RegisterTools(reg *tools.Registry, client *Client, autologinEmail string) {
	reg.Register(NewCreateSiteTool(client, autologinEmail))
	reg.Register(NewAutologinTool(client))

	reg.Register(&rawTool{
		client:      client,
		name:        "tenweb_get_account_websites",
		description: "List all websites for the 10Web account (raw JSON).",
		params:      noArgParams,
		call: func(ctx context.Context, c *Client, _ map[string]interface{}) (string, error) {
			return c.ListWebsites(ctx)
		},
	})
	reg.Register(&rawTool{
		client:      client,
		name:        "tenweb_get_website_user_info",
		description: "Get user/db/sftp info for a website by ID (raw JSON).",
		params:      websiteIDParams,
		call: func(ctx context.Context, c *Client, args map[string]interface{}) (string, error) {
			return c.UserInfo(ctx, stringArg(args, "website_id"))
		},
	})
	reg.Register(&rawTool{
		client:      client,
		name:        "tenweb_get_website_instance_info",
		description: "Get instance info (IP, region) for a website by ID (raw JSON).",
		params:      websiteIDParams,
		call: func(ctx context.Context, c *Client, args map[string]interface{}) (string, error) {
			return c.InstanceInfo(ctx, stringArg(args, "website_id"))
		},
	})
	reg.Register(&rawTool{
		client:      client,
		name:        "tenweb_check_subdomain",
		description: "Check if a subdomain is available.",
		params: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"subdomain": map[string]interface{}{
					"type":        "string",
					"description": "Subdomain to check availability",
				},
			},
			"required": []string{"subdomain"},
		},
		call: func(ctx context.Context, c *Client, args map[string]interface{}) (string, error) {
			return c.CheckSubdomain(ctx, stringArg(args, "subdomain"))
		},
	})
	reg.Register(&rawTool{
		client:      client,
		name:        "tenweb_generate_subdomain",
		description: "Generate a random available subdomain via API.",
		params:      noArgParams,
		call: func(ctx context.Context, c *Client, _ map[string]interface{}) (string, error) {
			return c.GenerateSubdomain(ctx)
		},
	})
}

func stringArg(args map[string]interface{}, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

func intArg(args map[string]interface{}, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}
