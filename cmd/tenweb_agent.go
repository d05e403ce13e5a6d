package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/coralcrew/internal/config"
	"github.com/nextlevelbuilder/coralcrew/internal/providers"
	"github.com/nextlevelbuilder/coralcrew/internal/tenweb"
	"github.com/nextlevelbuilder/coralcrew/internal/tools"
)

const tenwebPersona = `You are the 10Web agent. You create AI-powered WordPress websites via your 10Web tools, then report results back clearly with links and credentials.

When the instruction asks to create a website, extract: business_name, business_description, business_type (optional), region (optional). Defaults: business_type="business", region="us-central1-c". Call create_ai_website with those fields. If business_description or business_name is missing, reply with a clarifying question instead.

Parse the tool result (text may include a trailing raw=JSON) and compose a concise response including these fields explicitly (include autologin if available):
- Website URL: <website_url>
- Admin URL: <admin_url>
- Username: <admin_username>
- Password: <admin_password>
- Autologin URL: <autologin_url> (if available)

If website_url is missing but website_id exists, say so and include website_id and any error.`

func tenwebSpec() agentSpec {
	return agentSpec{
		DefaultID:   "tenweb-agent",
		Description: "Agent that creates AI-powered WordPress websites via 10Web and reports back URLs and credentials",
		Persona:     tenwebPersona,
		RegisterFn: func(ctx context.Context, cfg *config.Settings, reg *tools.Registry, _ providers.Provider) error {
			client := tenweb.NewClient(tenweb.Config{
				APIKey:          cfg.TenWeb.APIKey,
				BaseURL:         cfg.TenWeb.BaseURL,
				PollInterval:    cfg.TenWeb.PollInterval,
				MaxPollAttempts: cfg.TenWeb.MaxPollAttempts,
			})
			tenweb.RegisterTools(reg, client, cfg.TenWeb.AutologinEmail)
			return nil
		},
	}
}

func tenwebCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tenweb",
		Short: "Run the 10Web site-provisioning agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(tenwebSpec())
		},
	}
}
