package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/coralcrew/internal/config"
	"github.com/nextlevelbuilder/coralcrew/internal/onboarding"
	"github.com/nextlevelbuilder/coralcrew/internal/providers"
	"github.com/nextlevelbuilder/coralcrew/internal/tools"
)

const onboardingPersona = `You are the onboarding agent for automatic product analysis. When mentioned by any agent, you immediately analyze the product data and return structured marketing insights.

IMMEDIATELY call the analyze_product_for_marketing tool. Do not ask for clarification or additional information, and never offer options. Your final answer is the complete analysis result the tool returns.`

func onboardingSpec() agentSpec {
	return agentSpec{
		DefaultID:    "onboarding-agent",
		Description:  "Agent that analyzes product data to define ICPs, marketing angles, and a knowledge base for downstream agents",
		CloseThreads: true,
		Persona:      onboardingPersona,
		RegisterFn: func(ctx context.Context, cfg *config.Settings, reg *tools.Registry, provider providers.Provider) error {
			analyzer := onboarding.NewAnalyzer(provider, cfg.Model.MaxTokens)
			reg.Register(onboarding.NewAnalyzeTool(analyzer, onboarding.DefaultProduct()))
			return nil
		},
	}
}

func onboardingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboarding",
		Short: "Run the product-analysis onboarding agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(onboardingSpec())
		},
	}
}
