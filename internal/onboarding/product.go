// Package onboarding turns raw product data into structured marketing
// insight: ideal customer profiles, messaging angles and a knowledge base
// for downstream agents.
package onboarding

import (
	"fmt"
	"strings"
)

// ProductProfile holds the product data a marketing analysis runs on.
type ProductProfile struct {
	Name                  string   `yaml:"name" json:"name"`
	Category              string   `yaml:"category" json:"category"`
	Price                 string   `yaml:"price" json:"price"`
	LaunchDate            string   `yaml:"launch_date" json:"launch_date"`
	Description           string   `yaml:"description" json:"description"`
	KeyFeatures           []string `yaml:"key_features" json:"key_features"`
	TargetMarketInsights  []string `yaml:"target_market_insights" json:"target_market_insights"`
	CompetitiveAdvantages []string `yaml:"competitive_advantages" json:"competitive_advantages"`
}

// DefaultProduct is the built-in profile used when no product is configured.
func DefaultProduct() ProductProfile {
	return ProductProfile{
		Name:        "EcoClean Pro",
		Category:    "Smart Home Cleaning Robot",
		Price:       "$899",
		LaunchDate:  "Q2 2024",
		Description: "EcoClean Pro is an AI-powered robotic vacuum that uses advanced LIDAR mapping and eco-friendly cleaning solutions. It features voice control, smartphone app integration, and can clean for 3 hours on a single charge.",
		KeyFeatures: []string{
			"LIDAR mapping technology",
			"3-hour battery life",
			"Voice control (Alexa, Google)",
			"Eco-friendly cleaning solutions",
			"Self-emptying base station",
			"Pet hair specialization",
		},
		TargetMarketInsights: []string{
			"Tech-savvy homeowners aged 25-45",
			"Pet owners",
			"Urban and suburban areas",
		},
		CompetitiveAdvantages: []string{
			"50% longer battery life than competitors",
			"Only robot vacuum using 100% biodegradable cleaning solutions",
			"Advanced pet hair detection",
		},
	}
}

// PromptText renders the profile as the user prompt for the analysis call.
func (p ProductProfile) PromptText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analyze this product data:\n\n")
	fmt.Fprintf(&b, "Product: %s\n", p.Name)
	fmt.Fprintf(&b, "Category: %s\n", p.Category)
	fmt.Fprintf(&b, "Price: %s\n", p.Price)
	fmt.Fprintf(&b, "Launch Date: %s\n\n", p.LaunchDate)
	fmt.Fprintf(&b, "Description: %s\n\n", p.Description)
	b.WriteString("Key Features:\n")
	writeBullets(&b, p.KeyFeatures)
	b.WriteString("\nTarget Market Insights:\n")
	writeBullets(&b, p.TargetMarketInsights)
	b.WriteString("\nCompetitive Advantages:\n")
	writeBullets(&b, p.CompetitiveAdvantages)
	b.WriteString("\nPlease provide comprehensive analysis following the structure outlined in the system prompt.")
	return b.String()
}

func writeBullets(b *strings.Builder, items []string) {
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
}
