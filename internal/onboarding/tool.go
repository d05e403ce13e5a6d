package onboarding

import (
	"context"
	"fmt"

	"github.com/nextlevelbuilder/coralcrew/internal/tools"
)

// AnalyzeTool exposes the product analysis as the
// analyze_product_for_marketing tool. It takes no arguments; the product
// profile is fixed at construction time.
type AnalyzeTool struct {
	analyzer *Analyzer
	product  ProductProfile
}

// NewAnalyzeTool creates the analysis tool for the given product.
func NewAnalyzeTool(analyzer *Analyzer, product ProductProfile) *AnalyzeTool {
	return &AnalyzeTool{analyzer: analyzer, product: product}
}

func (t *AnalyzeTool) Name() string { return "analyze_product_for_marketing" }

func (t *AnalyzeTool) Description() string {
	return "Analyze the configured product data to generate ideal customer profiles, " +
		"marketing angles, and a knowledge base. Takes no arguments; returns JSON."
}

func (t *AnalyzeTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

func (t *AnalyzeTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	result, err := t.analyzer.Analyze(ctx, t.product)
	if err != nil {
		return tools.ErrorResult(fmt.Sprintf("Error during product analysis: %v", err)).WithError(err)
	}
	return tools.NewResult(result)
}
