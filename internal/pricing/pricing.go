// Package pricing estimates token counts and costs for engine usage. The
// figures are heuristics for the usage dashboard, not billing: tokens come
// from a characters-per-token ratio, and the price table is configuration
// with placeholder values. Everything here is pure and deterministic.
package pricing

import "math"

// charsPerToken is the approximation ratio used for all models.
const charsPerToken = 4

// ModelPrice holds per-1k-token prices for one model.
type ModelPrice struct {
	InputPer1K  float64
	OutputPer1K float64
}

// defaultPrice is used for any model identifier missing from the table, so
// cost estimation never fails on an unknown model.
var defaultPrice = ModelPrice{InputPer1K: 0.001, OutputPer1K: 0.002}

var prices = map[string]ModelPrice{
	"deepseek-ocr": {InputPer1K: 0.0005, OutputPer1K: 0.001},
	"llava":        {InputPer1K: 0.001, OutputPer1K: 0.002},
	"minicpm-v":    {InputPer1K: 0.001, OutputPer1K: 0.002},
}

// EstimateTokens approximates the token count of text. It is monotonic in
// text length: longer text never yields fewer tokens.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / charsPerToken))
}

// PriceFor returns the price entry for a model, falling back to the default
// entry for unknown identifiers.
func PriceFor(model string) ModelPrice {
	if p, ok := prices[model]; ok {
		return p
	}
	return defaultPrice
}

// InputCost prices tokens on the input side of a model.
func InputCost(tokens int, model string) float64 {
	return float64(tokens) / 1000 * PriceFor(model).InputPer1K
}

// OutputCost prices tokens on the output side of a model.
func OutputCost(tokens int, model string) float64 {
	return float64(tokens) / 1000 * PriceFor(model).OutputPer1K
}

// EstimateCost prices a full invocation: input tokens at the input rate plus
// output tokens at the output rate.
func EstimateCost(inputTokens, outputTokens int, model string) float64 {
	return InputCost(inputTokens, model) + OutputCost(outputTokens, model)
}
