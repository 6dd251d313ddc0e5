package llm

// Price is USD per million tokens.
type Price struct {
	Input  float64
	Output float64
}

// Cost returns the USD cost of u.
func (p Price) Cost(u Usage) float64 {
	return (float64(u.InputTokens)*p.Input + float64(u.OutputTokens)*p.Output) / 1e6
}

// PriceOf returns the list price of a model ID.
func PriceOf(model string) (Price, bool) {
	p, ok := prices[model]
	return p, ok
}

// List prices for the models the aliases resolve to and common
// alternatives. Unknown models are logged without a cost.
var prices = map[string]Price{
	"claude-haiku-4-5-20251001": {1, 5},
	"claude-haiku-4-5":          {1, 5},
	"claude-sonnet-4-20250514":  {3, 15},
	"claude-sonnet-4-5":         {3, 15},
	"claude-opus-4-1":           {15, 75},

	"gpt-4o":       {2.5, 10},
	"gpt-4o-mini":  {0.15, 0.6},
	"gpt-4.1":      {2, 8},
	"gpt-4.1-mini": {0.4, 1.6},
	"gpt-5-mini":   {0.25, 2},
	"o4-mini":      {1.1, 4.4},

	"gemini-2.0-flash":      {0.1, 0.4},
	"gemini-2.0-flash-lite": {0.075, 0.3},
	"gemini-2.5-flash":      {0.3, 2.5},
	"gemini-2.5-pro":        {1.25, 10},
}
