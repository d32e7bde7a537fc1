package config

// DispatchConfig holds the policy constants of the request pipeline.
//
// MatchThreshold is the minimum relevance score a similarity match must
// reach before the matched function is executed. TopK is how many
// candidates are pulled from the embedding index per query.
type DispatchConfig struct {
	MatchThreshold float64 `env:"MATCH_THRESHOLD"`
	TopK           int     `env:"MATCH_TOP_K"`

	// ExtractionModel selects the chat model used for LLM parameter
	// extraction. The prefix selects the provider, e.g. "openai/gpt-4o-mini"
	// or "anthropic/claude-3-5-haiku-latest". Empty disables LLM extraction
	// and the dispatcher relies on pattern extraction alone.
	ExtractionModel string `env:"EXTRACTION_MODEL"`
}

func NewDispatchConfig() (*DispatchConfig, error) {
	conf := &DispatchConfig{
		MatchThreshold: 0.5,
		TopK:           3,
	}
	return conf, resolveConfig(conf)
}
