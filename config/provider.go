package config

type (
	OpenAIConfig struct {
		OpenAIApiKey string `env:"OPENAI_API_KEY"`
	}

	AnthropicConfig struct {
		AnthropicApiKey string `env:"ANTHROPIC_API_KEY"`
	}

	NomicConfig struct {
		NomicApiKey string `env:"NOMIC_API_KEY"`
	}

	// EmbeddingConfig selects the embedding provider backing the index.
	// Provider is "openai" or "nomic".
	EmbeddingConfig struct {
		OpenAIConfig
		NomicConfig

		Provider string `env:"EMBEDDING_PROVIDER"`

		// SqlitePath enables the sqlite-vec backed index when non-empty;
		// otherwise the in-memory index is used.
		SqlitePath string `env:"INDEX_SQLITE_PATH"`
	}
)

func NewEmbeddingConfig() (*EmbeddingConfig, error) {
	conf := &EmbeddingConfig{
		Provider: "openai",
	}
	return conf, resolveConfig(conf)
}

func NewOpenAIConfig() (*OpenAIConfig, error) {
	conf := &OpenAIConfig{}
	return conf, resolveConfig(conf)
}

func NewAnthropicConfig() (*AnthropicConfig, error) {
	conf := &AnthropicConfig{}
	return conf, resolveConfig(conf)
}
