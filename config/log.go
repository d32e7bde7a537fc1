package config

type LogConfig struct {
	LogLevel   string `env:"LOG_LEVEL"`
	LogHandler string `env:"LOG_HANDLER"`
}

func NewLogConfig() (*LogConfig, error) {
	conf := &LogConfig{
		LogLevel:   "info",
		LogHandler: "default",
	}
	return conf, resolveConfig(conf)
}
