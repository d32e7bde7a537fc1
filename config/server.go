package config

type ServerConfig struct {
	LogConfig

	Host string `env:"HOST"`
	Port int    `env:"PORT"`
}

func NewServerConfig() (*ServerConfig, error) {
	conf := &ServerConfig{
		LogConfig: LogConfig{
			LogLevel:   "info",
			LogHandler: "default",
		},
		Host: "0.0.0.0",
		Port: 8000,
	}
	return conf, resolveConfig(conf)
}
