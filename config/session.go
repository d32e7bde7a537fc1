package config

import "time"

type SessionConfig struct {
	// SqlitePath is the DSN of the session database. The default keeps
	// everything in process memory, matching the no-durability contract.
	SqlitePath string `env:"SESSION_SQLITE_PATH"`

	// MaxAge is how long an idle session survives before a cleanup sweep
	// removes it.
	MaxAge time.Duration `env:"SESSION_MAX_AGE"`

	// MaxHistory caps the number of interactions kept per session,
	// oldest dropped first.
	MaxHistory int `env:"SESSION_MAX_HISTORY"`

	// SweepInterval controls the periodic background sweep. Zero disables
	// the sweeper; cleanup then only happens via the cleanup endpoint.
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL"`
}

func NewSessionConfig() (*SessionConfig, error) {
	conf := &SessionConfig{
		SqlitePath:    ":memory:",
		MaxAge:        time.Hour,
		MaxHistory:    10,
		SweepInterval: 10 * time.Minute,
	}
	return conf, resolveConfig(conf)
}
