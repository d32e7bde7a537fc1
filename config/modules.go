package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/prashantdagar001/automation-api/errors"
)

type (
	// ModulesConfig is the startup manifest: which builtin function modules
	// to register and which MCP servers to import tools from.
	ModulesConfig struct {
		Modules    []string             `yaml:"modules"`
		MCPServers map[string]MCPServer `yaml:"mcpServers"`
	}

	MCPServer struct {
		Command string            `yaml:"command,omitempty"`
		Args    []string          `yaml:"args,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		URL     string            `yaml:"url,omitempty"`
	}
)

func LoadModulesFromFile(file string) (*ModulesConfig, error) {
	yamlBytes, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %s", file)
	}

	var conf ModulesConfig
	if err := yaml.Unmarshal(yamlBytes, &conf); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal file %s", file)
	}

	return &conf, nil
}
