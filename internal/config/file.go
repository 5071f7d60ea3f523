package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML config file. Every key is a default that
// environment variables override.
type fileConfig struct {
	APIKey          string   `yaml:"api_key"`
	APISecret       string   `yaml:"api_secret"`
	BaseURL         string   `yaml:"base_url"`
	DatabasePath    string   `yaml:"database_path"`
	CredentialsPath string   `yaml:"credentials_path"`
	Fields          []string `yaml:"fields"`
	RefreshInterval string   `yaml:"refresh_interval"`
	FrostThreshold  *float64 `yaml:"frost_threshold"`
}

func getConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "awhere", "config.yaml")
}

// loadFile reads the YAML config file. A missing or unreadable file is not an
// error; callers fall back to built-in defaults.
func loadFile(path string) *fileConfig {
	if path == "" {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	return parseFile(content)
}

func parseFile(content []byte) *fileConfig {
	var file fileConfig
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil
	}
	return &file
}
