package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is used when neither flag, environment nor file set one.
const DefaultAPIURL = "http://localhost:8000"

// Environment variables read by the CLI.
const (
	EnvAPIURL    = "BANK_API_URL"
	EnvCLIKey    = "BANK_API_CLI_KEY"
	EnvServerKey = "BANK_API_KEY"
)

// FileConfig is the on-disk CLI configuration.
type FileConfig struct {
	APIURL      string            `yaml:"api_url,omitempty"`
	APIKey      string            `yaml:"api_key,omitempty"`
	BankHeaders map[string]string `yaml:"bank_headers,omitempty"`
}

// DefaultConfigPath returns ~/.config/bankmirror/config.yaml, honouring
// XDG_CONFIG_HOME.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "bankmirror", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "bankmirror", "config.yaml"), nil
}

// LoadFileConfig reads path. A missing file yields an empty config.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &FileConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// SaveFileConfig writes cfg to path with 0600 permissions. The file is
// written to a temporary sibling and renamed so readers never see a
// partial config.
func SaveFileConfig(path string, cfg *FileConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Settings are the resolved connection parameters.
type Settings struct {
	APIURL      string
	APIKey      string
	BankHeaders map[string]string
}

// Resolve merges flag values, the environment and the file config with
// that precedence. getenv is os.Getenv outside tests.
func Resolve(flagURL, flagKey string, file *FileConfig, getenv func(string) string) Settings {
	if file == nil {
		file = &FileConfig{}
	}

	s := Settings{
		APIURL:      firstNonEmpty(flagURL, getenv(EnvAPIURL), file.APIURL, DefaultAPIURL),
		APIKey:      firstNonEmpty(flagKey, getenv(EnvCLIKey), getenv(EnvServerKey), file.APIKey),
		BankHeaders: file.BankHeaders,
	}
	s.APIURL = strings.TrimRight(s.APIURL, "/")
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
