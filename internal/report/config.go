package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/ticket-ledger/internal/domain"
)

// Config controls how projections are flattened into report rows.
type Config struct {
	TerminalStatuses []string `yaml:"terminal_statuses"`
	Languages        []string `yaml:"languages"`
}

// DefaultConfig treats "closed" and its sub-statuses as terminal and
// prefers English text.
func DefaultConfig() Config {
	return Config{
		TerminalStatuses: []string{string(domain.StatusClosed)},
		Languages:        []string{"en"},
	}
}

// LoadConfig reads a YAML config file. An empty path yields the defaults;
// keys missing from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read report config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse report config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("report config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	for _, raw := range c.TerminalStatuses {
		if _, err := domain.ParseStatus(raw); err != nil {
			return err
		}
	}
	return nil
}

// IsTerminal reports whether s is, or lies below, a terminal status.
func (c Config) IsTerminal(s domain.Status) bool {
	for _, raw := range c.TerminalStatuses {
		terminal, err := domain.ParseStatus(raw)
		if err != nil {
			continue
		}
		if s.Within(terminal) {
			return true
		}
	}
	return false
}
