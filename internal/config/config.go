// Package config loads the node configuration from a single YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eigerco/sigclaim/internal/airdrop"
	"github.com/eigerco/sigclaim/internal/crypto"
	"github.com/eigerco/sigclaim/internal/message"
	"github.com/eigerco/sigclaim/internal/policy"
	"github.com/eigerco/sigclaim/pkg/log"
)

const DefaultListenAddr = "127.0.0.1:7400"

// Config is the node configuration.
type Config struct {
	// DataDir is where the ledger is stored. Empty keeps it in memory.
	DataDir string `yaml:"data_dir"`

	// Listen is the UDP address of the relay.
	Listen string `yaml:"listen"`

	Log LogConfig `yaml:"log"`

	// ProgramID is the address of the airdrop program.
	ProgramID crypto.PublicKey `yaml:"program_id"`

	// AuthorityKey is the path of the key that creates the global config,
	// mints and projects at bootstrap.
	AuthorityKey string `yaml:"authority_key"`

	// NodeKey is the path of the key behind the relay's TLS certificate.
	// Empty generates a fresh key on every start.
	NodeKey string `yaml:"node_key"`

	Distributors DistributorsConfig `yaml:"distributors"`

	Projects []ProjectConfig `yaml:"projects"`
}

type LogConfig struct {
	// Level is a zerolog level name. Default: info
	Level string `yaml:"level"`
	// Type is console or json. Default: console
	Type string `yaml:"type"`
}

// DistributorsConfig selects who may authorize claims.
type DistributorsConfig struct {
	// Mode is "exact" (one distributor) or "all" (every key must sign).
	Mode policy.Mode         `yaml:"mode"`
	Keys []crypto.PublicKey `yaml:"keys"`
}

// ProjectConfig is a project created and funded at bootstrap if missing.
type ProjectConfig struct {
	Nonce uint64 `yaml:"nonce"`
	// Mint is created with the authority key when it does not exist yet.
	Mint crypto.PublicKey `yaml:"mint"`
	// Funding is minted into the project's token account on creation.
	Funding uint64 `yaml:"funding"`
}

// Default returns a configuration with defaults applied.
func Default() *Config {
	return &Config{
		Listen:    DefaultListenAddr,
		Log:       LogConfig{Level: "info", Type: "console"},
		ProgramID: airdrop.DefaultProgramID,
		Distributors: DistributorsConfig{
			Mode: policy.ModeExact,
		},
	}
}

// LoadFile reads path over the defaults and validates the result. Unknown
// keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if c.ProgramID.IsZero() {
		return errors.New("program_id must not be zero")
	}
	if _, err := log.ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := log.ParseLoggerType(c.Log.Type); err != nil {
		return fmt.Errorf("log.type: %w", err)
	}
	if _, _, err := policy.For(c.Distributors.Mode, c.Distributors.Keys, message.ClaimMessageSize); err != nil {
		return fmt.Errorf("distributors: %w", err)
	}

	if len(c.Projects) > 0 && c.AuthorityKey == "" {
		return errors.New("authority_key is required to bootstrap projects")
	}
	seen := make(map[uint64]bool, len(c.Projects))
	for i, p := range c.Projects {
		if seen[p.Nonce] {
			return fmt.Errorf("projects[%d]: duplicate nonce %d", i, p.Nonce)
		}
		seen[p.Nonce] = true
		if p.Mint.IsZero() {
			return fmt.Errorf("projects[%d]: mint is required", i)
		}
	}
	return nil
}

// LogOptions converts the log section for log.Init.
func (c *Config) LogOptions() (log.Options, error) {
	level, err := log.ParseLogLevel(c.Log.Level)
	if err != nil {
		return log.Options{}, err
	}
	typ, err := log.ParseLoggerType(c.Log.Type)
	if err != nil {
		return log.Options{}, err
	}
	return log.Options{LogLevel: level, Type: typ}, nil
}
