// Package config loads the engine's configuration from file and
// environment.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the payment client needs at construction time.
type Config struct {
	Relay  RelayConfig  `mapstructure:"relay"`
	Solana SolanaConfig `mapstructure:"solana"`
	Key    KeyConfig    `mapstructure:"key"`
	Poll   PollConfig   `mapstructure:"poll"`
	Log    LogConfig    `mapstructure:"log"`
}

// RelayConfig locates the fee-sponsoring relay.
type RelayConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SolanaConfig locates the ledger RPC endpoint used for anchors.
type SolanaConfig struct {
	RPCURL string `mapstructure:"rpc_url"`
}

// KeyConfig selects where the signing key comes from: an inline base58
// string, a Solana keygen file, or a Vault KV secret.
type KeyConfig struct {
	Source     string      `mapstructure:"source"` // "inline", "file" or "vault"
	PrivateKey string      `mapstructure:"private_key"`
	File       string      `mapstructure:"file"`
	Vault      VaultConfig `mapstructure:"vault"`
}

// VaultConfig locates a Vault-held signing key.
type VaultConfig struct {
	Address string `mapstructure:"address"`
	Token   string `mapstructure:"token"`
	Path    string `mapstructure:"path"`
	Field   string `mapstructure:"field"`
}

// PollConfig bounds the job poller.
type PollConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from ./relaypay.yaml (if present) and the
// RELAYPAY_* environment, with defaults for everything optional.
func Load() (Config, error) {
	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("relaypay")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("relaypay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("relay.timeout", 30*time.Second)
	v.SetDefault("key.source", "inline")
	v.SetDefault("key.vault.field", "private_key")
	v.SetDefault("poll.max_attempts", 60)
	v.SetDefault("poll.initial_delay", 5*time.Second)
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
