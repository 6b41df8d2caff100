package relaypay

import (
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/candorlabs/relaypay/config"
	"github.com/candorlabs/relaypay/logger"
	"github.com/candorlabs/relaypay/signer"
)

// NewFromConfig wires a payment client from loaded configuration: key
// material per cfg.Key.Source, the relay endpoint, the anchor RPC endpoint,
// and a zap logger at the configured level.
func NewFromConfig(cfg config.Config, opts ...Option) (*Client, error) {
	s, err := signerFromConfig(cfg.Key)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithLogger(logger.New(cfg.Log.Level)),
		WithTimeout(cfg.Relay.Timeout),
	}
	if cfg.Solana.RPCURL != "" {
		base = append(base, WithRPCEndpoint(cfg.Solana.RPCURL))
	}

	return New(cfg.Relay.URL, s, append(base, opts...)...)
}

func signerFromConfig(key config.KeyConfig) (*signer.Signer, error) {
	switch key.Source {
	case "", "inline":
		return signer.New(key.PrivateKey)
	case "file":
		return signer.NewFromKeygenFile(key.File)
	case "vault":
		client, err := vault.NewClient(&vault.Config{Address: key.Vault.Address})
		if err != nil {
			return nil, fmt.Errorf("vault client: %w", err)
		}
		if key.Vault.Token != "" {
			client.SetToken(key.Vault.Token)
		}
		return signer.NewFromVault(client, key.Vault.Path, key.Vault.Field)
	default:
		return nil, fmt.Errorf("unknown key source %q", key.Source)
	}
}
