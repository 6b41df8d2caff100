package signer

import (
	"fmt"

	"github.com/hashicorp/vault/api"
)

// NewFromVault reads a base58-encoded private key from a Vault KV secret
// and builds a signer from it. The key never touches disk; Vault remains
// the system of record for the material.
func NewFromVault(client *api.Client, secretPath, field string, opts ...Option) (*Signer, error) {
	secret, err := client.Logical().Read(secretPath)
	if err != nil {
		return nil, fmt.Errorf("read vault secret %s: %w", secretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("vault secret %s not found", secretPath)
	}

	data := secret.Data
	// KV v2 nests the payload under "data".
	if nested, ok := data["data"].(map[string]interface{}); ok {
		data = nested
	}

	encoded, ok := data[field].(string)
	if !ok || encoded == "" {
		return nil, fmt.Errorf("vault secret %s has no %q field", secretPath, field)
	}

	return New(encoded, opts...)
}
