package types

import "strings"

// Known CAIP-2 Solana network identifiers.
const (
	NetworkSolanaMainnet = "solana:5eykt4UsFv8P8NJdTREpY1vzqKqZKvdp"
	NetworkSolanaDevnet  = "solana:EtWTRABZaYq6iMfeYKouRu166VU2xqa1"
)

// IsSolanaNetwork reports whether a CAIP-2 network identifier names a
// Solana chain. The engine settles on exactly one such network per
// negotiation; anything else is rejected as an invalid challenge.
func IsSolanaNetwork(network string) bool {
	return strings.HasPrefix(network, "solana:")
}
