// Package txbuild constructs the value-transfer drafts exchanged with the
// relay. It is pure data shaping: no I/O, no shared state, every operation
// returns a fresh draft or an error.
package txbuild

import (
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/candorlabs/relaypay/types"
)

// Draft is an unsigned transaction under construction: an ordered
// instruction list, a blockhash anchoring its validity window, and the
// designated fee payer. Drafts are value data, rebuilt fresh for every
// negotiation and never mutated in place.
type Draft struct {
	FeePayer     solana.PublicKey
	Blockhash    solana.Hash
	Instructions []solana.Instruction
}

// Builder shapes transfer drafts for one sending wallet. The authority is
// the caller's public address; it owns the source token account.
type Builder struct {
	authority solana.PublicKey
}

// NewBuilder returns a builder authorizing transfers from the given wallet.
func NewBuilder(authority solana.PublicKey) *Builder {
	return &Builder{authority: authority}
}

// BuildTransferDraft produces a draft containing exactly one SPL token
// transfer of the challenge amount from senderAccount to recipientAccount,
// anchored to the given blockhash, with feePayer in the fee-payer slot.
//
// The transfer instruction depends only on the challenge and the two token
// accounts, so rebuilding with a different fee payer yields a byte-identical
// transfer. The relay relies on that when it substitutes the final signer.
func (b *Builder) BuildTransferDraft(
	challenge *types.PaymentChallenge,
	senderAccount solana.PublicKey,
	recipientAccount solana.PublicKey,
	feePayer solana.PublicKey,
	anchor solana.Hash,
) (Draft, error) {
	amount, err := challenge.AtomicAmount()
	if err != nil {
		return Draft{}, types.WrapError(types.ErrInvalidChallenge, "unpayable amount", err)
	}
	if senderAccount.IsZero() || recipientAccount.IsZero() {
		return Draft{}, types.NewError(types.ErrInvalidChallenge, "transfer accounts are not set")
	}
	if feePayer.IsZero() {
		return Draft{}, types.NewError(types.ErrInvalidChallenge, "fee payer is not set")
	}

	transfer := token.NewTransferInstruction(
		amount,
		senderAccount,
		recipientAccount,
		b.authority,
		nil,
	).Build()

	return Draft{
		FeePayer:     feePayer,
		Blockhash:    anchor,
		Instructions: []solana.Instruction{transfer},
	}, nil
}

// AppendRelayInstruction returns a new draft with the relay's instruction
// placed after the transfer. Order is significant: the relay instruction
// may inspect the preceding transfer.
func (b *Builder) AppendRelayInstruction(draft Draft, ri types.RelayInstruction) (Draft, error) {
	program, err := solana.PublicKeyFromBase58(ri.ProgramID)
	if err != nil {
		return Draft{}, types.WrapError(types.ErrRelayRejected, "relay instruction has a malformed program address", err)
	}

	metas := make(solana.AccountMetaSlice, len(ri.Accounts))
	for i, account := range ri.Accounts {
		if !account.Role.Valid() {
			return Draft{}, types.NewError(types.ErrRelayRejected,
				fmt.Sprintf("relay instruction account %d has unknown role %d", i, account.Role))
		}
		key, err := solana.PublicKeyFromBase58(account.Address)
		if err != nil {
			return Draft{}, types.WrapError(types.ErrRelayRejected,
				fmt.Sprintf("relay instruction account %d has a malformed address", i), err)
		}
		metas[i] = &solana.AccountMeta{
			PublicKey:  key,
			IsSigner:   account.Role.IsSigner(),
			IsWritable: account.Role.IsWritable(),
		}
	}

	instructions := make([]solana.Instruction, 0, len(draft.Instructions)+1)
	instructions = append(instructions, draft.Instructions...)
	instructions = append(instructions, solana.NewInstruction(program, metas, []byte(ri.Data)))

	return Draft{
		FeePayer:     draft.FeePayer,
		Blockhash:    draft.Blockhash,
		Instructions: instructions,
	}, nil
}

// Transaction assembles the draft into a transaction with the fee payer in
// the first signer slot.
func (d Draft) Transaction() (*solana.Transaction, error) {
	return solana.NewTransaction(
		d.Instructions,
		d.Blockhash,
		solana.TransactionPayer(d.FeePayer),
	)
}

// SerializeUnsigned serializes the draft with zero-filled signature slots,
// the form the relay's instruction endpoint accepts before any party has
// signed.
func (d Draft) SerializeUnsigned() (string, error) {
	tx, err := d.Transaction()
	if err != nil {
		return "", fmt.Errorf("assemble draft: %w", err)
	}

	tx.Signatures = make([]solana.Signature, tx.Message.Header.NumRequiredSignatures)

	raw, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("serialize draft: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
