package types

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// AccountRole encodes the signer/writable pair of an instruction account
// reference as a small enum: bit 0 = writable, bit 1 = signer.
type AccountRole int

const (
	RoleReadonly       AccountRole = 0
	RoleWritable       AccountRole = 1
	RoleReadonlySigner AccountRole = 2
	RoleWritableSigner AccountRole = 3
)

// IsSigner reports whether the role requires a signature.
func (r AccountRole) IsSigner() bool { return r == RoleReadonlySigner || r == RoleWritableSigner }

// IsWritable reports whether the role permits writes.
func (r AccountRole) IsWritable() bool { return r == RoleWritable || r == RoleWritableSigner }

// Valid reports whether the role is one of the four defined values.
func (r AccountRole) Valid() bool { return r >= RoleReadonly && r <= RoleWritableSigner }

// InstructionAccount is one (address, role) reference of a relay
// instruction.
type InstructionAccount struct {
	Address string      `json:"address"`
	Role    AccountRole `json:"role"`
}

// RelayInstruction is the sponsor-countersigned instruction returned by the
// relay's instruction endpoint. The program and payload are opaque to this
// client; they are embedded verbatim after the transfer instruction.
type RelayInstruction struct {
	ProgramID string               `json:"program_id"`
	Accounts  []InstructionAccount `json:"accounts"`
	Data      InstructionData      `json:"data"`
}

// InstructionData is the relay instruction's byte payload. On the wire it
// may arrive as a flat number sequence, a wrapped object with a "data"
// field, or a sparse map keyed by stringified indices. All three shapes
// normalize to one canonical byte sequence at ingestion.
type InstructionData []byte

// UnmarshalJSON normalizes the three wire shapes into a byte slice.
func (d *InstructionData) UnmarshalJSON(raw []byte) error {
	normalized, err := normalizeInstructionData(raw)
	if err != nil {
		return err
	}
	*d = normalized
	return nil
}

// MarshalJSON emits the flat sequence shape.
func (d InstructionData) MarshalJSON() ([]byte, error) {
	out := make([]int, len(d))
	for i, b := range d {
		out[i] = int(b)
	}
	return json.Marshal(out)
}

func normalizeInstructionData(raw []byte) ([]byte, error) {
	// Shape 1: flat sequence [1, 2, 3].
	var flat []int
	if err := json.Unmarshal(raw, &flat); err == nil {
		return bytesFromInts(flat)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("instruction data: unrecognized shape: %w", err)
	}

	// Shape 2: wrapped object {"data": <inner shape>}, as produced by
	// Buffer-style JSON serialization.
	if inner, ok := obj["data"]; ok {
		return normalizeInstructionData(inner)
	}

	// Shape 3: sparse map {"0": 1, "2": 3}. Missing indices are zero bytes.
	maxIdx := -1
	byIndex := make(map[int]int, len(obj))
	for key, val := range obj {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("instruction data: key %q is not a byte index", key)
		}
		var b int
		if err := json.Unmarshal(val, &b); err != nil {
			return nil, fmt.Errorf("instruction data: value at index %d: %w", idx, err)
		}
		byIndex[idx] = b
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	sparse := make([]int, maxIdx+1)
	for idx, b := range byIndex {
		sparse[idx] = b
	}
	return bytesFromInts(sparse)
}

func bytesFromInts(values []int) ([]byte, error) {
	out := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("instruction data: value %d at index %d is not a byte", v, i)
		}
		out[i] = byte(v)
	}
	return out, nil
}
