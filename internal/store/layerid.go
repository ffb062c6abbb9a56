// Package store implements the archived layer store: 160-bit layer names, the
// fixed per-layer file catalogue, read access to .larch archives through a
// single memory map, and the staging-then-finalize write side.
package store

import (
	"encoding/hex"
	"fmt"
)

// LayerID is the 160-bit layer name, rendered as 40 lowercase hex characters
// in filesystem paths.
type LayerID [20]byte

// ParseLayerID parses the 40-character lowercase hex form.
func ParseLayerID(s string) (LayerID, error) {
	var id LayerID
	if len(s) != 40 {
		return id, fmt.Errorf("layer name %q is not 40 characters", s)
	}
	for i := 0; i < len(s); i++ {
		if !isHexChar(s[i]) {
			return id, fmt.Errorf("layer name %q contains non-hex character %q", s, s[i])
		}
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("layer name %q: %w", s, err)
	}
	copy(id[:], b)
	return id, nil
}

func isHexChar(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f'
}

// IsHexName reports whether s is entirely lowercase hex.
func IsHexName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexChar(s[i]) {
			return false
		}
	}
	return true
}

// String returns the 40-character hex form.
func (id LayerID) String() string { return hex.EncodeToString(id[:]) }

// Prefix returns the first three hex characters, the on-disk grouping
// directory for this layer.
func (id LayerID) Prefix() string { return id.String()[:3] }
