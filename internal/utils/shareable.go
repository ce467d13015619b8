package utils

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ShareableID derives the public identifier for an aggregator account id.
// The transform is keyed BLAKE2b-256, so it is deterministic for a given key
// and cannot be reversed to the account id.
func ShareableID(key []byte, accountID string) (string, error) {
	h, err := blake2b.New256(key)
	if err != nil {
		return "", fmt.Errorf("shareable id: %w", err)
	}
	h.Write([]byte(accountID))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}
