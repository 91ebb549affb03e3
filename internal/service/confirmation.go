package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const confirmationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewConfirmationNumber returns length random upper-case alphanumerics,
// e.g. "ABC123XYZ890". Uniqueness is checked by the store, not here.
func NewConfirmationNumber(length int) (string, error) {
	if length < 1 {
		return "", fmt.Errorf("service.NewConfirmationNumber: length must be positive, got %d", length)
	}
	max := big.NewInt(int64(len(confirmationAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("service.NewConfirmationNumber: %w", err)
		}
		b[i] = confirmationAlphabet[n.Int64()]
	}
	return string(b), nil
}
