// Package random provides cryptographic randomness helpers.
//
// It uses crypto/rand both to seed pseudo-random number generators and to
// draw short random tokens such as tracking-number suffixes.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Token returns n characters drawn uniformly from alphabet using crypto/rand.
func Token(n int, alphabet string) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token length must be positive")
	}
	if alphabet == "" {
		return "", fmt.Errorf("token alphabet is required")
	}

	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out), nil
}
