package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const maxExternalIDLength = 64

// Generator creates opaque IDs used to correlate requests across logs and traces.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

// Accept reports whether an ID supplied by a caller is safe to echo back and log.
func Accept(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" || len(value) > maxExternalIDLength {
		return "", false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return "", false
		}
	}
	return value, true
}
