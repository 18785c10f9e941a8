// Package id generates UUID v4 identifiers for sessions.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
)

// ErrInvalidUUID is returned when parsing a malformed UUID string.
var ErrInvalidUUID = errors.New("id: invalid UUID format")

// UUIDGenerator generates UUID v4 identifiers.
type UUIDGenerator struct {
	reader io.Reader
}

// UUIDOption is a functional option for UUIDGenerator.
type UUIDOption func(*UUIDGenerator)

// WithReader sets a custom random reader, used by tests for determinism.
func WithReader(r io.Reader) UUIDOption {
	return func(g *UUIDGenerator) {
		g.reader = r
	}
}

// NewUUIDGenerator creates a new UUID v4 generator backed by crypto/rand.
func NewUUIDGenerator(opts ...UUIDOption) *UUIDGenerator {
	g := &UUIDGenerator{
		reader: rand.Reader,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate creates a new UUID v4 string in the canonical
// xxxxxxxx-xxxx-4xxx-yxxx-xxxxxxxxxxxx form. Panics if the random source
// fails, which cannot happen with crypto/rand.
func (g *UUIDGenerator) Generate() string {
	uuid, err := g.GenerateE()
	if err != nil {
		panic("id: failed to generate UUID: " + err.Error())
	}
	return uuid
}

// GenerateE creates a new UUID v4 string, returning an error on failure.
func (g *UUIDGenerator) GenerateE() (string, error) {
	var uuid [16]byte

	_, err := io.ReadFull(g.reader, uuid[:])
	if err != nil {
		return "", err
	}

	// Version 4, RFC 4122 variant.
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return formatUUID(uuid), nil
}

func formatUUID(uuid [16]byte) string {
	buf := make([]byte, 36)

	hex.Encode(buf[0:8], uuid[0:4])
	buf[8] = '-'
	hex.Encode(buf[9:13], uuid[4:6])
	buf[13] = '-'
	hex.Encode(buf[14:18], uuid[6:8])
	buf[18] = '-'
	hex.Encode(buf[19:23], uuid[8:10])
	buf[23] = '-'
	hex.Encode(buf[24:36], uuid[10:16])

	return string(buf)
}

// IsValidUUID reports whether s is a canonically formatted UUID.
func IsValidUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return false
	}
	hexStr := s[0:8] + s[9:13] + s[14:18] + s[19:23] + s[24:36]
	_, err := hex.DecodeString(hexStr)
	return err == nil
}
