package id

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDGenerator_Generate(t *testing.T) {
	g := NewUUIDGenerator()

	id := g.Generate()
	require.Len(t, id, 36)
	assert.True(t, IsValidUUID(id))

	// Version nibble must be 4.
	assert.Equal(t, byte('4'), id[14])
}

func TestUUIDGenerator_Unique(t *testing.T) {
	g := NewUUIDGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := g.Generate()
		assert.False(t, seen[id], "duplicate UUID %s", id)
		seen[id] = true
	}
}

func TestUUIDGenerator_Deterministic(t *testing.T) {
	zeros := bytes.NewReader(make([]byte, 16))
	g := NewUUIDGenerator(WithReader(zeros))

	id, err := g.GenerateE()
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-4000-8000-000000000000", id)
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("00000000-0000-4000-8000-000000000000"))
	assert.False(t, IsValidUUID(""))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID("00000000x0000x4000x8000x000000000000"))
}
