package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stylusguard/internal/ir"
	"stylusguard/internal/parser"
)

func TestKeyIsStablePerContent(t *testing.T) {
	a := Key([]byte("contract source"))
	b := Key([]byte("contract source"))
	c := Key([]byte("contract source "))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestGetReturnsStoredModel(t *testing.T) {
	mc := New(4)
	result := &parser.ParseResult{Contract: &ir.Contract{Name: "Staking"}}
	key := Key([]byte("src"))

	_, ok := mc.Get(key)
	assert.False(t, ok, "Miss before Put")

	mc.Put(key, result)
	got, ok := mc.Get(key)
	require.True(t, ok)
	assert.Same(t, result, got, "The cached model instance is shared")
}

func TestEvictionHonorsCapacity(t *testing.T) {
	mc := New(1)
	mc.Put("a", &parser.ParseResult{})
	mc.Put("b", &parser.ParseResult{})

	_, ok := mc.Get("a")
	assert.False(t, ok, "Oldest entry evicts at capacity")
	_, ok = mc.Get("b")
	assert.True(t, ok)
}
