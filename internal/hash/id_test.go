package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDDeterministic(t *testing.T) {
	assert.Equal(t, ID("2024-01-15"), ID("2024-01-15"))
	assert.NotEqual(t, ID("2024-01-15"), ID("2024-01-16"))
}

func TestPartitionIDVariesByTxn(t *testing.T) {
	a := PartitionID("/db/trades/2024-01-15", 7)
	b := PartitionID("/db/trades/2024-01-15", 8)
	c := PartitionID("/db/trades/2024-01-16", 7)

	assert.NotEqual(t, a, b, "same path, different txn")
	assert.NotEqual(t, a, c, "same txn, different path")
	assert.Equal(t, a, PartitionID("/db/trades/2024-01-15", 7))
}
