// Package hash derives the stable uint64 identifiers used for correlation
// and shard placement: partition task IDs and bitmap index shard hashes.
package hash

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ID returns the xxHash64 of name. Stable across processes, so the same
// index or partition name always lands on the same shard.
func ID(name string) uint64 {
	return xxhash.Sum64String(name)
}

// PartitionID returns the correlation key for one partition's O3 work:
// the hash of its directory path qualified by the transaction number, so
// successive merges of the same partition get distinct IDs.
func PartitionID(path string, txn uint64) uint64 {
	return xxhash.Sum64String(path + "#" + strconv.FormatUint(txn, 10))
}
