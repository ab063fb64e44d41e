package bitmap

import "github.com/colbase/tsmerge/internal/hash"

// ShardHash returns a fast content hash of an index name, for callers that
// spread many bitmap indexes across a fixed number of directories/shards
// (e.g. `shard := bitmap.ShardHash(name) % numShards`). It has no bearing
// on the on-disk format itself — purely a placement aid, the same role
// hash.ID plays for partition identity.
func ShardHash(name string) uint64 {
	return hash.ID(name)
}
