package config

import (
	"os"
	"strings"
)

// SnapshotChunkSize is the batch size for chunked upserts during a snapshot
// apply. Override with SNAPSHOT_CHUNK_SIZE (values < 1 fall back to 200).
func SnapshotChunkSize() int {
	n := IntFromEnv("SNAPSHOT_CHUNK_SIZE", 200)
	if n < 1 {
		return 200
	}
	return n
}

// SnapshotParallelChunks enables parallel writes of a single table's chunks.
// The default is sequential-per-chunk for predictable diagnostics ordering;
// only enable against backends that tolerate concurrent upserts on one table.
//
// Set via env:
// - SNAPSHOT_PARALLEL_CHUNKS=true
func SnapshotParallelChunks() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("SNAPSHOT_PARALLEL_CHUNKS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
