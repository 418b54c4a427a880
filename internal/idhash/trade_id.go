package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(mint|side|strategy|created_at_ns|seq)
// The per-ledger sequence number disambiguates otherwise identical
// trades recorded within the same nanosecond.
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(
	mint string,
	side string,
	strategy string,
	createdAtNs int64,
	seq uint64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		mint,
		side,
		strategy,
		createdAtNs,
		seq,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
