package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeLotID computes a deterministic lot id using SHA256.
// Formula: SHA256(signature|buy_time). Returns hex-encoded hash.
func ComputeLotID(signature string, buyTime int64) string {
	data := fmt.Sprintf("%s|%d", signature, buyTime)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
